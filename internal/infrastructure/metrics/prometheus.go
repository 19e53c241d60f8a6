package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schutztat/internal/ports"
)

const namespace = "schutztat_sync"

// Prometheus records sync outcomes on its own registry.
type Prometheus struct {
	registry *prometheus.Registry
	records  *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	pending  *prometheus.GaugeVec
}

var _ ports.SyncMetrics = (*Prometheus)(nil)

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Upserted records by entity type and outcome.",
		}, []string{"entity", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished sync runs by entity type and terminal status.",
		}, []string{"entity", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of sync runs.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"entity"}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_links",
			Help:      "Rows whose parent reference could not be resolved on the last run.",
		}, []string{"entity"}),
	}
	p.registry.MustRegister(p.records, p.runs, p.duration, p.pending)
	return p
}

func (p *Prometheus) RecordUpserted(entity string, outcome string) {
	p.records.WithLabelValues(entity, outcome).Inc()
}

func (p *Prometheus) RunFinished(entity string, status string, duration time.Duration) {
	p.runs.WithLabelValues(entity, status).Inc()
	p.duration.WithLabelValues(entity).Observe(duration.Seconds())
}

func (p *Prometheus) PendingLinks(entity string, pending int) {
	p.pending.WithLabelValues(entity).Set(float64(pending))
}

// Handler exposes the registry in the text exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
