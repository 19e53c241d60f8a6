package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"schutztat/internal/bootstrap/logging"
	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
)

const DefaultInterval = 15 * time.Minute

// SyncAll runs every entity type in parent-first order. A failed run does not
// stop the ones after it.
func (s *Service) SyncAll(ctx context.Context, settings Settings) ([]RunResult, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	results := make([]RunResult, 0, len(riskhub.SyncOrder))
	var joined error
	for _, entity := range riskhub.SyncOrder {
		if err := ctx.Err(); err != nil {
			return results, errors.Join(joined, errs.Wrap(err, "check context"))
		}
		result, err := s.Run(ctx, RunInput{Entity: entity, Settings: settings})
		results = append(results, result)
		if err != nil {
			joined = errors.Join(joined, errs.Wrapf(err, "sync %s", entity))
		}
	}
	return results, joined
}

type ScheduleInput struct {
	Interval time.Duration
	Settings Settings
}

// RunSchedule triggers SyncAll immediately and then on every interval tick
// until ctx is cancelled. Ticks that fire while a round is still running are
// dropped by the ticker.
func (s *Service) RunSchedule(ctx context.Context, input ScheduleInput) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	interval := input.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "ingest.schedule"))
	logging.Info(logCtx, "scheduler started", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.SyncAll(ctx, input.Settings); err != nil && ctx.Err() == nil {
			logging.Error(logCtx, "scheduled sync round failed", slog.Any("err", errs.Loggable(err)))
		}

		select {
		case <-ctx.Done():
			logging.Info(logCtx, "scheduler stopped")
			return nil
		case <-ticker.C:
		}
	}
}
