package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/ports"
)

const (
	DefaultPageSize = 100
	DefaultLeaseTTL = 10 * time.Minute
)

// MergePolicy decides which mapped columns an update writes.
type MergePolicy string

const (
	// ReplaceAll writes every mapped column, so a remote null clears the
	// local value. The remote is authoritative.
	ReplaceAll MergePolicy = "replace_all"
	// MergeNonNull skips columns whose remote value is null.
	MergeNonNull MergePolicy = "merge_non_null"
)

func ParseMergePolicy(raw string) (MergePolicy, error) {
	switch MergePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ReplaceAll:
		return ReplaceAll, nil
	case MergeNonNull:
		return MergeNonNull, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q", raw)
	}
}

type Service struct {
	records ports.RecordRepository
	links   ports.LinkRepository
	runs    ports.SyncRunRepository
	reads   ports.ReadRepository
	uow     ports.UnitOfWork
	lease   ports.RunLease
	metrics ports.SyncMetrics
	sources ports.RemoteSourceFactory
	secrets ports.SecretSource

	now       func() time.Time
	newRunKey func() string
	// process prefixes lease holders; every run appends its own run key.
	process string
}

// NewService wires the sync engine. lease, metrics and secrets may be nil.
func NewService(
	records ports.RecordRepository,
	links ports.LinkRepository,
	runs ports.SyncRunRepository,
	reads ports.ReadRepository,
	uow ports.UnitOfWork,
	lease ports.RunLease,
	metrics ports.SyncMetrics,
	sources ports.RemoteSourceFactory,
	secrets ports.SecretSource,
) *Service {
	return &Service{
		records:   records,
		links:     links,
		runs:      runs,
		reads:     reads,
		uow:       uow,
		lease:     lease,
		metrics:   metrics,
		sources:   sources,
		secrets:   secrets,
		now:       time.Now,
		newRunKey: uuid.NewString,
		process:   uuid.NewString(),
	}
}

// Settings is the explicit configuration for one invocation. APIKeySecret is
// consulted only when Remote.APIKey is empty.
type Settings struct {
	Remote       ports.RemoteSettings
	APIKeySecret string
	PageSize     int
	Policy       MergePolicy
	LeaseTTL     time.Duration
}

func (s Settings) normalized() Settings {
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.Policy == "" {
		s.Policy = ReplaceAll
	}
	if s.LeaseTTL <= 0 {
		s.LeaseTTL = DefaultLeaseTTL
	}
	return s
}

type RunInput struct {
	Entity   riskhub.EntityType
	Settings Settings
}

// RunResult describes one invocation. Skipped runs have no audit record.
type RunResult struct {
	Entity       riskhub.EntityType
	RunID        uint64
	RunKey       string
	Status       riskhub.RunStatus
	Created      int
	Updated      int
	Stats        riskhub.RunStats
	ErrorMessage string
	Skipped      bool
	SkipReason   string
}

type UpsertOutcome string

const (
	OutcomeCreated UpsertOutcome = "created"
	OutcomeUpdated UpsertOutcome = "updated"
)
