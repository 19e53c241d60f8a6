package ports

import (
	"context"
	"errors"
	"time"

	"schutztat/internal/domain/riskhub"
)

var ErrRunAlreadyFinished = errors.New("sync run already finished")

type SyncRunCreate struct {
	RunKey     string
	EntityType riskhub.EntityType
	StartedAt  time.Time
}

type SyncRunFinish struct {
	Status       riskhub.RunStatus
	FinishedAt   time.Time
	CreatedCount int
	UpdatedCount int
	ErrorMessage string
	Stats        riskhub.RunStats
}

type SyncRunFilter struct {
	EntityType riskhub.EntityType
	Status     riskhub.RunStatus
	Limit      int
}

// SyncRunRepository is the append-only audit trail. Finish succeeds at most
// once per run and returns ErrRunAlreadyFinished afterwards.
type SyncRunRepository interface {
	Create(ctx context.Context, input SyncRunCreate) (riskhub.SyncRun, error)
	Finish(ctx context.Context, runID uint64, input SyncRunFinish) error
	Get(ctx context.Context, runID uint64) (riskhub.SyncRun, error)
	List(ctx context.Context, filter SyncRunFilter) ([]riskhub.SyncRun, error)
}
