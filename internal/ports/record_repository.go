package ports

import (
	"context"
	"errors"
	"time"

	"schutztat/internal/domain/riskhub"
)

var ErrRecordNotFound = errors.New("record not found")

// Assignments maps local column names to storage values. A nil value writes
// NULL.
type Assignments map[string]any

// RecordRepository is the keyed write side used by the upsert resolver.
type RecordRepository interface {
	FindIDByExternalID(ctx context.Context, entity riskhub.EntityType, externalID string) (uint64, error)
	Create(ctx context.Context, entity riskhub.EntityType, values Assignments) (uint64, error)
	Update(ctx context.Context, entity riskhub.EntityType, id uint64, values Assignments) error
}

// PendingHazardLink is a hazard whose assessment link is still pending.
type PendingHazardLink struct {
	HazardID      uint64
	AssessmentRef string
}

// PendingActionLink carries only the references that are still pending; a
// resolved side is reported as an empty ref.
type PendingActionLink struct {
	ActionID      uint64
	AssessmentRef string
	HazardRef     string
}

// LinkRepository backs the relationship linker. Setters only fill NULL links
// and report whether a row was changed.
type LinkRepository interface {
	ListPendingHazardLinks(ctx context.Context) ([]PendingHazardLink, error)
	ListPendingActionLinks(ctx context.Context) ([]PendingActionLink, error)
	ResolveExternalIDs(ctx context.Context, entity riskhub.EntityType, externalIDs []string) (map[string]uint64, error)
	SetHazardAssessment(ctx context.Context, hazardID uint64, assessmentID uint64) (bool, error)
	SetActionAssessment(ctx context.Context, actionID uint64, assessmentID uint64) (bool, error)
	SetActionHazard(ctx context.Context, actionID uint64, hazardID uint64) (bool, error)
}

type AssessmentSummary struct {
	riskhub.Assessment
	HazardCount int
	ActionCount int
}

type HazardFilter struct {
	AssessmentExternalID string
	MinRiskLevel         riskhub.RiskLevel
	Limit                int
}

type ActionItemFilter struct {
	Status               riskhub.ActionStatus
	AssessmentExternalID string
	// Overdue keeps only items overdue on OverdueOn (the UTC calendar day).
	// Readers fill OverdueOn from their clock when it is zero.
	Overdue   bool
	OverdueOn time.Time
	Limit     int
}

// ReadRepository serves the reporting surface.
type ReadRepository interface {
	ListAssessments(ctx context.Context, limit int) ([]AssessmentSummary, error)
	ListHazards(ctx context.Context, filter HazardFilter) ([]riskhub.Hazard, error)
	ListActionItems(ctx context.Context, filter ActionItemFilter) ([]riskhub.ActionItem, error)
}
