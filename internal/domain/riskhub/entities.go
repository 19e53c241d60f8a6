package riskhub

import "time"

type Assessment struct {
	ID              uint64
	ExternalID      string
	TenantID        string
	Title           string
	Description     string
	Category        string
	Status          AssessmentStatus
	SiteID          string
	CreatedByID     string
	ApprovedByID    string
	ApprovedAt      *time.Time
	RemoteCreatedAt *time.Time
	RemoteUpdatedAt *time.Time
	LastSyncedAt    *time.Time
}

type Hazard struct {
	ID              uint64
	ExternalID      string
	TenantID        string
	Assessment      ParentLink
	Title           string
	Description     string
	Severity        *int64
	Probability     *int64
	RiskScore       *int64
	RiskLevel       RiskLevel
	Mitigation      string
	RemoteCreatedAt *time.Time
	RemoteUpdatedAt *time.Time
	LastSyncedAt    *time.Time
}

type ActionItem struct {
	ID              uint64
	ExternalID      string
	TenantID        string
	Assessment      ParentLink
	Hazard          ParentLink
	Title           string
	Description     string
	Status          ActionStatus
	Priority        *int64
	DueDate         *time.Time
	AssignedToID    string
	CompletedAt     *time.Time
	RemoteCreatedAt *time.Time
	RemoteUpdatedAt *time.Time
	LastSyncedAt    *time.Time
}

// IsOverdue is derived on every read and never stored.
func (a ActionItem) IsOverdue(today time.Time) bool {
	return IsOverdue(a.DueDate, a.Status, today)
}

type SyncRun struct {
	ID           uint64
	RunKey       string
	EntityType   EntityType
	StartedAt    time.Time
	FinishedAt   *time.Time
	CreatedCount int
	UpdatedCount int
	Status       RunStatus
	ErrorMessage string
	Stats        RunStats
}

// RunStats is the structured detail kept alongside each sync run.
type RunStats struct {
	Pages            int    `json:"pages" yaml:"pages"`
	Fetched          int    `json:"fetched" yaml:"fetched"`
	LinkedAssessment int    `json:"linked_assessment,omitempty" yaml:"linked_assessment,omitempty"`
	LinkedHazard     int    `json:"linked_hazard,omitempty" yaml:"linked_hazard,omitempty"`
	PendingLinks     int    `json:"pending_links,omitempty" yaml:"pending_links,omitempty"`
	ErrorKind        string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
}
