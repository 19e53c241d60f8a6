package model

type ActionItem struct {
	ID                   uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	ExternalID           string  `gorm:"column:external_id;type:text;not null;uniqueIndex"`
	TenantID             *string `gorm:"column:tenant_id;type:text;index"`
	Title                string  `gorm:"column:title;type:text;not null"`
	Description          *string `gorm:"column:description;type:text"`
	Status               *string `gorm:"column:status;type:text"`
	Priority             *int64  `gorm:"column:priority"`
	DueDate              *string `gorm:"column:due_date;type:text;index"`
	AssignedToID         *string `gorm:"column:assigned_to_id;type:text"`
	AssessmentID         *uint64 `gorm:"column:assessment_id;index"`
	AssessmentExternalID *string `gorm:"column:assessment_external_id;type:text;index"`
	HazardID             *uint64 `gorm:"column:hazard_id;index"`
	HazardExternalID     *string `gorm:"column:hazard_external_id;type:text;index"`
	CompletedAt          *string `gorm:"column:completed_at;type:text"`
	RemoteCreatedAt      *string `gorm:"column:remote_created_at;type:text"`
	RemoteUpdatedAt      *string `gorm:"column:remote_updated_at;type:text"`
	LastSyncedAt         *string `gorm:"column:last_synced_at;type:text"`
}

func (ActionItem) TableName() string {
	return "action_items"
}
