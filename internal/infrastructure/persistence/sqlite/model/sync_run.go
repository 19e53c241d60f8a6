package model

import "gorm.io/datatypes"

type SyncRun struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	RunKey       string         `gorm:"column:run_key;type:text;not null;uniqueIndex"`
	EntityType   string         `gorm:"column:entity_type;type:text;not null;index"`
	StartedAt    string         `gorm:"column:started_at;type:text;not null;index"`
	FinishedAt   *string        `gorm:"column:finished_at;type:text"`
	CreatedCount int            `gorm:"column:created_count;not null;default:0"`
	UpdatedCount int            `gorm:"column:updated_count;not null;default:0"`
	Status       string         `gorm:"column:status;type:text;not null;index"`
	ErrorMessage *string        `gorm:"column:error_message;type:text"`
	Stats        datatypes.JSON `gorm:"column:stats"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
