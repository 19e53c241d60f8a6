package model

type Assessment struct {
	ID              uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	ExternalID      string  `gorm:"column:external_id;type:text;not null;uniqueIndex"`
	TenantID        *string `gorm:"column:tenant_id;type:text;index"`
	Title           string  `gorm:"column:title;type:text;not null"`
	Description     *string `gorm:"column:description;type:text"`
	Category        *string `gorm:"column:category;type:text"`
	Status          *string `gorm:"column:status;type:text"`
	SiteID          *string `gorm:"column:site_id;type:text"`
	CreatedByID     *string `gorm:"column:created_by_id;type:text"`
	ApprovedByID    *string `gorm:"column:approved_by_id;type:text"`
	ApprovedAt      *string `gorm:"column:approved_at;type:text"`
	RemoteCreatedAt *string `gorm:"column:remote_created_at;type:text"`
	RemoteUpdatedAt *string `gorm:"column:remote_updated_at;type:text"`
	LastSyncedAt    *string `gorm:"column:last_synced_at;type:text;index"`
}

func (Assessment) TableName() string {
	return "assessments"
}
