package model

type SyncLease struct {
	Key       string `gorm:"column:key;type:text;primaryKey"`
	Holder    string `gorm:"column:holder;type:text;not null"`
	ExpiresAt string `gorm:"column:expires_at;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (SyncLease) TableName() string {
	return "sync_leases"
}
