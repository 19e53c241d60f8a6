package model

type Hazard struct {
	ID                   uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	ExternalID           string  `gorm:"column:external_id;type:text;not null;uniqueIndex"`
	TenantID             *string `gorm:"column:tenant_id;type:text;index"`
	AssessmentID         *uint64 `gorm:"column:assessment_id;index"`
	AssessmentExternalID *string `gorm:"column:assessment_external_id;type:text;index"`
	Title                string  `gorm:"column:title;type:text;not null"`
	Description          *string `gorm:"column:description;type:text"`
	Severity             *int64  `gorm:"column:severity"`
	Probability          *int64  `gorm:"column:probability"`
	RiskScore            *int64  `gorm:"column:risk_score"`
	RiskLevel            string  `gorm:"column:risk_level;type:text;not null;default:low"`
	Mitigation           *string `gorm:"column:mitigation;type:text"`
	RemoteCreatedAt      *string `gorm:"column:remote_created_at;type:text"`
	RemoteUpdatedAt      *string `gorm:"column:remote_updated_at;type:text"`
	LastSyncedAt         *string `gorm:"column:last_synced_at;type:text"`
}

func (Hazard) TableName() string {
	return "hazards"
}
