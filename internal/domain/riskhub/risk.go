package riskhub

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevelFor derives the level from the remote risk score. A missing score
// counts as zero.
func RiskLevelFor(score *int64) RiskLevel {
	var s int64
	if score != nil {
		s = *score
	}

	switch {
	case s >= 15:
		return RiskCritical
	case s >= 9:
		return RiskHigh
	case s >= 4:
		return RiskMedium
	default:
		return RiskLow
	}
}
