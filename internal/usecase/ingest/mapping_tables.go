package ingest

import (
	"schutztat/internal/domain/riskhub"
	"schutztat/internal/ports"
)

var AssessmentMapping = Mapping{
	Entity: riskhub.EntityAssessments,
	Fields: []FieldMap{
		{Remote: "id", Column: columnExternalID, Convert: text},
		{Remote: "tenant_id", Column: "tenant_id", Convert: text},
		{Remote: "title", Column: "title", Convert: text},
		{Remote: "description", Column: "description", Convert: text},
		{Remote: "category", Column: "category", Convert: text},
		{Remote: "status", Column: "status", Convert: assessmentStatus},
		{Remote: "site_id", Column: "site_id", Convert: text},
		{Remote: "created_by_id", Column: "created_by_id", Convert: text},
		{Remote: "approved_by_id", Column: "approved_by_id", Convert: text},
		{Remote: "approved_at", Column: "approved_at", Convert: timestamp},
		{Remote: "created_at", Column: "remote_created_at", Convert: timestamp},
		{Remote: "updated_at", Column: "remote_updated_at", Convert: timestamp},
	},
}

var HazardMapping = Mapping{
	Entity: riskhub.EntityHazards,
	Fields: []FieldMap{
		{Remote: "id", Column: columnExternalID, Convert: text},
		{Remote: "tenant_id", Column: "tenant_id", Convert: text},
		{Remote: "assessment_id", Column: "assessment_external_id", Convert: text},
		{Remote: "title", Column: "title", Convert: text},
		{Remote: "description", Column: "description", Convert: text},
		{Remote: "severity", Column: "severity", Convert: integer},
		{Remote: "probability", Column: "probability", Convert: integer},
		{Remote: "risk_score", Column: "risk_score", Convert: integer},
		{Remote: "mitigation", Column: "mitigation", Convert: text},
		{Remote: "created_at", Column: "remote_created_at", Convert: timestamp},
		{Remote: "updated_at", Column: "remote_updated_at", Convert: timestamp},
	},
	Derive: deriveRiskLevel,
}

var ActionMapping = Mapping{
	Entity: riskhub.EntityActions,
	Fields: []FieldMap{
		{Remote: "id", Column: columnExternalID, Convert: text},
		{Remote: "tenant_id", Column: "tenant_id", Convert: text},
		{Remote: "title", Column: "title", Convert: text},
		{Remote: "description", Column: "description", Convert: text},
		{Remote: "status", Column: "status", Convert: actionStatus},
		{Remote: "priority", Column: "priority", Convert: integer},
		{Remote: "due_date", Column: "due_date", Convert: date},
		{Remote: "assigned_to_id", Column: "assigned_to_id", Convert: text},
		{Remote: "assessment_id", Column: "assessment_external_id", Convert: text},
		{Remote: "hazard_id", Column: "hazard_external_id", Convert: text},
		{Remote: "completed_at", Column: "completed_at", Convert: timestamp},
		{Remote: "created_at", Column: "remote_created_at", Convert: timestamp},
		{Remote: "updated_at", Column: "remote_updated_at", Convert: timestamp},
	},
}

func MappingFor(entity riskhub.EntityType) (Mapping, bool) {
	switch entity {
	case riskhub.EntityAssessments:
		return AssessmentMapping, true
	case riskhub.EntityHazards:
		return HazardMapping, true
	case riskhub.EntityActions:
		return ActionMapping, true
	default:
		return Mapping{}, false
	}
}

// deriveRiskLevel keeps risk_level in step with risk_score. It only fires when
// risk_score is part of the write set, so a merge that leaves the score alone
// leaves the level alone too.
func deriveRiskLevel(values ports.Assignments) {
	raw, ok := values["risk_score"]
	if !ok {
		return
	}
	var score *int64
	if n, ok := raw.(int64); ok {
		score = &n
	}
	values["risk_level"] = riskhub.RiskLevelFor(score)
}
