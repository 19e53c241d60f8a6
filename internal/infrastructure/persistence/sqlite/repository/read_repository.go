package repository

import (
	"context"

	"gorm.io/gorm"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
	"schutztat/internal/infrastructure/persistence/sqlite/model"
	"schutztat/internal/ports"
)

type ReadRepository struct {
	db *gorm.DB
}

var _ ports.ReadRepository = (*ReadRepository)(nil)

func NewReadRepository(db *gorm.DB) *ReadRepository {
	return &ReadRepository{db: db}
}

func (r *ReadRepository) ListAssessments(ctx context.Context, limit int) ([]ports.AssessmentSummary, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Assessment{}).Order("last_synced_at desc").Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.Assessment
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query assessments")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	hazardCounts, err := countByParent(db, &model.Hazard{}, ids)
	if err != nil {
		return nil, errs.Wrap(err, "count hazards")
	}
	actionCounts, err := countByParent(db, &model.ActionItem{}, ids)
	if err != nil {
		return nil, errs.Wrap(err, "count actions")
	}

	out := make([]ports.AssessmentSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.AssessmentSummary{
			Assessment:  mapAssessment(row),
			HazardCount: hazardCounts[row.ID],
			ActionCount: actionCounts[row.ID],
		})
	}
	return out, nil
}

func (r *ReadRepository) ListHazards(ctx context.Context, filter ports.HazardFilter) ([]riskhub.Hazard, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Hazard{})
	if filter.AssessmentExternalID != "" {
		query = query.Where("assessment_external_id = ?", filter.AssessmentExternalID)
	}
	if levels := levelsAtLeast(filter.MinRiskLevel); len(levels) > 0 {
		query = query.Where("risk_level IN ?", levels)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.Hazard
	if err := query.
		Order("risk_score IS NULL").
		Order("risk_score desc").
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query hazards")
	}

	out := make([]riskhub.Hazard, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapHazard(row))
	}
	return out, nil
}

func (r *ReadRepository) ListActionItems(ctx context.Context, filter ports.ActionItemFilter) ([]riskhub.ActionItem, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.ActionItem{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.AssessmentExternalID != "" {
		query = query.Where("assessment_external_id = ?", filter.AssessmentExternalID)
	}
	if filter.Overdue {
		active := make([]string, 0, 2)
		for _, status := range riskhub.ActiveActionStatuses() {
			active = append(active, string(status))
		}
		query = query.
			Where("due_date IS NOT NULL AND due_date < ?", filter.OverdueOn.UTC().Format(riskhub.DateLayout)).
			Where("status IN ?", active)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.ActionItem
	if err := query.
		Order("due_date IS NULL").
		Order("due_date asc").
		Order("priority desc").
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query action items")
	}

	out := make([]riskhub.ActionItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapActionItem(row))
	}
	return out, nil
}

func countByParent(db *gorm.DB, table any, parentIDs []uint64) (map[uint64]int, error) {
	type countRow struct {
		AssessmentID uint64
		Total        int
	}

	var rows []countRow
	if err := db.Model(table).
		Select("assessment_id, count(*) as total").
		Where("assessment_id IN ?", parentIDs).
		Group("assessment_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint64]int, len(rows))
	for _, row := range rows {
		counts[row.AssessmentID] = row.Total
	}
	return counts, nil
}

func levelsAtLeast(floor riskhub.RiskLevel) []string {
	ordered := []riskhub.RiskLevel{riskhub.RiskLow, riskhub.RiskMedium, riskhub.RiskHigh, riskhub.RiskCritical}
	for i, level := range ordered {
		if level != floor {
			continue
		}
		out := make([]string, 0, len(ordered)-i)
		for _, l := range ordered[i:] {
			out = append(out, string(l))
		}
		return out
	}
	return nil
}

func mapAssessment(row model.Assessment) riskhub.Assessment {
	return riskhub.Assessment{
		ID:              row.ID,
		ExternalID:      row.ExternalID,
		TenantID:        derefString(row.TenantID),
		Title:           row.Title,
		Description:     derefString(row.Description),
		Category:        derefString(row.Category),
		Status:          riskhub.AssessmentStatus(derefString(row.Status)),
		SiteID:          derefString(row.SiteID),
		CreatedByID:     derefString(row.CreatedByID),
		ApprovedByID:    derefString(row.ApprovedByID),
		ApprovedAt:      parseTimestampPtr(row.ApprovedAt),
		RemoteCreatedAt: parseTimestampPtr(row.RemoteCreatedAt),
		RemoteUpdatedAt: parseTimestampPtr(row.RemoteUpdatedAt),
		LastSyncedAt:    parseTimestampPtr(row.LastSyncedAt),
	}
}

func mapHazard(row model.Hazard) riskhub.Hazard {
	return riskhub.Hazard{
		ID:         row.ID,
		ExternalID: row.ExternalID,
		TenantID:   derefString(row.TenantID),
		Assessment: riskhub.ParentLink{
			ExternalID: derefString(row.AssessmentExternalID),
			LocalID:    row.AssessmentID,
		},
		Title:           row.Title,
		Description:     derefString(row.Description),
		Severity:        row.Severity,
		Probability:     row.Probability,
		RiskScore:       row.RiskScore,
		RiskLevel:       riskhub.RiskLevel(row.RiskLevel),
		Mitigation:      derefString(row.Mitigation),
		RemoteCreatedAt: parseTimestampPtr(row.RemoteCreatedAt),
		RemoteUpdatedAt: parseTimestampPtr(row.RemoteUpdatedAt),
		LastSyncedAt:    parseTimestampPtr(row.LastSyncedAt),
	}
}

func mapActionItem(row model.ActionItem) riskhub.ActionItem {
	return riskhub.ActionItem{
		ID:         row.ID,
		ExternalID: row.ExternalID,
		TenantID:   derefString(row.TenantID),
		Assessment: riskhub.ParentLink{
			ExternalID: derefString(row.AssessmentExternalID),
			LocalID:    row.AssessmentID,
		},
		Hazard: riskhub.ParentLink{
			ExternalID: derefString(row.HazardExternalID),
			LocalID:    row.HazardID,
		},
		Title:           row.Title,
		Description:     derefString(row.Description),
		Status:          riskhub.ActionStatus(derefString(row.Status)),
		Priority:        row.Priority,
		DueDate:         parseDatePtr(row.DueDate),
		AssignedToID:    derefString(row.AssignedToID),
		CompletedAt:     parseTimestampPtr(row.CompletedAt),
		RemoteCreatedAt: parseTimestampPtr(row.RemoteCreatedAt),
		RemoteUpdatedAt: parseTimestampPtr(row.RemoteUpdatedAt),
		LastSyncedAt:    parseTimestampPtr(row.LastSyncedAt),
	}
}
