package repository

import (
	"context"

	"gorm.io/gorm"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
	"schutztat/internal/infrastructure/persistence/sqlite/model"
	"schutztat/internal/ports"
)

// resolveChunk keeps IN lists below SQLite's bound-parameter limit.
const resolveChunk = 500

type LinkRepository struct {
	db *gorm.DB
}

var _ ports.LinkRepository = (*LinkRepository)(nil)

func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) ListPendingHazardLinks(ctx context.Context) ([]ports.PendingHazardLink, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Hazard
	if err := db.
		Select("id", "assessment_external_id").
		Where("assessment_id IS NULL").
		Where("assessment_external_id IS NOT NULL AND assessment_external_id <> ''").
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query pending hazard links")
	}

	out := make([]ports.PendingHazardLink, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.PendingHazardLink{
			HazardID:      row.ID,
			AssessmentRef: derefString(row.AssessmentExternalID),
		})
	}
	return out, nil
}

func (r *LinkRepository) ListPendingActionLinks(ctx context.Context) ([]ports.PendingActionLink, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.ActionItem
	if err := db.
		Select("id", "assessment_id", "assessment_external_id", "hazard_id", "hazard_external_id").
		Where("(assessment_id IS NULL AND assessment_external_id IS NOT NULL AND assessment_external_id <> '') " +
			"OR (hazard_id IS NULL AND hazard_external_id IS NOT NULL AND hazard_external_id <> '')").
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query pending action links")
	}

	out := make([]ports.PendingActionLink, 0, len(rows))
	for _, row := range rows {
		pending := ports.PendingActionLink{ActionID: row.ID}
		if (riskhub.ParentLink{ExternalID: derefString(row.AssessmentExternalID), LocalID: row.AssessmentID}).State() == riskhub.LinkPending {
			pending.AssessmentRef = derefString(row.AssessmentExternalID)
		}
		if (riskhub.ParentLink{ExternalID: derefString(row.HazardExternalID), LocalID: row.HazardID}).State() == riskhub.LinkPending {
			pending.HazardRef = derefString(row.HazardExternalID)
		}
		out = append(out, pending)
	}
	return out, nil
}

func (r *LinkRepository) ResolveExternalIDs(ctx context.Context, entity riskhub.EntityType, externalIDs []string) (map[string]uint64, error) {
	resolved := make(map[string]uint64, len(externalIDs))
	if len(externalIDs) == 0 {
		return resolved, nil
	}

	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	table, err := tableModel(entity)
	if err != nil {
		return nil, err
	}

	type idRow struct {
		ID         uint64
		ExternalID string
	}

	for start := 0; start < len(externalIDs); start += resolveChunk {
		end := min(start+resolveChunk, len(externalIDs))

		var rows []idRow
		if err := db.Model(table).
			Select("id", "external_id").
			Where("external_id IN ?", externalIDs[start:end]).
			Scan(&rows).Error; err != nil {
			return nil, errs.Wrapf(err, "resolve %s external ids", entity)
		}
		for _, row := range rows {
			resolved[row.ExternalID] = row.ID
		}
	}
	return resolved, nil
}

func (r *LinkRepository) SetHazardAssessment(ctx context.Context, hazardID uint64, assessmentID uint64) (bool, error) {
	return r.fillLink(ctx, &model.Hazard{}, hazardID, "assessment_id", assessmentID)
}

func (r *LinkRepository) SetActionAssessment(ctx context.Context, actionID uint64, assessmentID uint64) (bool, error) {
	return r.fillLink(ctx, &model.ActionItem{}, actionID, "assessment_id", assessmentID)
}

func (r *LinkRepository) SetActionHazard(ctx context.Context, actionID uint64, hazardID uint64) (bool, error) {
	return r.fillLink(ctx, &model.ActionItem{}, actionID, "hazard_id", hazardID)
}

// fillLink writes column only while it is still NULL.
func (r *LinkRepository) fillLink(ctx context.Context, table any, id uint64, column string, parentID uint64) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	result := db.Model(table).
		Where("id = ?", id).
		Where(column + " IS NULL").
		Update(column, parentID)
	if result.Error != nil {
		return false, errs.Wrapf(result.Error, "set %s", column)
	}
	return result.RowsAffected > 0, nil
}
