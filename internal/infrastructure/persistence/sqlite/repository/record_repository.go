package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
	"schutztat/internal/ports"
)

type RecordRepository struct {
	db *gorm.DB
}

var _ ports.RecordRepository = (*RecordRepository)(nil)

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) FindIDByExternalID(ctx context.Context, entity riskhub.EntityType, externalID string) (uint64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}
	table, err := tableModel(entity)
	if err != nil {
		return 0, err
	}

	var ids []uint64
	if err := db.Model(table).
		Where("external_id = ?", externalID).
		Limit(1).
		Pluck("id", &ids).Error; err != nil {
		return 0, errs.Wrapf(err, "query %s by external id", entity)
	}
	if len(ids) == 0 {
		return 0, ports.ErrRecordNotFound
	}
	return ids[0], nil
}

func (r *RecordRepository) Create(ctx context.Context, entity riskhub.EntityType, values ports.Assignments) (uint64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}
	table, err := tableModel(entity)
	if err != nil {
		return 0, err
	}

	externalID, _ := values["external_id"].(string)
	if strings.TrimSpace(externalID) == "" {
		return 0, riskhub.ErrMissingExternalID
	}

	if err := db.Model(table).Create(storageValues(values)).Error; err != nil {
		return 0, errs.Wrapf(err, "insert %s", entity)
	}

	// Map creates do not report the generated key back, so read it by the
	// unique external id instead.
	id, err := r.FindIDByExternalID(ctx, entity, externalID)
	if err != nil {
		if errors.Is(err, ports.ErrRecordNotFound) {
			return 0, errs.Wrapf(err, "read back %s %q", entity, externalID)
		}
		return 0, err
	}
	return id, nil
}

func (r *RecordRepository) Update(ctx context.Context, entity riskhub.EntityType, id uint64, values ports.Assignments) error {
	if len(values) == 0 {
		return nil
	}

	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}
	table, err := tableModel(entity)
	if err != nil {
		return err
	}

	result := db.Model(table).Where("id = ?", id).Updates(storageValues(values))
	if result.Error != nil {
		return errs.Wrapf(result.Error, "update %s %d", entity, id)
	}
	if result.RowsAffected == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}
