package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
	"schutztat/internal/infrastructure/persistence/sqlite/model"
	"schutztat/internal/ports"
)

type SyncRunRepository struct {
	db *gorm.DB
}

var _ ports.SyncRunRepository = (*SyncRunRepository)(nil)

func NewSyncRunRepository(db *gorm.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Create(ctx context.Context, input ports.SyncRunCreate) (riskhub.SyncRun, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return riskhub.SyncRun{}, err
	}

	row := model.SyncRun{
		RunKey:     input.RunKey,
		EntityType: string(input.EntityType),
		StartedAt:  formatTimestamp(input.StartedAt),
		Status:     string(riskhub.RunRunning),
	}
	if err := db.Create(&row).Error; err != nil {
		return riskhub.SyncRun{}, errs.Wrap(err, "insert sync run")
	}
	return mapSyncRun(row), nil
}

func (r *SyncRunRepository) Finish(ctx context.Context, runID uint64, input ports.SyncRunFinish) error {
	if !input.Status.Terminal() {
		return errors.New("sync run must finish in a terminal status")
	}

	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	stats, err := json.Marshal(input.Stats)
	if err != nil {
		return errs.Wrap(err, "encode sync run stats")
	}

	var errorMessage *string
	if input.ErrorMessage != "" {
		errorMessage = &input.ErrorMessage
	}

	result := db.Model(&model.SyncRun{}).
		Where("id = ? AND status = ?", runID, string(riskhub.RunRunning)).
		Updates(map[string]any{
			"status":        string(input.Status),
			"finished_at":   formatTimestamp(input.FinishedAt),
			"created_count": input.CreatedCount,
			"updated_count": input.UpdatedCount,
			"error_message": errorMessage,
			"stats":         datatypes.JSON(stats),
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "finish sync run")
	}
	if result.RowsAffected == 0 {
		return ports.ErrRunAlreadyFinished
	}
	return nil
}

func (r *SyncRunRepository) Get(ctx context.Context, runID uint64) (riskhub.SyncRun, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return riskhub.SyncRun{}, err
	}

	var row model.SyncRun
	if err := db.Where("id = ?", runID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return riskhub.SyncRun{}, ports.ErrRecordNotFound
		}
		return riskhub.SyncRun{}, errs.Wrap(err, "query sync run")
	}
	return mapSyncRun(row), nil
}

func (r *SyncRunRepository) List(ctx context.Context, filter ports.SyncRunFilter) ([]riskhub.SyncRun, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.SyncRun{})
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", string(filter.EntityType))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.SyncRun
	if err := query.Order("id desc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query sync runs")
	}

	runs := make([]riskhub.SyncRun, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, mapSyncRun(row))
	}
	return runs, nil
}

func mapSyncRun(row model.SyncRun) riskhub.SyncRun {
	run := riskhub.SyncRun{
		ID:           row.ID,
		RunKey:       row.RunKey,
		EntityType:   riskhub.EntityType(row.EntityType),
		FinishedAt:   parseTimestampPtr(row.FinishedAt),
		CreatedCount: row.CreatedCount,
		UpdatedCount: row.UpdatedCount,
		Status:       riskhub.RunStatus(row.Status),
		ErrorMessage: derefString(row.ErrorMessage),
	}
	if started := parseTimestampPtr(&row.StartedAt); started != nil {
		run.StartedAt = *started
	}
	if len(row.Stats) > 0 {
		// Stats are informational; an unreadable blob leaves them zeroed.
		_ = json.Unmarshal(row.Stats, &run.Stats)
	}
	return run
}
