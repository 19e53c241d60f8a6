package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/infrastructure/persistence/sqlite/model"
	"schutztat/internal/ports"
)

// TimestampLayout is fixed width so that stored timestamps sort lexically.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

func dbFromContext(ctx context.Context, db *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func tableModel(entity riskhub.EntityType) (any, error) {
	switch entity {
	case riskhub.EntityAssessments:
		return &model.Assessment{}, nil
	case riskhub.EntityHazards:
		return &model.Hazard{}, nil
	case riskhub.EntityActions:
		return &model.ActionItem{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", riskhub.ErrUnknownEntity, entity)
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func parseTimestampPtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil
	}
	return &t
}

func parseDatePtr(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(riskhub.DateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

// storageValues converts mapped values into column representations: timestamps
// become fixed-width UTC text and named string types collapse to string.
func storageValues(values ports.Assignments) map[string]any {
	out := make(map[string]any, len(values))
	for column, value := range values {
		switch v := value.(type) {
		case time.Time:
			out[column] = formatTimestamp(v)
		case *time.Time:
			if v == nil {
				out[column] = nil
			} else {
				out[column] = formatTimestamp(*v)
			}
		case riskhub.AssessmentStatus:
			out[column] = string(v)
		case riskhub.ActionStatus:
			out[column] = string(v)
		case riskhub.RiskLevel:
			out[column] = string(v)
		default:
			out[column] = v
		}
	}
	return out
}
