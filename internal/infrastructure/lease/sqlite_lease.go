package lease

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"schutztat/internal/errs"
	"schutztat/internal/infrastructure/persistence/sqlite/model"
	"schutztat/internal/infrastructure/persistence/sqlite/repository"
	"schutztat/internal/ports"
)

// SQLLease stores run leases in the sync_leases table so that overlapping
// invocations, even from different processes sharing one database, exclude
// each other.
type SQLLease struct {
	db  *gorm.DB
	now func() time.Time
}

var _ ports.RunLease = (*SQLLease)(nil)

func NewSQLLease(db *gorm.DB) *SQLLease {
	return &SQLLease{db: db, now: time.Now}
}

func (l *SQLLease) Acquire(ctx context.Context, key string, holder string, ttl time.Duration) (bool, error) {
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return false, errs.Wrap(err, "check context")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return false, errors.New("key is required")
	}
	if strings.TrimSpace(holder) == "" {
		return false, errors.New("holder is required")
	}
	if ttl <= 0 {
		return false, errors.New("ttl must be positive")
	}

	now := l.now().UTC()
	nowText := now.Format(repository.TimestampLayout)
	row := model.SyncLease{
		Key:       key,
		Holder:    holder,
		ExpiresAt: now.Add(ttl).Format(repository.TimestampLayout),
		UpdatedAt: nowText,
	}

	// Insert, or take over only when the current lease is ours or expired.
	result := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"holder":     row.Holder,
			"expires_at": row.ExpiresAt,
			"updated_at": row.UpdatedAt,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Or(
				clause.Eq{Column: clause.Column{Table: model.SyncLease{}.TableName(), Name: "holder"}, Value: holder},
				clause.Lte{Column: clause.Column{Table: model.SyncLease{}.TableName(), Name: "expires_at"}, Value: nowText},
			),
		}},
	}).Create(&row)
	if result.Error != nil {
		return false, errs.Wrapf(result.Error, "acquire lease %q", key)
	}
	return result.RowsAffected > 0, nil
}

func (l *SQLLease) Release(ctx context.Context, key string, holder string) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("key is required")
	}

	if err := l.db.WithContext(ctx).
		Where("key = ? AND holder = ?", key, holder).
		Delete(&model.SyncLease{}).Error; err != nil {
		return errs.Wrapf(err, "release lease %q", key)
	}
	return nil
}
