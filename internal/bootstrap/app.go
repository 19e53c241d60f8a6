package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"schutztat/internal/bootstrap/config"
	"schutztat/internal/bootstrap/logging"
	"schutztat/internal/errs"
	"schutztat/internal/infrastructure/metrics"
	"schutztat/internal/infrastructure/persistence/sqlite/model"
	"schutztat/internal/ports"
	"schutztat/internal/usecase/ingest"
)

type App struct {
	Config  config.Config
	DB      *gorm.DB
	Metrics *metrics.Prometheus
}

func (a *App) InitSchema(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.app"))
	logging.Info(logCtx, "start schema migration")

	if err := a.DB.WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		return errs.Wrap(err, "auto migrate schema")
	}

	logging.Info(logCtx, "schema migration completed")
	return nil
}

// SyncSettings assembles the explicit per-invocation settings from config.
func (a *App) SyncSettings() (ingest.Settings, error) {
	policy, err := ingest.ParseMergePolicy(a.Config.Sync.MergePolicy)
	if err != nil {
		return ingest.Settings{}, errs.Wrap(err, "parse sync.merge_policy")
	}
	return ingest.Settings{
		Remote: ports.RemoteSettings{
			BaseURL: a.Config.Remote.BaseURL,
			APIKey:  a.Config.Remote.APIKey,
			Timeout: a.Config.Remote.Timeout,
		},
		APIKeySecret: a.Config.Remote.APIKeySecret,
		PageSize:     a.Config.Remote.PageSize,
		Policy:       policy,
		LeaseTTL:     a.Config.Sync.LeaseTTL,
	}, nil
}
