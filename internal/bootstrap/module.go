package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"schutztat/internal/bootstrap/config"
	"schutztat/internal/bootstrap/database"
	"schutztat/internal/bootstrap/logging"
	leaseinfra "schutztat/internal/infrastructure/lease"
	metricsinfra "schutztat/internal/infrastructure/metrics"
	sqliterepo "schutztat/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "schutztat/internal/infrastructure/persistence/sqlite/uow"
	"schutztat/internal/infrastructure/remote"
	"schutztat/internal/infrastructure/secrets"
	"schutztat/internal/ports"
	"schutztat/internal/usecase/ingest"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideLogger),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewRecordRepository,
			fx.As(new(ports.RecordRepository)),
		),
		fx.Annotate(
			sqliterepo.NewLinkRepository,
			fx.As(new(ports.LinkRepository)),
		),
		fx.Annotate(
			sqliterepo.NewSyncRunRepository,
			fx.As(new(ports.SyncRunRepository)),
		),
		fx.Annotate(
			sqliterepo.NewReadRepository,
			fx.As(new(ports.ReadRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			leaseinfra.NewSQLLease,
			fx.As(new(ports.RunLease)),
		),
	),
	fx.Provide(metricsinfra.NewPrometheus),
	fx.Provide(func(p *metricsinfra.Prometheus) ports.SyncMetrics { return p }),
	fx.Provide(remote.NewSourceFactory),
	fx.Provide(provideSecrets),
	fx.Provide(ingest.NewService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideLogger(lc fx.Lifecycle, cfg config.Config) (*slog.Logger, error) {
	logger, closer, err := logging.New(os.Stderr, cfg.Log.Options())
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return closer.Close()
		},
	})

	return logger.With(slog.String("app", cfg.App.Name)), nil
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB, m *metricsinfra.Prometheus) *App {
	return &App{
		Config:  cfg,
		DB:      db,
		Metrics: m,
	}
}

func provideSecrets(cfg config.Config) ports.SecretSource {
	return secrets.NewAWSSecrets(cfg.Remote.AWSRegion)
}
