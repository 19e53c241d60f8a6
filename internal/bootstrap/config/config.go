package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"schutztat/internal/bootstrap/logging"
	"schutztat/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type RemoteConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	APIKeySecret string        `mapstructure:"api_key_secret"`
	AWSRegion    string        `mapstructure:"aws_region"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PageSize     int           `mapstructure:"page_size"`
}

type SyncConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	LeaseTTL    time.Duration `mapstructure:"lease_ttl"`
	MergePolicy string        `mapstructure:"merge_policy"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Options converts the log section for the logging package.
func (c LogConfig) Options() logging.Options {
	return logging.Options{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SCHUTZTAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Remote.PageSize <= 0 {
		return Config{}, errors.New("remote.page_size must be positive")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("remote_base_url", cfg.Remote.BaseURL),
		slog.Bool("remote_api_key_set", cfg.Remote.APIKey != ""),
		slog.String("remote_api_key_secret", cfg.Remote.APIKeySecret),
	)

	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can bind it during
// Unmarshal even without a config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "schutztat-sync")
	v.SetDefault("app.env", "local")

	v.SetDefault("remote.base_url", "https://schutztat.iil.pet/api/v1")
	v.SetDefault("remote.api_key", "")
	v.SetDefault("remote.api_key_secret", "")
	v.SetDefault("remote.aws_region", "")
	v.SetDefault("remote.timeout", 30*time.Second)
	v.SetDefault("remote.page_size", 100)

	v.SetDefault("sync.interval", 15*time.Minute)
	v.SetDefault("sync.lease_ttl", 10*time.Minute)
	v.SetDefault("sync.merge_policy", "replace_all")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/schutztat.sqlite")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("metrics.addr", "")
}
