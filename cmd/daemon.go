package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"schutztat/internal/bootstrap"
	"schutztat/internal/bootstrap/logging"
	"schutztat/internal/errs"
	"schutztat/internal/infrastructure/metrics"
	"schutztat/internal/usecase/ingest"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Sync all entity types on a fixed interval until interrupted",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *ingest.Service) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		settings, err := syncSettings(cmd, app)
		if err != nil {
			return err
		}
		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		interval := app.Config.Sync.Interval
		if flagInterval, _ := cmd.Flags().GetDuration("interval"); flagInterval > 0 {
			interval = flagInterval
		}

		if addr := app.Config.Metrics.Addr; addr != "" {
			server := &http.Server{
				Addr:              addr,
				Handler:           metrics.NewRouter(app.Metrics),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				logging.Info(ctx, "metrics server listening", slog.String("addr", addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logging.Error(ctx, "metrics server failed", slog.Any("err", errs.Loggable(err)))
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()
		}

		return svc.RunSchedule(ctx, ingest.ScheduleInput{
			Interval: interval,
			Settings: settings,
		})
	}),
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	addSyncFlags(daemonCmd)
	daemonCmd.Flags().Duration("interval", 0, "Override sync.interval")
}
