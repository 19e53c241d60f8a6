package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"schutztat/internal/bootstrap"
	"schutztat/internal/bootstrap/logging"
	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
	"schutztat/internal/usecase/ingest"
)

var syncCmd = &cobra.Command{
	Use:       "sync <assessments|hazards|actions|all>",
	Short:     "Run one sync of an entity type, or of all of them in parent-first order",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"assessments", "hazards", "actions", "all"},
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *ingest.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		settings, err := syncSettings(cmd, app)
		if err != nil {
			return err
		}
		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		var results []ingest.RunResult
		if cmd.Flags().Arg(0) == "all" {
			results, err = svc.SyncAll(ctx, settings)
		} else {
			entity, parseErr := riskhub.ParseEntityType(cmd.Flags().Arg(0))
			if parseErr != nil {
				return parseErr
			}
			var result ingest.RunResult
			result, err = svc.Run(ctx, ingest.RunInput{Entity: entity, Settings: settings})
			results = append(results, result)
		}
		if writeErr := writeRunResults(cmd.OutOrStdout(), results); writeErr != nil {
			return writeErr
		}
		if err != nil {
			logging.Error(ctx, "sync failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "sync")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(syncCmd)
	addSyncFlags(syncCmd)
}

func addSyncFlags(cmd *cobra.Command) {
	cmd.Flags().Int("page-size", 0, "Override remote.page_size for this invocation")
	cmd.Flags().String("merge-policy", "", "Override sync.merge_policy (replace_all|merge_non_null)")
}

func syncSettings(cmd *cobra.Command, app *bootstrap.App) (ingest.Settings, error) {
	if raw, _ := cmd.Flags().GetString("merge-policy"); raw != "" {
		app.Config.Sync.MergePolicy = raw
	}
	settings, err := app.SyncSettings()
	if err != nil {
		return ingest.Settings{}, err
	}
	if pageSize, _ := cmd.Flags().GetInt("page-size"); pageSize > 0 {
		settings.PageSize = pageSize
	}
	return settings, nil
}

func writeRunResults(out io.Writer, results []ingest.RunResult) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "entity\trun_key\tstatus\tcreated\tupdated\tpending_links\tnote"); err != nil {
		return errs.Wrap(err, "write sync header")
	}
	for _, r := range results {
		status := string(r.Status)
		note := r.ErrorMessage
		if r.Skipped {
			status = "skipped"
			note = r.SkipReason
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.Entity, r.RunKey, status, r.Created, r.Updated, r.Stats.PendingLinks, firstLine(note),
		); err != nil {
			return errs.Wrap(err, "write sync row")
		}
	}
	return w.Flush()
}
