package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"schutztat/internal/bootstrap"
	"schutztat/internal/bootstrap/logging"
	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
	"schutztat/internal/ports"
	"schutztat/internal/usecase/ingest"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the sync run audit trail",
}

type runRow struct {
	ID           uint64           `json:"id" yaml:"id"`
	RunKey       string           `json:"run_key" yaml:"run_key"`
	EntityType   string           `json:"entity_type" yaml:"entity_type"`
	Status       string           `json:"status" yaml:"status"`
	StartedAt    string           `json:"started_at" yaml:"started_at"`
	FinishedAt   string           `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	CreatedCount int              `json:"created_count" yaml:"created_count"`
	UpdatedCount int              `json:"updated_count" yaml:"updated_count"`
	ErrorMessage string           `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	Stats        riskhub.RunStats `json:"stats" yaml:"stats"`
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sync runs, newest first",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *ingest.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		format, err := outputFormat(mustString(cmd, "format"))
		if err != nil {
			return err
		}
		filter := ports.SyncRunFilter{
			Status: riskhub.RunStatus(mustString(cmd, "status")),
			Limit:  mustInt(cmd, "limit"),
		}
		if raw := mustString(cmd, "entity"); raw != "" {
			entity, err := riskhub.ParseEntityType(raw)
			if err != nil {
				return err
			}
			filter.EntityType = entity
		}

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}
		runs, err := svc.ListSyncRuns(ctx, filter)
		if err != nil {
			logging.Error(ctx, "list sync runs failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list sync runs")
		}

		rows := make([]runRow, 0, len(runs))
		for _, run := range runs {
			rows = append(rows, runRow{
				ID:           run.ID,
				RunKey:       run.RunKey,
				EntityType:   string(run.EntityType),
				Status:       string(run.Status),
				StartedAt:    formatTime(&run.StartedAt),
				FinishedAt:   formatTime(run.FinishedAt),
				CreatedCount: run.CreatedCount,
				UpdatedCount: run.UpdatedCount,
				ErrorMessage: run.ErrorMessage,
				Stats:        run.Stats,
			})
		}
		if format != formatTable {
			return writeStructured(cmd.OutOrStdout(), format, rows)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "id\tentity\tstatus\tstarted_at\tfinished_at\tcreated\tupdated\terror"); err != nil {
			return errs.Wrap(err, "write runs header")
		}
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
				r.ID, r.EntityType, r.Status, r.StartedAt, r.FinishedAt, r.CreatedCount, r.UpdatedCount, firstLine(r.ErrorMessage),
			); err != nil {
				return errs.Wrap(err, "write runs row")
			}
		}
		return w.Flush()
	}),
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsListCmd.Flags().String("entity", "", "Only runs of this entity type")
	runsListCmd.Flags().String("status", "", "Only runs with this status (running|done|error)")
	runsListCmd.Flags().Int("limit", 20, "Maximum number of runs")
	runsListCmd.Flags().String("format", formatTable, "Output format (table|json|yaml)")
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func mustInt(cmd *cobra.Command, name string) int {
	v, _ := cmd.Flags().GetInt(name)
	return v
}
