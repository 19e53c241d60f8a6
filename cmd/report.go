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

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Read the local mirror",
}

type assessmentRow struct {
	ExternalID   string `json:"external_id" yaml:"external_id"`
	Title        string `json:"title" yaml:"title"`
	Status       string `json:"status" yaml:"status"`
	Category     string `json:"category,omitempty" yaml:"category,omitempty"`
	HazardCount  int    `json:"hazard_count" yaml:"hazard_count"`
	ActionCount  int    `json:"action_count" yaml:"action_count"`
	LastSyncedAt string `json:"last_synced_at" yaml:"last_synced_at"`
}

var reportAssessmentsCmd = &cobra.Command{
	Use:   "assessments",
	Short: "List assessments with hazard and action counts",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *ingest.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		format, err := outputFormat(mustString(cmd, "format"))
		if err != nil {
			return err
		}
		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}
		items, err := svc.ListAssessments(ctx, mustInt(cmd, "limit"))
		if err != nil {
			return errs.Wrap(err, "list assessments")
		}

		rows := make([]assessmentRow, 0, len(items))
		for _, a := range items {
			rows = append(rows, assessmentRow{
				ExternalID:   a.ExternalID,
				Title:        a.Title,
				Status:       string(a.Status),
				Category:     a.Category,
				HazardCount:  a.HazardCount,
				ActionCount:  a.ActionCount,
				LastSyncedAt: formatTime(a.LastSyncedAt),
			})
		}
		if format != formatTable {
			return writeStructured(cmd.OutOrStdout(), format, rows)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "external_id\ttitle\tstatus\thazards\tactions\tlast_synced_at"); err != nil {
			return errs.Wrap(err, "write assessments header")
		}
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				r.ExternalID, r.Title, r.Status, r.HazardCount, r.ActionCount, r.LastSyncedAt,
			); err != nil {
				return errs.Wrap(err, "write assessments row")
			}
		}
		return w.Flush()
	}),
}

type hazardRow struct {
	ExternalID  string `json:"external_id" yaml:"external_id"`
	Title       string `json:"title" yaml:"title"`
	Assessment  string `json:"assessment,omitempty" yaml:"assessment,omitempty"`
	Severity    string `json:"severity,omitempty" yaml:"severity,omitempty"`
	Probability string `json:"probability,omitempty" yaml:"probability,omitempty"`
	RiskScore   string `json:"risk_score,omitempty" yaml:"risk_score,omitempty"`
	RiskLevel   string `json:"risk_level" yaml:"risk_level"`
}

var reportHazardsCmd = &cobra.Command{
	Use:   "hazards",
	Short: "List hazards by descending risk score",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *ingest.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		format, err := outputFormat(mustString(cmd, "format"))
		if err != nil {
			return err
		}
		minLevel := riskhub.RiskLevel(mustString(cmd, "min-level"))
		switch minLevel {
		case "", riskhub.RiskLow, riskhub.RiskMedium, riskhub.RiskHigh, riskhub.RiskCritical:
		default:
			return fmt.Errorf("unknown risk level %q", minLevel)
		}

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}
		items, err := svc.ListHazards(ctx, ports.HazardFilter{
			AssessmentExternalID: mustString(cmd, "assessment"),
			MinRiskLevel:         minLevel,
			Limit:                mustInt(cmd, "limit"),
		})
		if err != nil {
			return errs.Wrap(err, "list hazards")
		}

		rows := make([]hazardRow, 0, len(items))
		for _, h := range items {
			rows = append(rows, hazardRow{
				ExternalID:  h.ExternalID,
				Title:       h.Title,
				Assessment:  formatLink(h.Assessment),
				Severity:    formatInt(h.Severity),
				Probability: formatInt(h.Probability),
				RiskScore:   formatInt(h.RiskScore),
				RiskLevel:   string(h.RiskLevel),
			})
		}
		if format != formatTable {
			return writeStructured(cmd.OutOrStdout(), format, rows)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "external_id\ttitle\tassessment\tscore\tlevel"); err != nil {
			return errs.Wrap(err, "write hazards header")
		}
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.ExternalID, r.Title, r.Assessment, r.RiskScore, r.RiskLevel,
			); err != nil {
				return errs.Wrap(err, "write hazards row")
			}
		}
		return w.Flush()
	}),
}

type actionRow struct {
	ExternalID string `json:"external_id" yaml:"external_id"`
	Title      string `json:"title" yaml:"title"`
	Status     string `json:"status" yaml:"status"`
	Priority   string `json:"priority,omitempty" yaml:"priority,omitempty"`
	DueDate    string `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Overdue    bool   `json:"is_overdue" yaml:"is_overdue"`
	Assessment string `json:"assessment,omitempty" yaml:"assessment,omitempty"`
	Hazard     string `json:"hazard,omitempty" yaml:"hazard,omitempty"`
}

var reportActionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List action items by due date with their overdue flag",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *ingest.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		format, err := outputFormat(mustString(cmd, "format"))
		if err != nil {
			return err
		}
		filter := ports.ActionItemFilter{
			AssessmentExternalID: mustString(cmd, "assessment"),
			Limit:                mustInt(cmd, "limit"),
		}
		if raw := mustString(cmd, "status"); raw != "" {
			status, err := riskhub.ParseActionStatus(raw)
			if err != nil {
				return err
			}
			filter.Status = status
		}
		filter.Overdue, _ = cmd.Flags().GetBool("overdue")

		if err := app.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}
		items, err := svc.ListActionItems(ctx, filter)
		if err != nil {
			return errs.Wrap(err, "list action items")
		}

		rows := make([]actionRow, 0, len(items))
		for _, a := range items {
			rows = append(rows, actionRow{
				ExternalID: a.ExternalID,
				Title:      a.Title,
				Status:     string(a.Status),
				Priority:   formatInt(a.Priority),
				DueDate:    formatDate(a.DueDate),
				Overdue:    a.Overdue,
				Assessment: formatLink(a.Assessment),
				Hazard:     formatLink(a.Hazard),
			})
		}
		if format != formatTable {
			return writeStructured(cmd.OutOrStdout(), format, rows)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(w, "external_id\ttitle\tstatus\tpriority\tdue_date\toverdue"); err != nil {
			return errs.Wrap(err, "write actions header")
		}
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
				r.ExternalID, r.Title, r.Status, r.Priority, r.DueDate, r.Overdue,
			); err != nil {
				return errs.Wrap(err, "write actions row")
			}
		}
		return w.Flush()
	}),
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportAssessmentsCmd, reportHazardsCmd, reportActionsCmd)

	for _, c := range []*cobra.Command{reportAssessmentsCmd, reportHazardsCmd, reportActionsCmd} {
		c.Flags().Int("limit", 50, "Maximum number of rows")
		c.Flags().String("format", formatTable, "Output format (table|json|yaml)")
	}
	reportHazardsCmd.Flags().String("assessment", "", "Only hazards of this assessment external id")
	reportHazardsCmd.Flags().String("min-level", "", "Only hazards at or above this risk level")
	reportActionsCmd.Flags().String("assessment", "", "Only actions of this assessment external id")
	reportActionsCmd.Flags().String("status", "", "Only actions with this status")
	reportActionsCmd.Flags().Bool("overdue", false, "Only overdue actions")
}
