package validate

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/caqueta-electoral/divipola/internal/coherence"
	"github.com/caqueta-electoral/divipola/internal/logger"
	"github.com/caqueta-electoral/divipola/internal/notification"
	"github.com/caqueta-electoral/divipola/internal/output"
	"github.com/caqueta-electoral/divipola/internal/runtime"
)

// ExitViolations is the exit status when the hierarchy has violations.
const ExitViolations = 2

// Command creates the validate command.
func Command(rt *runtime.Context) *cobra.Command {
	var (
		municipality uint
		format       string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the hierarchy for orphans and capacity violations",
		Long: `Run the read-only coherence checks over the whole hierarchy or a single
municipality. The command exits with status 2 when any violation is found
and, with notifications enabled, alerts the configured services.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}

			store, err := rt.Store()
			if err != nil {
				return err
			}

			scope := coherence.Whole()
			if municipality != 0 {
				scope = coherence.Municipality(municipality)
			}

			v := coherence.NewValidator(store, rt.Settings.Allocation.MaxVotersPerTable, rt.Module("coherence"), rt.Metrics.Hierarchy)
			report, err := v.Validate(cmd.Context(), scope)
			if err != nil {
				return err
			}

			if err := output.Write(cmd.OutOrStdout(), f, report, func(w io.Writer) error {
				return writeText(w, report)
			}); err != nil {
				return err
			}

			if !report.Clean() {
				notify(cmd, rt, report)
				return &output.ExitError{Code: ExitViolations, Err: fmt.Errorf("%d coherence violations in %s", report.Total(), report.Scope)}
			}
			return nil
		},
	}

	cmd.Flags().UintVarP(&municipality, "municipality", "m", 0, "Limit the checks to one municipality")
	cmd.Flags().StringVarP(&format, "format", "f", output.FormatText, "Output format: text, json, yaml")

	return cmd
}

// notify alerts operators about violations. Delivery problems are logged and
// do not change the exit status.
func notify(cmd *cobra.Command, rt *runtime.Context, report *coherence.ViolationReport) {
	log := rt.Module("notification")

	sender, err := notification.New(rt.Settings.Notification, log)
	if err != nil {
		log.Warn("notifications misconfigured", logger.Error(err))
		return
	}
	if sender == nil {
		return
	}

	alert := notification.ViolationAlert(rt.Settings.Jurisdiction.DepartmentName, report)
	if err := sender.Send(cmd.Context(), alert); err != nil {
		log.Warn("violation alert not delivered", logger.Error(err))
	}
}

func writeText(w io.Writer, r *coherence.ViolationReport) error {
	rows := [][2]string{
		{"scope", r.Scope},
		{"polling places checked", strconv.Itoa(r.PollingPlaces)},
		{"tables checked", strconv.Itoa(r.Tables)},
	}
	for _, kind := range coherence.Kinds {
		rows = append(rows, [2]string{string(kind), strconv.Itoa(len(r.ByKind(kind)))})
	}
	if err := output.Table(w, rows); err != nil {
		return err
	}

	for _, kind := range coherence.Kinds {
		for _, v := range r.ByKind(kind) {
			if _, err := fmt.Fprintf(w, "  %s %s %d: %s\n", v.Kind, v.EntityType, v.EntityID, v.Detail); err != nil {
				return err
			}
		}
	}
	return nil
}
