package reconcile

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/caqueta-electoral/divipola/internal/output"
	"github.com/caqueta-electoral/divipola/internal/reconcile"
	"github.com/caqueta-electoral/divipola/internal/runtime"
)

// Command creates the reconcile command.
func Command(rt *runtime.Context) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "reconcile <census.csv>",
		Short: "Assign zones and voter counts from the census reference",
		Long: `Match every census row to its polling place by normalized municipality and
polling place name, create missing zones, correct zone assignments and update
capacities and municipal populations. Unmatched keys are reported, never
created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}

			store, err := rt.Store()
			if err != nil {
				return err
			}

			r := reconcile.NewReconciler(store, rt.Settings.Jurisdiction, rt.Module("reconcile"), rt.Metrics.Hierarchy)
			report, err := r.ReconcileFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if err := output.Write(cmd.OutOrStdout(), f, report, func(w io.Writer) error {
				return writeText(w, report)
			}); err != nil {
				return err
			}

			if report.Failed > 0 {
				return &output.ExitError{Code: 1, Err: fmt.Errorf("%d rows could not be stored", report.Failed)}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", output.FormatText, "Output format: text, json, yaml")

	return cmd
}

func writeText(w io.Writer, r *reconcile.Report) error {
	if err := output.Table(w, [][2]string{
		{"run", r.RunID},
		{"department", r.Department},
		{"duration", r.Duration},
		{"applied", strconv.Itoa(r.Applied)},
		{"unchanged", strconv.Itoa(r.Unchanged)},
		{"unmatched", strconv.Itoa(r.Unmatched)},
		{"zones created", strconv.Itoa(r.ZonesCreated)},
		{"zones corrected", strconv.Itoa(r.ZonesCorrected)},
		{"populations updated", strconv.Itoa(r.PopulationsUpdated)},
		{"invalid rows", strconv.Itoa(r.Invalid)},
		{"ignored rows", strconv.Itoa(r.Ignored)},
		{"failed rows", strconv.Itoa(r.Failed)},
		{"writes", strconv.Itoa(r.Writes)},
	}); err != nil {
		return err
	}

	for _, key := range r.UnmatchedKeys {
		if _, err := fmt.Fprintf(w, "  unmatched %s\n", key); err != nil {
			return err
		}
	}
	return output.Issues(w, r.InvalidRows, r.FailedRows)
}
