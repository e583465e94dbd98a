package load

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/caqueta-electoral/divipola/internal/allocation"
	"github.com/caqueta-electoral/divipola/internal/census"
	"github.com/caqueta-electoral/divipola/internal/output"
	"github.com/caqueta-electoral/divipola/internal/runtime"
)

// Command creates the load command, which builds the department's
// municipalities, polling places and tables from the census reference.
func Command(rt *runtime.Context) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "load <census.csv>",
		Short: "Load municipalities and polling places from the census reference",
		Long: `Create the configured department, its municipalities and polling places
from the census reference file, and provision the tables each polling place
needs. Loading the same file again creates nothing.`,
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

			allocator := allocation.NewAllocator(store, allocation.ConfigFromSettings(rt.Settings), rt.Module("allocation"), rt.Metrics.Hierarchy)
			loader := census.NewLoader(store, rt.Settings.Jurisdiction, allocator, rt.Module("census"), rt.Metrics.Hierarchy)

			report, err := loader.LoadFile(cmd.Context(), args[0])
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

func writeText(w io.Writer, r *census.LoadReport) error {
	if err := output.Table(w, [][2]string{
		{"department", r.Department},
		{"municipalities created", strconv.Itoa(r.MunicipalitiesCreated)},
		{"polling places created", strconv.Itoa(r.PollingPlacesCreated)},
		{"polling places existing", strconv.Itoa(r.PollingPlacesExisting)},
		{"tables created", strconv.Itoa(r.TablesCreated)},
		{"invalid rows", strconv.Itoa(r.Invalid)},
		{"ignored rows", strconv.Itoa(r.Ignored)},
		{"failed rows", strconv.Itoa(r.Failed)},
	}); err != nil {
		return err
	}
	return output.Issues(w, r.InvalidRows, r.FailedRows)
}
