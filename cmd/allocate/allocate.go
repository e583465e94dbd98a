package allocate

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/caqueta-electoral/divipola/internal/allocation"
	"github.com/caqueta-electoral/divipola/internal/output"
	"github.com/caqueta-electoral/divipola/internal/runtime"
)

type options struct {
	pollingPlace uint
	municipality uint
	provision    bool
	format       string
}

// placeReport is the output of a single polling place run.
type placeReport struct {
	Provisioned *allocation.ProvisionResult `json:"provisioned,omitempty" yaml:"provisioned,omitempty"`
	Result      *allocation.Result          `json:"result" yaml:"result"`
}

// Command creates the allocate command.
func Command(rt *runtime.Context) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Distribute polling place capacity across active tables",
		Long: `Spread each polling place's voter capacity evenly across its active tables.
Without flags every active polling place is allocated; --polling-place and
--municipality narrow the run. --provision creates missing tables first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			if opts.pollingPlace != 0 && opts.municipality != 0 {
				return fmt.Errorf("--polling-place and --municipality are mutually exclusive")
			}

			store, err := rt.Store()
			if err != nil {
				return err
			}
			allocator := allocation.NewAllocator(store, allocation.ConfigFromSettings(rt.Settings), rt.Module("allocation"), rt.Metrics.Hierarchy)

			w := cmd.OutOrStdout()
			if opts.pollingPlace != 0 {
				report, err := allocatePlace(cmd, allocator, opts)
				if err != nil {
					return err
				}
				return output.Write(w, f, report, func(w io.Writer) error {
					return writePlace(w, report)
				})
			}

			batchOpts := allocation.BatchOptions{Provision: opts.provision}
			if opts.municipality != 0 {
				batchOpts.MunicipalityID = &opts.municipality
			}
			batch, err := allocator.AllocateAll(cmd.Context(), batchOpts)
			if err != nil {
				return err
			}
			if err := output.Write(w, f, batch, func(w io.Writer) error {
				return writeBatch(w, batch)
			}); err != nil {
				return err
			}
			if len(batch.Failed) > 0 {
				return &output.ExitError{Code: 1, Err: fmt.Errorf("%d polling places failed", len(batch.Failed))}
			}
			return nil
		},
	}

	cmd.Flags().UintVarP(&opts.pollingPlace, "polling-place", "p", 0, "Allocate a single polling place")
	cmd.Flags().UintVarP(&opts.municipality, "municipality", "m", 0, "Allocate the polling places of one municipality")
	cmd.Flags().BoolVar(&opts.provision, "provision", false, "Create missing tables before allocating")
	cmd.Flags().StringVarP(&opts.format, "format", "f", output.FormatText, "Output format: text, json, yaml")

	return cmd
}

func allocatePlace(cmd *cobra.Command, allocator *allocation.Allocator, opts *options) (*placeReport, error) {
	report := &placeReport{}
	if opts.provision {
		p, err := allocator.Provision(cmd.Context(), opts.pollingPlace)
		if err != nil {
			return nil, err
		}
		report.Provisioned = p
	}

	res, err := allocator.Allocate(cmd.Context(), opts.pollingPlace)
	if err != nil {
		return nil, err
	}
	report.Result = res
	return report, nil
}

func writePlace(w io.Writer, r *placeReport) error {
	if p := r.Provisioned; p != nil {
		if _, err := fmt.Fprintf(w, "provisioned %d tables (%d existing, %d required)\n", p.Created, p.Existing, p.Required); err != nil {
			return err
		}
	}

	res := r.Result
	if err := output.Table(w, [][2]string{
		{"polling place", strconv.FormatUint(uint64(res.PollingPlaceID), 10)},
		{"total voters", strconv.FormatInt(res.Total, 10)},
		{"zone kind", string(res.ZoneKind)},
		{"tables", strconv.Itoa(len(res.Tables))},
		{"writes", strconv.Itoa(res.Writes)},
	}); err != nil {
		return err
	}

	if res.NeedsMoreTables {
		if _, err := fmt.Fprintf(w, "  %d voters have no active table\n", res.Uncovered); err != nil {
			return err
		}
	}
	for _, id := range res.OverCapacity {
		if _, err := fmt.Fprintf(w, "  table %d exceeds the per-table maximum\n", id); err != nil {
			return err
		}
	}
	return nil
}

func writeBatch(w io.Writer, b *allocation.BatchResult) error {
	if err := output.Table(w, [][2]string{
		{"polling places", strconv.Itoa(len(b.Results))},
		{"allocated", strconv.Itoa(b.Allocated)},
		{"unchanged", strconv.Itoa(b.Unchanged)},
		{"provisioned", strconv.Itoa(len(b.Provisioned))},
		{"needing tables", strconv.Itoa(b.NeedsMoreTables)},
		{"over capacity", strconv.Itoa(b.OverCapacity)},
		{"failed", strconv.Itoa(len(b.Failed))},
		{"writes", strconv.Itoa(b.Writes)},
	}); err != nil {
		return err
	}

	for _, failure := range b.Failed {
		if _, err := fmt.Fprintf(w, "  polling place %d (%s): %s\n", failure.PollingPlaceID, failure.Category, failure.Error); err != nil {
			return err
		}
	}
	return nil
}
