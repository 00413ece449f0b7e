// internal/cli/export.go
package edgebench

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/logging"
	"github.com/mwiater/edgebench/internal/valueseries"
)

// exportCmd implements the 'export' command, which writes results as CSV.
var exportCmd = &cobra.Command{
	Use:   "export [id]",
	Short: "Export benchmark results as CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) == 1) {
			return errors.New("pass either a result id or --all")
		}
		agg, err := aggregationFlag(cmd)
		if err != nil {
			return err
		}
		outPath, _ := cmd.Flags().GetString("out")
		model, _ := cmd.Flags().GetString("model")

		return withStore(func(store *benchmark.Store) error {
			var results []benchmark.Result
			if all {
				for _, ri := range store.FilterByModel(model) {
					results = append(results, ri.Result)
				}
			} else {
				ri, err := resolve(store, args[0])
				if err != nil {
					return err
				}
				results = []benchmark.Result{ri.Result}
			}

			if outPath == "" {
				return benchmark.WriteCSV(cmd.OutOrStdout(), results, agg)
			}
			if err := writeCSVFile(outPath, results, agg); err != nil {
				return err
			}
			logging.LogEvent("Exported %d results to %s", len(results), outPath)
			return nil
		})
	},
}

// writeCSVFile writes results to path. Write errors win over close errors.
func writeCSVFile(path string, results []benchmark.Result, agg valueseries.Aggregation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := benchmark.WriteCSV(f, results, agg); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func init() {
	exportCmd.Flags().Bool("all", false, "export every stored result")
	exportCmd.Flags().String("model", "", "with --all, only export results for this model")
	exportCmd.Flags().String("out", "", "write CSV to this file instead of stdout")
	addAggregationFlag(exportCmd)
	rootCmd.AddCommand(exportCmd)
}
