// internal/cli/list.go
package edgebench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/report"
)

// listCmd implements the 'list' command, which prints stored results as a table.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored benchmark results",
	RunE: func(cmd *cobra.Command, args []string) error {
		agg, err := aggregationFlag(cmd)
		if err != nil {
			return err
		}
		model, _ := cmd.Flags().GetString("model")

		return withStore(func(store *benchmark.Store) error {
			if err := applyBaseline(cmd, store); err != nil {
				return err
			}
			store.SetAggregationAll(agg)

			results := store.FilterByModel(model)
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No benchmark results found.")
				return nil
			}
			var baseline *benchmark.ResultInfo
			if b, ok := store.Baseline(); ok {
				baseline = &b
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.ResultsTable(results, baseline))
			return nil
		})
	},
}

func init() {
	listCmd.Flags().String("model", "", "only list results for this model")
	listCmd.Flags().String("baseline", "", "id (or prefix) of the result to compare against")
	addAggregationFlag(listCmd)
	rootCmd.AddCommand(listCmd)
}
