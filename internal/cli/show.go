// internal/cli/show.go
package edgebench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/report"
)

// showCmd implements the 'show' command, which prints one result in full.
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one benchmark result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agg, err := aggregationFlag(cmd)
		if err != nil {
			return err
		}
		dump, _ := cmd.Flags().GetBool("dump")

		return withStore(func(store *benchmark.Store) error {
			ri, err := resolve(store, args[0])
			if err != nil {
				return err
			}
			if err := applyBaseline(cmd, store); err != nil {
				return err
			}
			store.SetAggregation(ri.ID, agg)
			store.SetExpanded(ri.ID, true)
			ri, _ = store.Get(ri.ID)

			if dump {
				return report.Dump(cmd.OutOrStdout(), ri.Result)
			}
			var baseline *benchmark.ResultInfo
			if b, ok := store.Baseline(); ok {
				baseline = &b
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Detail(ri, baseline))
			return nil
		})
	},
}

func init() {
	showCmd.Flags().String("baseline", "", "id (or prefix) of the result to compare against")
	showCmd.Flags().Bool("dump", false, "pretty-print the raw stored record")
	addAggregationFlag(showCmd)
	rootCmd.AddCommand(showCmd)
}
