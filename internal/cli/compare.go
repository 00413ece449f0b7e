// internal/cli/compare.go
package edgebench

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/report"
)

var (
	improvedResult  = color.New(color.FgGreen).SprintFunc()
	regressedResult = color.New(color.FgRed).SprintFunc()
)

// compareCmd implements the 'compare' command, which prints the per-metric
// change of one result against a baseline.
var compareCmd = &cobra.Command{
	Use:   "compare <id>",
	Short: "Compare a benchmark result against a baseline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		baselineID, _ := cmd.Flags().GetString("baseline")
		if baselineID == "" {
			return errors.New("--baseline is required")
		}
		agg, err := aggregationFlag(cmd)
		if err != nil {
			return err
		}

		return withStore(func(store *benchmark.Store) error {
			ri, err := resolve(store, args[0])
			if err != nil {
				return err
			}
			if err := applyBaseline(cmd, store); err != nil {
				return err
			}
			store.SetAggregationAll(agg)
			baseline, _ := store.Baseline()
			ri, _ = store.Get(ri.ID)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s) vs baseline %s (%s), %s\n",
				report.ShortID(ri.ID), ri.Result.BasicInfo.ModelName,
				report.ShortID(baseline.ID), baseline.Result.BasicInfo.ModelName, agg)
			for _, m := range benchmark.Metrics {
				cur, ok := ri.Value(m.Metric)
				if !ok {
					continue
				}
				base, _ := baseline.Value(m.Metric)
				line := fmt.Sprintf("  %-20s %10s -> %10s %s", m.Label, report.FormatValue(base), report.FormatValue(cur), m.Unit)
				if d, ok := store.Compare(ri.ID, m.Metric); ok {
					if d.Improved {
						line += " " + improvedResult(d.String())
					} else {
						line += " " + regressedResult(d.String())
					}
				}
				fmt.Fprintln(out, line)
			}
			return nil
		})
	},
}

func init() {
	compareCmd.Flags().String("baseline", "", "id (or prefix) of the baseline result")
	addAggregationFlag(compareCmd)
	rootCmd.AddCommand(compareCmd)
}
