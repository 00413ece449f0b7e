// internal/cli/chart.go
package edgebench

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/report"
)

// chartCmd implements the 'chart' command, which plots the per-run samples of one metric.
var chartCmd = &cobra.Command{
	Use:   "chart <id>",
	Short: "Render a chart of one metric's per-run samples",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		metricName, _ := cmd.Flags().GetString("metric")
		metric, ok := benchmark.ParseMetric(metricName)
		if !ok {
			return fmt.Errorf("unknown metric %q", metricName)
		}
		agg, err := aggregationFlag(cmd)
		if err != nil {
			return err
		}
		outPath, _ := cmd.Flags().GetString("out")

		return withStore(func(store *benchmark.Store) error {
			ri, err := resolve(store, args[0])
			if err != nil {
				return err
			}
			store.SetAggregation(ri.ID, agg)
			ri, _ = store.Get(ri.ID)

			if outPath == "" {
				outPath = filepath.Join(GetConfig().ChartsDir(), report.ChartFileName(ri, metric))
			}
			if err := report.WriteChart(outPath, ri, metric); err != nil {
				return err
			}
			series, _ := ri.Result.Series(metric)
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\nWrote %s\n", metric.Info().Label, report.Sparkline(series.Values), outPath)
			return nil
		})
	},
}

func init() {
	chartCmd.Flags().String("metric", string(benchmark.MetricDecodeSpeed), "metric to plot")
	chartCmd.Flags().String("out", "", "output image path (png, svg or pdf)")
	addAggregationFlag(chartCmd)
	rootCmd.AddCommand(chartCmd)
}
