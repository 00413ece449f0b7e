// internal/cli/publish.go
package edgebench

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/publish"
)

// publishCmd groups the sinks results can be shipped to.
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish stored results to an external sink",
}

// publishInfluxCmd implements 'publish influx'.
var publishInfluxCmd = &cobra.Command{
	Use:   "influx",
	Short: "Write stored results to InfluxDB",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return errors.New("configuration is not initialized")
		}
		target := cfg.Influx
		for flag, field := range map[string]*string{
			"url": &target.URL, "token": &target.Token, "org": &target.Org, "bucket": &target.Bucket,
		} {
			if v, _ := cmd.Flags().GetString(flag); v != "" {
				*field = v
			}
		}
		agg, err := aggregationFlag(cmd)
		if err != nil {
			return err
		}
		model, _ := cmd.Flags().GetString("model")

		sink, err := publish.NewInflux(target)
		if err != nil {
			return err
		}
		defer sink.Close()

		return withStore(func(store *benchmark.Store) error {
			store.SetAggregationAll(agg)
			n, err := sink.Publish(cmd.Context(), store.FilterByModel(model))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d results to %s (bucket %s)\n", n, target.URL, target.Bucket)
			return nil
		})
	},
}

func init() {
	publishInfluxCmd.Flags().String("url", "", "InfluxDB URL (overrides influx.url)")
	publishInfluxCmd.Flags().String("token", "", "InfluxDB token (overrides influx.token)")
	publishInfluxCmd.Flags().String("org", "", "InfluxDB organization (overrides influx.org)")
	publishInfluxCmd.Flags().String("bucket", "", "InfluxDB bucket (overrides influx.bucket)")
	publishInfluxCmd.Flags().String("model", "", "only publish results for this model")
	addAggregationFlag(publishInfluxCmd)
	publishCmd.AddCommand(publishInfluxCmd)
	rootCmd.AddCommand(publishCmd)
}
