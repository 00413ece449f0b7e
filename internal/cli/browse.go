// internal/cli/browse.go
package edgebench

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/executor"
	"github.com/mwiater/edgebench/internal/tui"
)

// browseCmd implements the 'browse' command, which opens the interactive results browser.
var browseCmd = &cobra.Command{
	Use:         "browse",
	Short:       "Browse, compare and run benchmarks interactively",
	Annotations: map[string]string{"fullscreen": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return errors.New("configuration is not initialized")
		}
		agg, err := aggregationFlag(cmd)
		if err != nil {
			return err
		}
		exec, err := executor.New(cfg.Executor)
		if err != nil {
			return err
		}

		return withStore(func(store *benchmark.Store) error {
			store.SetAggregationAll(agg)
			return tui.Run(cmd.Context(), tui.Options{
				Store: store,
				Runner: &benchmark.Runner{
					Store:     store,
					Executor:  exec,
					CacheRoot: cfg.CacheRoot(),
				},
				Spec: runSpecFromFlags(cmd, *cfg),
			})
		})
	},
}

func init() {
	addRunFlags(browseCmd)
	addAggregationFlag(browseCmd)
	rootCmd.AddCommand(browseCmd)
}
