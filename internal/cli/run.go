// internal/cli/run.go
package edgebench

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/executor"
	"github.com/mwiater/edgebench/internal/report"
)

var (
	progressLabel = color.New(color.FgCyan).SprintFunc()
	successLabel  = color.New(color.FgGreen).SprintFunc()
)

// runCmd implements the 'run' command, which executes one run-set and stores its result.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a benchmark run-set and store the result",
	Long:  `Run a model several times with the given prefill/decode token counts, aggregate the timings and store them as one result.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return errors.New("configuration is not initialized")
		}
		spec := runSpecFromFlags(cmd, *cfg)
		if spec.ModelName == "" {
			return errors.New("--model is required")
		}

		exec, err := executor.New(cfg.Executor)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return withStore(func(store *benchmark.Store) error {
			out := cmd.OutOrStdout()
			runner := &benchmark.Runner{
				Store:     store,
				Executor:  exec,
				CacheRoot: cfg.CacheRoot(),
				Progress: func(done, total int) {
					fmt.Fprintf(out, "%s run %d/%d done\n", progressLabel("[edgebench]"), done, total)
				},
			}
			id, err := runner.Run(ctx, spec)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return fmt.Errorf("benchmark cancelled; nothing was stored: %w", err)
				}
				return err
			}
			fmt.Fprintf(out, "%s stored result %s\n\n", successLabel("[edgebench]"), id)

			ri, _ := store.Get(id)
			fmt.Fprint(out, report.Detail(ri, nil))
			return nil
		})
	},
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
