// internal/cli/app.go
package edgebench

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mwiater/edgebench/internal/appconfig"
	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/storage"
	"github.com/mwiater/edgebench/internal/valueseries"
)

// openStore opens the configured repository and loads it into a Store.
// The returned closer releases the repository.
func openStore() (*benchmark.Store, io.Closer, error) {
	cfg := GetConfig()
	if cfg == nil {
		return nil, nil, errors.New("configuration is not initialized")
	}
	storeCfg := cfg.Store
	storeCfg.Path = cfg.StorePath()
	repo, closer, err := storage.Open(storeCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open result store: %w", err)
	}
	return benchmark.NewStore(repo), closer, nil
}

// withStore runs fn against an open store and closes it afterwards.
func withStore(fn func(store *benchmark.Store) error) error {
	store, closer, err := openStore()
	if err != nil {
		return err
	}
	defer closer.Close()
	return fn(store)
}

// resolve finds an entry by id or unique id prefix.
func resolve(store *benchmark.Store, idOrPrefix string) (benchmark.ResultInfo, error) {
	ri, ok := store.Resolve(idOrPrefix)
	if !ok {
		return benchmark.ResultInfo{}, fmt.Errorf("no unique benchmark result matches %q", idOrPrefix)
	}
	return ri, nil
}

// addAggregationFlag registers --aggregation defaulting to the configured one.
func addAggregationFlag(cmd *cobra.Command) {
	cmd.Flags().String("aggregation", "", "aggregation to display (avg, median, min, max)")
}

// aggregationFlag returns the --aggregation value or the configured default.
func aggregationFlag(cmd *cobra.Command) (valueseries.Aggregation, error) {
	value, _ := cmd.Flags().GetString("aggregation")
	if value == "" {
		if cfg := GetConfig(); cfg != nil {
			value = cfg.Aggregation
		}
	}
	return valueseries.ParseAggregation(value)
}

// applyBaseline selects the --baseline entry, if given.
func applyBaseline(cmd *cobra.Command, store *benchmark.Store) error {
	value, _ := cmd.Flags().GetString("baseline")
	if value == "" {
		return nil
	}
	ri, err := resolve(store, value)
	if err != nil {
		return fmt.Errorf("baseline: %w", err)
	}
	store.SetBaseline(ri.ID)
	return nil
}

// addRunFlags registers the run-set flags shared by run and browse.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", "", "model name to benchmark")
	cmd.Flags().String("modelPath", "", "model file path passed to the executor")
	cmd.Flags().String("accelerator", "", "accelerator (cpu, gpu, npu)")
	cmd.Flags().Int("prefill", 0, "prefill tokens (16-1024)")
	cmd.Flags().Int("decode", 0, "decode tokens (16-1024)")
	cmd.Flags().Int("runs", 0, "number of runs (1-10)")
	cmd.Flags().Int("maxTokens", 0, "model token limit for prefill+decode (0 = unchecked)")
}

// runSpecFromFlags merges the run flags over the configured benchmark defaults.
func runSpecFromFlags(cmd *cobra.Command, cfg appconfig.Config) benchmark.RunSpec {
	spec := benchmark.RunSpec{
		Accelerator:   cfg.Benchmark.Accelerator,
		PrefillTokens: cfg.Benchmark.PrefillTokens,
		DecodeTokens:  cfg.Benchmark.DecodeTokens,
		Runs:          cfg.Benchmark.Runs,
		MaxTokens:     cfg.Benchmark.MaxTokens,
		AppVersion:    cfg.AppVersion,
	}
	spec.ModelName, _ = cmd.Flags().GetString("model")
	spec.ModelPath, _ = cmd.Flags().GetString("modelPath")
	if v, _ := cmd.Flags().GetString("accelerator"); v != "" {
		spec.Accelerator = v
	}
	if v, _ := cmd.Flags().GetInt("prefill"); v != 0 {
		spec.PrefillTokens = v
	}
	if v, _ := cmd.Flags().GetInt("decode"); v != 0 {
		spec.DecodeTokens = v
	}
	if v, _ := cmd.Flags().GetInt("runs"); v != 0 {
		spec.Runs = v
	}
	if v, _ := cmd.Flags().GetInt("maxTokens"); v != 0 {
		spec.MaxTokens = v
	}
	return spec
}
