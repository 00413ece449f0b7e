// internal/benchmark/runner.go
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mwiater/edgebench/internal/logging"
)

// Accelerator is the hardware backend a model runs on.
type Accelerator string

const (
	AcceleratorCPU Accelerator = "cpu"
	AcceleratorGPU Accelerator = "gpu"
	AcceleratorNPU Accelerator = "npu"
)

// ParseAccelerator maps a label to an Accelerator. Unknown labels fall back to CPU.
func ParseAccelerator(s string) Accelerator {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gpu":
		return AcceleratorGPU
	case "npu":
		return AcceleratorNPU
	default:
		return AcceleratorCPU
	}
}

// RunConfig is what an Executor needs for one model execution.
type RunConfig struct {
	ModelName     string      `json:"model"`
	ModelPath     string      `json:"modelPath,omitempty"`
	Accelerator   Accelerator `json:"accelerator"`
	PrefillTokens int         `json:"prefillTokens"`
	DecodeTokens  int         `json:"decodeTokens"`
	CacheDir      string      `json:"cacheDir,omitempty"`
}

// RunSample is the raw output of one model execution.
type RunSample struct {
	InitTimeSeconds         float64 `json:"initTimeSeconds"`
	PrefillTokensPerSecond  float64 `json:"prefillTokensPerSecond"`
	DecodeTokensPerSecond   float64 `json:"decodeTokensPerSecond"`
	TimeToFirstTokenSeconds float64 `json:"timeToFirstTokenSeconds"`
}

// Executor runs a model once and reports its timings.
type Executor interface {
	RunOnce(ctx context.Context, cfg RunConfig) (RunSample, error)
}

// RunSpec describes one user-initiated run-set.
type RunSpec struct {
	ModelName     string `validate:"required"`
	ModelPath     string
	Accelerator   string
	PrefillTokens int `validate:"min=16,max=1024"`
	DecodeTokens  int `validate:"min=16,max=1024"`
	Runs          int `validate:"min=1,max=10"`
	MaxTokens     int `validate:"min=0"`
	AppVersion    string
}

var specValidator = validator.New()

// Validate checks ranges and the optional prefill+decode token budget.
func (s RunSpec) Validate() error {
	if err := specValidator.Struct(s); err != nil {
		return fmt.Errorf("invalid run spec: %w", err)
	}
	if s.MaxTokens > 0 && s.PrefillTokens+s.DecodeTokens > s.MaxTokens {
		return fmt.Errorf("invalid run spec: prefill+decode tokens (%d) exceed the model limit (%d)",
			s.PrefillTokens+s.DecodeTokens, s.MaxTokens)
	}
	return nil
}

// ProgressFunc is told after every completed run.
type ProgressFunc func(completed, total int)

// Runner executes run-sets sequentially and records their results in a Store.
type Runner struct {
	Store     *Store
	Executor  Executor
	CacheRoot string
	Progress  ProgressFunc
}

// Run executes spec.Runs model runs one after another and stores the
// aggregated result. A cancelled context or a failing run aborts the run-set
// and nothing is stored.
func (r *Runner) Run(ctx context.Context, spec RunSpec) (string, error) {
	if r.Store == nil || r.Executor == nil {
		return "", errors.New("runner requires a store and an executor")
	}
	if err := spec.Validate(); err != nil {
		return "", err
	}
	accelerator := ParseAccelerator(spec.Accelerator)

	r.Store.SetRunning(true)
	defer r.Store.SetRunning(false)
	r.Store.SetRunProgress(0)
	r.Store.SetTotalRunCount(spec.Runs)
	r.Store.SetShowResultsViewer(true)

	logging.LogEvent("Running benchmark:\n- model: %s\n- accelerator: %s\n- prefill tokens: %d\n- decode tokens: %d\n- runs: %d",
		spec.ModelName, accelerator, spec.PrefillTokens, spec.DecodeTokens, spec.Runs)

	startMs := now().UnixMilli()
	cacheDir, cleanup := prepareCacheDir(r.CacheRoot, startMs)
	defer cleanup()
	logging.LogEvent("Using benchmark cache dir: %s", cacheDir)

	var (
		prefillSpeeds     []float64
		decodeSpeeds      []float64
		timesToFirstToken []float64
		firstInitTime     float64
		steadyInitTimes   []float64
	)
	cfg := RunConfig{
		ModelName:     spec.ModelName,
		ModelPath:     spec.ModelPath,
		Accelerator:   accelerator,
		PrefillTokens: spec.PrefillTokens,
		DecodeTokens:  spec.DecodeTokens,
		CacheDir:      cacheDir,
	}
	for i := 0; i < spec.Runs; i++ {
		if err := ctx.Err(); err != nil {
			logging.LogWarn("Benchmark cancelled before run #%d: %v", i, err)
			return "", fmt.Errorf("benchmark cancelled after %d of %d runs: %w", i, spec.Runs, err)
		}
		logging.LogEvent("Start running #%d...", i)
		sample, err := r.Executor.RunOnce(ctx, cfg)
		if err != nil {
			logging.LogError("Benchmark run #%d failed: %v", i, err)
			return "", fmt.Errorf("run %d of %d: %w", i+1, spec.Runs, err)
		}
		logging.LogEvent("Done #%d", i)

		initTimeMs := sample.InitTimeSeconds * 1000.0
		if i == 0 {
			firstInitTime = initTimeMs
		} else {
			steadyInitTimes = append(steadyInitTimes, initTimeMs)
		}
		prefillSpeeds = append(prefillSpeeds, sample.PrefillTokensPerSecond)
		decodeSpeeds = append(decodeSpeeds, sample.DecodeTokensPerSecond)
		timesToFirstToken = append(timesToFirstToken, sample.TimeToFirstTokenSeconds)

		r.Store.SetRunProgress(i + 1)
		if r.Progress != nil {
			r.Progress(i+1, spec.Runs)
		}
	}
	endMs := now().UnixMilli()

	info := BasicInfo{
		StartMs:       startMs,
		EndMs:         endMs,
		ModelName:     spec.ModelName,
		Accelerator:   string(accelerator),
		PrefillTokens: spec.PrefillTokens,
		DecodeTokens:  spec.DecodeTokens,
		NumberOfRuns:  spec.Runs,
		AppVersion:    spec.AppVersion,
	}
	samples := map[Metric][]float64{
		MetricPrefillSpeed:     prefillSpeeds,
		MetricDecodeSpeed:      decodeSpeeds,
		MetricTimeToFirstToken: timesToFirstToken,
		MetricFirstInitTime:    {firstInitTime},
		MetricSteadyInitTime:   steadyInitTimes,
	}
	id := r.Store.AddResult(info, samples)
	r.Store.CollapseAll()
	r.Store.SetExpanded(id, true)
	return id, nil
}

// prepareCacheDir creates a scratch directory for one run-set under root.
// When that fails, root itself is used and left in place.
func prepareCacheDir(root string, stamp int64) (string, func()) {
	if strings.TrimSpace(root) == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, fmt.Sprintf("benchmark_%d", stamp))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logging.LogError("Failed to create benchmark cache directory %s: %v", dir, err)
		return root, func() {}
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			logging.LogWarn("Failed to clean up benchmark cache dir %s: %v", dir, err)
			return
		}
		logging.LogEvent("Cleaned up benchmark cache dir: %s", dir)
	}
}
