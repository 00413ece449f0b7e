// internal/cli/root_test.go
package edgebench

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/logging"
	"github.com/mwiater/edgebench/internal/storage"
	"github.com/mwiater/edgebench/internal/valueseries"
)

// resetFlags restores every flag of cmd and its children to its default so
// executions of the shared root command do not leak into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	b := new(bytes.Buffer)
	rootCmd.SetOut(b)
	rootCmd.SetErr(b)
	rootCmd.SetArgs(args)
	_, err := rootCmd.ExecuteC()
	t.Cleanup(func() { _ = logging.Close() })
	return b.String(), err
}

func writeConfig(t *testing.T, extra map[string]any) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := map[string]any{
		"dataDir":  dir,
		"executor": map[string]any{"driver": "simulated", "seed": 7},
		"benchmark": map[string]any{
			"runs":          2,
			"prefillTokens": 128,
			"decodeTokens":  64,
		},
	}
	for k, v := range extra {
		cfg[k] = v
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path, dir
}

func storedResults(t *testing.T, dir string) []benchmark.Result {
	t.Helper()
	results, err := storage.NewJSONFile(filepath.Join(dir, "results.json")).GetAll()
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	return results
}

// TestRootCmd verifies running the root command with an invalid subcommand reports an error.
func TestRootCmd(t *testing.T) {
	out, err := execute(t, "nonexistent")
	if err == nil {
		t.Error("Expected an error for a nonexistent command, but got none")
	}
	expected := "unknown command \"nonexistent\" for \"edgebench\""
	if !strings.Contains(out, expected) {
		t.Errorf("Expected output to contain '%s', but got '%s'", expected, out)
	}
}

func TestMissingExplicitConfigFails(t *testing.T) {
	if _, err := execute(t, "list", "-c", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestInvalidConfigFails(t *testing.T) {
	cfg, _ := writeConfig(t, map[string]any{"aggregation": "mode"})
	if _, err := execute(t, "list", "-c", cfg); err == nil {
		t.Fatal("expected validation to reject the config")
	}
}

// TestBenchmarkLifecycle runs two run-sets and exercises every read command on them.
func TestBenchmarkLifecycle(t *testing.T) {
	cfg, dir := writeConfig(t, nil)

	out, err := execute(t, "run", "-c", cfg, "--model", "gemma", "--runs", "3")
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "run 3/3 done") || !strings.Contains(out, "stored result") {
		t.Fatalf("unexpected run output:\n%s", out)
	}

	if out, err := execute(t, "run", "-c", cfg, "--model", "qwen", "--accelerator", "gpu"); err != nil {
		t.Fatalf("second run failed: %v\n%s", err, out)
	}

	results := storedResults(t, dir)
	if len(results) != 2 {
		t.Fatalf("expected 2 stored results, got %d", len(results))
	}
	qwen, gemma := results[0], results[1]
	if qwen.BasicInfo.ModelName != "qwen" || qwen.BasicInfo.NumberOfRuns != 2 || qwen.BasicInfo.Accelerator != "gpu" {
		t.Fatalf("unexpected newest result: %+v", qwen.BasicInfo)
	}
	if gemma.BasicInfo.NumberOfRuns != 3 || gemma.BasicInfo.PrefillTokens != 128 {
		t.Fatalf("unexpected older result: %+v", gemma.BasicInfo)
	}
	if s, _ := gemma.Series(benchmark.MetricSteadyInitTime); s.Count() != 2 {
		t.Fatalf("expected two steady init samples, got %d", s.Count())
	}

	out, err = execute(t, "list", "-c", cfg)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{"gemma", "qwen", "Decode speed"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "list", "-c", cfg, "--model", "qwen", "--baseline", gemma.ID)
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if strings.Contains(out, "gemma") || !strings.Contains(out, "%") {
		t.Errorf("filtered list should show only qwen with deltas:\n%s", out)
	}

	out, err = execute(t, "compare", "-c", cfg, qwen.ID[:8], "--baseline", gemma.ID, "--aggregation", "median")
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !strings.Contains(out, "vs baseline") || !strings.Contains(out, "median") || !strings.Contains(out, "%") {
		t.Errorf("unexpected compare output:\n%s", out)
	}

	out, err = execute(t, "show", "-c", cfg, gemma.ID)
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "Basic info") || !strings.Contains(out, "Steady init time") {
		t.Errorf("unexpected show output:\n%s", out)
	}

	out, err = execute(t, "show", "-c", cfg, gemma.ID, "--dump")
	if err != nil || !strings.Contains(out, "gemma") {
		t.Errorf("show --dump failed: %v\n%s", err, out)
	}

	out, err = execute(t, "export", "-c", cfg, "--all")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 3 || !strings.HasPrefix(lines[0], "start time (ms)") {
		t.Errorf("unexpected export output:\n%s", out)
	}

	csvPath := filepath.Join(dir, "one.csv")
	if _, err := execute(t, "export", "-c", cfg, gemma.ID, "--out", csvPath); err != nil {
		t.Fatalf("export to file failed: %v", err)
	}
	if data, err := os.ReadFile(csvPath); err != nil || !strings.Contains(string(data), "gemma") {
		t.Errorf("export file missing result: %v", err)
	}

	if _, err := execute(t, "export", "-c", cfg, gemma.ID, "--out", filepath.Join(dir, "missing", "one.csv")); err == nil {
		t.Error("export into a missing directory should fail")
	}

	if _, err := execute(t, "export", "-c", cfg); err == nil {
		t.Error("export without id or --all should fail")
	}

	chartPath := filepath.Join(dir, "decode.png")
	out, err = execute(t, "chart", "-c", cfg, gemma.ID, "--metric", "decode-speed", "--out", chartPath)
	if err != nil {
		t.Fatalf("chart failed: %v\n%s", err, out)
	}
	if info, err := os.Stat(chartPath); err != nil || info.Size() == 0 {
		t.Errorf("chart not written: %v", err)
	}
	if _, err := execute(t, "chart", "-c", cfg, gemma.ID, "--metric", "tokens"); err == nil {
		t.Error("unknown metric should fail")
	}

	if _, err := execute(t, "show", "-c", cfg, "does-not-exist"); err == nil {
		t.Error("show of a missing id should fail")
	}

	if _, err := execute(t, "delete", "-c", cfg, gemma.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	remaining := storedResults(t, dir)
	if len(remaining) != 1 || remaining[0].ID != qwen.ID {
		t.Fatalf("unexpected results after delete: %+v", remaining)
	}
}

func TestWriteCSVFileReportsWriteErrors(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	results := []benchmark.Result{{ID: "a", BasicInfo: benchmark.BasicInfo{ModelName: "gemma"}}}
	if err := writeCSVFile("/dev/full", results, valueseries.Avg); err == nil {
		t.Fatal("expected an error writing to a full device")
	}
}

func TestRunRejectsInvalidSpec(t *testing.T) {
	cfg, dir := writeConfig(t, nil)
	if _, err := execute(t, "run", "-c", cfg); err == nil {
		t.Error("run without --model should fail")
	}
	if _, err := execute(t, "run", "-c", cfg, "--model", "m", "--runs", "11"); err == nil {
		t.Error("run with too many runs should fail")
	}
	if _, err := execute(t, "run", "-c", cfg, "--model", "m", "--maxTokens", "100"); err == nil {
		t.Error("run over the token budget should fail")
	}
	if got := storedResults(t, dir); len(got) != 0 {
		t.Errorf("invalid runs must not store results, got %d", len(got))
	}
}

func TestBadgerStoreFlag(t *testing.T) {
	cfg, dir := writeConfig(t, nil)
	if out, err := execute(t, "run", "-c", cfg, "--store", "badger", "--model", "gemma", "--runs", "1"); err != nil {
		t.Fatalf("run with badger store failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(filepath.Join(dir, "results.badger")); err != nil {
		t.Fatalf("badger store not created: %v", err)
	}
	out, err := execute(t, "list", "-c", cfg, "--store", "badger")
	if err != nil || !strings.Contains(out, "gemma") {
		t.Fatalf("list from badger failed: %v\n%s", err, out)
	}
}

func TestVersionCmd(t *testing.T) {
	cfg, _ := writeConfig(t, nil)
	out, err := execute(t, "version", "-c", cfg)
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "edgebench ") {
		t.Errorf("unexpected version output %q", out)
	}
}
