// internal/appconfig/appconfig_test.go
package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoad verifies that a valid file is loaded with defaults filled in and
// that malformed or missing files are reported.
func TestLoad(t *testing.T) {
	path := writeConfig(t, `{
        "dataDir": "out",
        "benchmark": {"accelerator": "GPU", "runs": 5},
        "executor": {"driver": "http", "endpoint": "http://localhost:8090/run", "timeout": 30}
    }`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.Benchmark.Accelerator != "gpu" {
		t.Fatalf("expected accelerator to be normalised to gpu, got %q", cfg.Benchmark.Accelerator)
	}
	if cfg.Benchmark.Runs != 5 {
		t.Fatalf("expected 5 runs, got %d", cfg.Benchmark.Runs)
	}
	if cfg.Benchmark.PrefillTokens != DefaultPrefillTokens || cfg.Benchmark.DecodeTokens != DefaultDecodeTokens {
		t.Fatalf("expected default token counts, got %+v", cfg.Benchmark)
	}
	if cfg.ExecutorTimeout() != 30*time.Second {
		t.Fatalf("expected 30s executor timeout, got %v", cfg.ExecutorTimeout())
	}
	if cfg.StorePath() != filepath.Join("out", "results.json") {
		t.Fatalf("unexpected store path %q", cfg.StorePath())
	}
	if cfg.ConfigPath != path {
		t.Fatalf("expected ConfigPath %q, got %q", path, cfg.ConfigPath)
	}

	if _, err := Load(writeConfig(t, `{ "store": [`)); err == nil {
		t.Fatal("Load() with invalid JSON should have failed")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "nonexistent.json")); err == nil {
		t.Fatal("Load() with nonexistent file should have failed")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Store.Driver != "json" || cfg.Executor.Driver != "simulated" {
		t.Fatalf("unexpected default drivers: %+v %+v", cfg.Store, cfg.Executor)
	}
	if cfg.Benchmark.Runs != DefaultRuns || cfg.Benchmark.Accelerator != DefaultAccelerator {
		t.Fatalf("unexpected benchmark defaults: %+v", cfg.Benchmark)
	}
	if cfg.LogFilePath() != filepath.Join("edgebenchData", "edgebench.log") {
		t.Fatalf("unexpected log path %q", cfg.LogFilePath())
	}
	if cfg.ExecutorTimeout() != 600*time.Second {
		t.Fatalf("unexpected default timeout %v", cfg.ExecutorTimeout())
	}

	cfg.Store.Driver = "badger"
	if cfg.StorePath() != filepath.Join("edgebenchData", "results.badger") {
		t.Fatalf("unexpected badger path %q", cfg.StorePath())
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"runs too high":     func(c *Config) { c.Benchmark.Runs = 11 },
		"prefill too small": func(c *Config) { c.Benchmark.PrefillTokens = 8 },
		"bad accelerator":   func(c *Config) { c.Benchmark.Accelerator = "tpu" },
		"bad store":         func(c *Config) { c.Store.Driver = "sqlite" },
		"bad aggregation":   func(c *Config) { c.Aggregation = "p99" },
		"http no endpoint":  func(c *Config) { c.Executor.Driver = "http" },
		"token budget":      func(c *Config) { c.Benchmark.MaxTokens = 300 },
		"influx no org":     func(c *Config) { c.Influx.URL = "http://localhost:8086"; c.Influx.Bucket = "b" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
		if !strings.HasPrefix(err.Error(), "invalid configuration") {
			t.Fatalf("%s: unexpected error text %q", name, err)
		}
	}
}
