// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultDataDir holds stored results, charts and benchmark cache directories.
	defaultDataDir = "edgebenchData"
	// defaultExecutorTimeout bounds a single model execution over HTTP.
	defaultExecutorTimeout = 600 * time.Second

	DefaultPrefillTokens = 256
	DefaultDecodeTokens  = 256
	DefaultRuns          = 3
	DefaultAccelerator   = "cpu"
)

// Config represents the top-level application configuration.
type Config struct {
	DataDir     string    `mapstructure:"dataDir" json:"dataDir"`
	LogFile     string    `mapstructure:"logFile" json:"logFile,omitempty"`
	Debug       bool      `mapstructure:"debug" json:"debug"`
	AppVersion  string    `mapstructure:"appVersion" json:"appVersion,omitempty"`
	Aggregation string    `mapstructure:"aggregation" json:"aggregation,omitempty" validate:"omitempty,oneof=avg median min max"`
	Store       Store     `mapstructure:"store" json:"store"`
	Benchmark   Benchmark `mapstructure:"benchmark" json:"benchmark"`
	Executor    Executor  `mapstructure:"executor" json:"executor"`
	Influx      Influx    `mapstructure:"influx" json:"influx"`
	ConfigPath  string    `mapstructure:"-" json:"-"`
}

// Store selects and locates the durable result repository.
type Store struct {
	Driver string `mapstructure:"driver" json:"driver" validate:"oneof=json badger"`
	Path   string `mapstructure:"path" json:"path,omitempty"`
}

// Benchmark holds run-set defaults used when flags are omitted.
type Benchmark struct {
	Accelerator   string `mapstructure:"accelerator" json:"accelerator" validate:"oneof=cpu gpu npu"`
	PrefillTokens int    `mapstructure:"prefillTokens" json:"prefillTokens" validate:"min=16,max=1024"`
	DecodeTokens  int    `mapstructure:"decodeTokens" json:"decodeTokens" validate:"min=16,max=1024"`
	Runs          int    `mapstructure:"runs" json:"runs" validate:"min=1,max=10"`
	MaxTokens     int    `mapstructure:"maxTokens" json:"maxTokens,omitempty" validate:"min=0"`
	CacheDir      string `mapstructure:"cacheDir" json:"cacheDir,omitempty"`
}

// Executor selects the model-execution backend.
type Executor struct {
	Driver         string `mapstructure:"driver" json:"driver" validate:"oneof=simulated http"`
	Endpoint       string `mapstructure:"endpoint" json:"endpoint,omitempty" validate:"omitempty,url"`
	TimeoutSeconds int    `mapstructure:"timeout" json:"timeout,omitempty" validate:"min=0"`
	Seed           int64  `mapstructure:"seed" json:"seed,omitempty"`
}

// Influx describes the optional InfluxDB publishing target.
type Influx struct {
	URL    string `mapstructure:"url" json:"url,omitempty" validate:"omitempty,url"`
	Token  string `mapstructure:"token" json:"token,omitempty"`
	Org    string `mapstructure:"org" json:"org,omitempty" validate:"required_with=URL"`
	Bucket string `mapstructure:"bucket" json:"bucket,omitempty" validate:"required_with=URL"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = defaultDataDir
	}
	if strings.TrimSpace(c.Aggregation) == "" {
		c.Aggregation = "avg"
	}
	if strings.TrimSpace(c.AppVersion) == "" {
		c.AppVersion = "dev"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "json"
	}
	if c.Benchmark.Accelerator == "" {
		c.Benchmark.Accelerator = DefaultAccelerator
	}
	c.Benchmark.Accelerator = strings.ToLower(c.Benchmark.Accelerator)
	if c.Benchmark.PrefillTokens == 0 {
		c.Benchmark.PrefillTokens = DefaultPrefillTokens
	}
	if c.Benchmark.DecodeTokens == 0 {
		c.Benchmark.DecodeTokens = DefaultDecodeTokens
	}
	if c.Benchmark.Runs == 0 {
		c.Benchmark.Runs = DefaultRuns
	}
	if c.Executor.Driver == "" {
		c.Executor.Driver = "simulated"
	}
	if c.Executor.TimeoutSeconds <= 0 {
		c.Executor.TimeoutSeconds = int(defaultExecutorTimeout.Seconds())
	}
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Executor.Driver == "http" && strings.TrimSpace(c.Executor.Endpoint) == "" {
		return errors.New("invalid configuration: executor.endpoint is required for the http driver")
	}
	if limit := c.Benchmark.MaxTokens; limit > 0 && c.Benchmark.PrefillTokens+c.Benchmark.DecodeTokens > limit {
		return fmt.Errorf("invalid configuration: prefill+decode tokens (%d) exceed maxTokens (%d)",
			c.Benchmark.PrefillTokens+c.Benchmark.DecodeTokens, limit)
	}
	return nil
}

// ExecutorTimeout returns the per-run timeout for remote executors.
func (c Config) ExecutorTimeout() time.Duration {
	if c.Executor.TimeoutSeconds <= 0 {
		return defaultExecutorTimeout
	}
	return time.Duration(c.Executor.TimeoutSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return filepath.Join(c.dataDir(), "edgebench.log")
}

// StorePath returns where the configured repository keeps its data.
func (c Config) StorePath() string {
	if p := strings.TrimSpace(c.Store.Path); p != "" {
		return p
	}
	if c.Store.Driver == "badger" {
		return filepath.Join(c.dataDir(), "results.badger")
	}
	return filepath.Join(c.dataDir(), "results.json")
}

// CacheRoot returns the directory under which run-sets create scratch dirs.
func (c Config) CacheRoot() string {
	if p := strings.TrimSpace(c.Benchmark.CacheDir); p != "" {
		return p
	}
	return filepath.Join(c.dataDir(), "cache")
}

// ChartsDir returns the default output directory for rendered charts.
func (c Config) ChartsDir() string {
	return filepath.Join(c.dataDir(), "charts")
}

func (c Config) dataDir() string {
	if d := strings.TrimSpace(c.DataDir); d != "" {
		return d
	}
	return defaultDataDir
}

// Load reads the configuration at path through viper, applies defaults and
// validates the result. A missing file at the default path yields defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if (errors.Is(err, os.ErrNotExist) || errors.As(err, &notFound)) && path == DefaultConfigPath {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
	}
	return FromViper(v, path)
}

// FromViper materializes a Config from an already-populated viper instance.
func FromViper(v *viper.Viper, path string) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ConfigPath = path
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
