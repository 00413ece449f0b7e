// servers/agent/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/executor"
	"github.com/mwiater/edgebench/internal/logging"
)

const defaultConfigPath = "servers/agent/agent.yml"

// Config is the agent's YAML configuration.
type Config struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Type           string `yaml:"type"`
	ModelsPath     string `yaml:"models_path"`
	BenchBinary    string `yaml:"bench_binary"`
	TimeoutSeconds int    `yaml:"timeout"`
	Seed           int64  `yaml:"seed"`
	LogFile        string `yaml:"log_file"`
}

// ErrResp is the body of every non-200 answer.
type ErrResp struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	ExitCode  int    `json:"exit_code,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms,omitempty"`
	StdErr    string `json:"stderr,omitempty"`
}

// Server answers run requests from edgebench's HTTP executor.
type Server struct {
	mu      sync.Mutex
	cfg     *Config
	backend benchmark.Executor
}

func main() {
	path := os.Getenv("EDGEBENCH_AGENT_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := loadConfig(path)
	if err != nil {
		logging.LogError("config error: %v", err)
		os.Exit(1)
	}
	if cfg.LogFile != "" {
		if err := logging.Init(cfg.LogFile); err != nil {
			logging.LogError("log file: %v", err)
			os.Exit(1)
		}
		defer logging.Close()
	}

	s, err := newServer(cfg)
	if err != nil {
		logging.LogError("backend error: %v", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.LogEvent("agent config: host=%s port=%d type=%s models_path=%s timeout=%ds", cfg.Host, cfg.Port, cfg.Type, cfg.ModelsPath, cfg.TimeoutSeconds)
	logging.LogEvent("listening on %s (GOOS=%s)", srv.Addr, runtime.GOOS)
	if err := srv.ListenAndServe(); err != nil {
		logging.LogError("server stopped: %v", err)
		os.Exit(1)
	}
}

func newServer(cfg *Config) (*Server, error) {
	s := &Server{cfg: cfg}
	switch normalizedType(cfg.Type) {
	case "simulated":
		s.backend = executor.NewSimulated(cfg.Seed)
	case "llama.cpp":
		bin, err := resolveBenchBinary(cfg.BenchBinary)
		if err != nil {
			return nil, err
		}
		s.backend = &llamaBench{bin: bin, modelsPath: cfg.ModelsPath}
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /run", s.handleRun)
	return mux
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	// One model execution at a time so timings are not disturbed.
	logging.LogEvent("run request from %s", r.RemoteAddr)
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg benchmark.RunConfig
	if err := decodeJSON(w, r, &cfg, 1<<20); err != nil {
		logging.LogWarn("run decode error: %v", err)
		writeJSON(w, http.StatusBadRequest, ErrResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if err := validateRunConfig(cfg); err != nil {
		logging.LogWarn("run validation error: %v", err)
		writeJSON(w, http.StatusBadRequest, ErrResp{Error: err.Error()})
		return
	}

	ctx := r.Context()
	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	start := time.Now()
	sample, err := s.backend.RunOnce(ctx, cfg)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		resp := ErrResp{Error: err.Error(), ElapsedMS: elapsed}
		var runErr *benchError
		if errors.As(err, &runErr) {
			resp.ExitCode = runErr.exitCode
			resp.StdErr = runErr.stderr
		}
		logging.LogError("run failed for %s: %v (elapsed_ms=%d)", cfg.ModelName, err, elapsed)
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}

	logging.LogEvent("run complete for %s (elapsed_ms=%d decode=%.2f tok/s)", cfg.ModelName, elapsed, sample.DecodeTokensPerSecond)
	writeJSON(w, http.StatusOK, sample)
}

func validateRunConfig(cfg benchmark.RunConfig) error {
	if strings.TrimSpace(cfg.ModelName) == "" {
		return errors.New("model is required")
	}
	if cfg.PrefillTokens <= 0 || cfg.DecodeTokens <= 0 {
		return errors.New("prefillTokens and decodeTokens must be positive")
	}
	return nil
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	switch normalizedType(cfg.Type) {
	case "llama.cpp", "simulated":
	default:
		return nil, fmt.Errorf("invalid type %q (expected \"llama.cpp\" or \"simulated\")", cfg.Type)
	}
	if cfg.Port == 0 {
		cfg.Port = 8090
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 3600
	}
	return &cfg, nil
}

func normalizedType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
