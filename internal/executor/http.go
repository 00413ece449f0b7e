// internal/executor/http.go
// Package executor provides the backends that run a model once and time it.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwiater/edgebench/internal/benchmark"
	"github.com/mwiater/edgebench/internal/logging"
)

// HTTP runs models on a remote benchmark agent. Each run is a POST of the
// run config; the agent answers with one RunSample.
type HTTP struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
}

// NewHTTP constructs an HTTP executor for endpoint.
func NewHTTP(endpoint string, timeout time.Duration) *HTTP {
	return &HTTP{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		endpoint: strings.TrimRight(endpoint, "/"),
		timeout:  timeout,
	}
}

// RunOnce implements benchmark.Executor.
func (h *HTTP) RunOnce(ctx context.Context, cfg benchmark.RunConfig) (benchmark.RunSample, error) {
	body, err := json.Marshal(cfg)
	if err != nil {
		return benchmark.RunSample{}, err
	}
	logging.LogRequest("EDGEBENCH->AGENT", h.endpoint, cfg.ModelName, body)

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return benchmark.RunSample{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return benchmark.RunSample{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return benchmark.RunSample{}, err
	}
	logging.LogRequest("AGENT->EDGEBENCH", h.endpoint, cfg.ModelName, raw)

	if resp.StatusCode != http.StatusOK {
		return benchmark.RunSample{}, fmt.Errorf("benchmark agent returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var sample benchmark.RunSample
	if err := json.Unmarshal(raw, &sample); err != nil {
		return benchmark.RunSample{}, fmt.Errorf("decode benchmark agent response: %w", err)
	}
	if err := checkSample(sample); err != nil {
		return benchmark.RunSample{}, err
	}
	return sample, nil
}

func checkSample(s benchmark.RunSample) error {
	if s.InitTimeSeconds < 0 || s.PrefillTokensPerSecond < 0 || s.DecodeTokensPerSecond < 0 || s.TimeToFirstTokenSeconds < 0 {
		return fmt.Errorf("benchmark agent returned negative timings: %+v", s)
	}
	return nil
}
