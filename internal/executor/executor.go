// internal/executor/executor.go
package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/mwiater/edgebench/internal/appconfig"
	"github.com/mwiater/edgebench/internal/benchmark"
)

// New returns the executor selected by cfg.Driver.
func New(cfg appconfig.Executor) (benchmark.Executor, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "simulated":
		return NewSimulated(cfg.Seed), nil
	case "http":
		if strings.TrimSpace(cfg.Endpoint) == "" {
			return nil, fmt.Errorf("executor endpoint is required for the http driver")
		}
		return NewHTTP(cfg.Endpoint, time.Duration(cfg.TimeoutSeconds)*time.Second), nil
	default:
		return nil, fmt.Errorf("unknown executor driver %q", cfg.Driver)
	}
}
