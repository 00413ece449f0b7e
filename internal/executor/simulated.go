// internal/executor/simulated.go
package executor

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mwiater/edgebench/internal/benchmark"
)

// Profile is the mean and spread of every timing the simulator draws.
type Profile struct {
	PrefillTokensPerSecond float64
	DecodeTokensPerSecond  float64
	ColdInitSeconds        float64
	WarmInitSeconds        float64
	// Jitter is the relative standard deviation applied to every draw.
	Jitter float64
}

// DefaultProfiles roughly follows what small on-device models reach per backend.
var DefaultProfiles = map[benchmark.Accelerator]Profile{
	benchmark.AcceleratorCPU: {PrefillTokensPerSecond: 180, DecodeTokensPerSecond: 14, ColdInitSeconds: 4.0, WarmInitSeconds: 1.2, Jitter: 0.08},
	benchmark.AcceleratorGPU: {PrefillTokensPerSecond: 1100, DecodeTokensPerSecond: 28, ColdInitSeconds: 9.0, WarmInitSeconds: 2.5, Jitter: 0.06},
	benchmark.AcceleratorNPU: {PrefillTokensPerSecond: 2400, DecodeTokensPerSecond: 22, ColdInitSeconds: 12.0, WarmInitSeconds: 3.0, Jitter: 0.05},
}

// Simulated produces plausible samples without a model backend. The first run
// of a model in a cache dir pays the cold init cost; later runs are warm.
type Simulated struct {
	mu       sync.Mutex
	src      rand.Source
	profiles map[benchmark.Accelerator]Profile
	warm     map[string]bool
	// Delay is slept per run to mimic a real execution.
	Delay time.Duration
}

// NewSimulated seeds the simulator. A zero seed uses the current time.
func NewSimulated(seed int64) *Simulated {
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}
	return &Simulated{
		src:      rand.NewSource(uint64(seed)),
		profiles: DefaultProfiles,
		warm:     make(map[string]bool),
	}
}

// RunOnce implements benchmark.Executor.
func (s *Simulated) RunOnce(ctx context.Context, cfg benchmark.RunConfig) (benchmark.RunSample, error) {
	if err := ctx.Err(); err != nil {
		return benchmark.RunSample{}, err
	}
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return benchmark.RunSample{}, ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[cfg.Accelerator]
	if !ok {
		p = s.profiles[benchmark.AcceleratorCPU]
	}

	key := cfg.CacheDir + "\x00" + cfg.ModelName + "\x00" + string(cfg.Accelerator)
	initMean := p.WarmInitSeconds
	if !s.warm[key] {
		initMean = p.ColdInitSeconds
		s.warm[key] = true
	}

	prefill := s.draw(p.PrefillTokensPerSecond, p.Jitter)
	decode := s.draw(p.DecodeTokensPerSecond, p.Jitter)
	ttft := float64(cfg.PrefillTokens) / prefill
	return benchmark.RunSample{
		InitTimeSeconds:         s.draw(initMean, p.Jitter),
		PrefillTokensPerSecond:  prefill,
		DecodeTokensPerSecond:   decode,
		TimeToFirstTokenSeconds: ttft + 1/decode,
	}, nil
}

// draw samples a normal distribution around mean truncated to [mean/2, 3*mean/2]
// using the inverse transform method.
func (s *Simulated) draw(mean, jitter float64) float64 {
	if mean <= 0 {
		return 0
	}
	norm := distuv.Normal{
		Mu:    mean,
		Sigma: mean * jitter,
		Src:   s.src,
	}
	if norm.Sigma <= 0 {
		return mean
	}
	lo, hi := mean/2, mean*1.5
	u := distuv.Uniform{
		Min: norm.CDF(lo),
		Max: norm.CDF(hi),
		Src: s.src,
	}.Rand()
	return norm.Quantile(u)
}
