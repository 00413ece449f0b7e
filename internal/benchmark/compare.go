// internal/benchmark/compare.go
package benchmark

import (
	"fmt"
	"math"
)

// baselineEpsilon is the smallest baseline magnitude a percentage is shown for.
const baselineEpsilon = 1e-6

// Delta is the relative change of a value against its baseline.
type Delta struct {
	Percent  float64
	Valid    bool
	Improved bool
}

// Compare computes (current-baseline)/baseline*100. The delta is invalid when
// the baseline is within baselineEpsilon of zero. Improved holds when the
// sign of the change matches the metric's better direction.
func Compare(current, baseline float64, lessIsBetter bool) Delta {
	if math.Abs(baseline) < baselineEpsilon {
		return Delta{}
	}
	pct := (current - baseline) / baseline * 100
	return Delta{
		Percent:  pct,
		Valid:    true,
		Improved: (pct >= 0) == !lessIsBetter,
	}
}

// String renders the delta as a signed percentage with one decimal, e.g.
// "+12.3%". Invalid deltas render as the empty string.
func (d Delta) String() string {
	if !d.Valid {
		return ""
	}
	sign := "+"
	if d.Percent < 0 {
		sign = "-"
	}
	return fmt.Sprintf("%s%.1f%%", sign, math.Abs(d.Percent))
}

// Compare returns the delta of entry id against the baseline for metric m.
// It reports false when there is no baseline, when id is the baseline, or
// when either side lacks the metric.
func (s *Store) Compare(id string, m Metric) (Delta, bool) {
	entry, ok := s.Get(id)
	if !ok {
		return Delta{}, false
	}
	baseline, ok := s.Baseline()
	if !ok || baseline.ID == entry.ID {
		return Delta{}, false
	}
	return CompareEntries(entry, baseline, m)
}

// CompareEntries compares two entries on m, each under its own aggregation.
func CompareEntries(entry, baseline ResultInfo, m Metric) (Delta, bool) {
	current, ok := entry.Value(m)
	if !ok {
		return Delta{}, false
	}
	base, ok := baseline.Value(m)
	if !ok {
		return Delta{}, false
	}
	d := Compare(current, base, m.Info().LessIsBetter)
	return d, d.Valid
}
