// internal/valueseries/valueseries.go
// Package valueseries reduces repeated-run samples into summary statistics.
package valueseries

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/montanaflynn/stats"
)

// ValueSeries holds the raw samples of one metric and their summary statistics.
type ValueSeries struct {
	Values []float64 `json:"values,omitempty"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Avg    float64   `json:"avg"`
	Median float64   `json:"median"`
	P25    float64   `json:"p25"`
	P75    float64   `json:"p75"`
}

// Summarize computes min, max, average, median and the 25th/75th percentiles
// of samples. An empty input yields the zero ValueSeries.
func Summarize(samples []float64) ValueSeries {
	if len(samples) == 0 {
		return ValueSeries{}
	}

	// stats only errors on empty input, which is handled above.
	avg, _ := stats.Mean(samples)
	lo, _ := stats.Min(samples)
	hi, _ := stats.Max(samples)

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	return ValueSeries{
		Values: slices.Clone(samples),
		Min:    lo,
		Max:    hi,
		Avg:    avg,
		Median: Percentile(sorted, 0.5),
		P25:    Percentile(sorted, 0.25),
		P75:    Percentile(sorted, 0.75),
	}
}

// Percentile returns the p-quantile (0..1) of an ascending slice using linear
// interpolation between the two nearest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	l := int(math.Floor(pos))
	r := int(math.Ceil(pos))
	if l < 0 {
		return sorted[0]
	}
	if r >= n {
		return sorted[n-1]
	}
	if l == r {
		return sorted[l]
	}
	frac := pos - float64(l)
	return sorted[l]*(1-frac) + sorted[r]*frac
}

// Count reports how many raw samples the series was built from.
func (v ValueSeries) Count() int { return len(v.Values) }

// Value returns the statistic selected by agg.
func (v ValueSeries) Value(agg Aggregation) float64 {
	switch agg {
	case Median:
		return v.Median
	case Min:
		return v.Min
	case Max:
		return v.Max
	default:
		return v.Avg
	}
}

// Aggregation selects which single statistic represents a multi-run metric.
type Aggregation int

const (
	Avg Aggregation = iota
	Median
	Min
	Max
)

var aggregationLabels = [...]string{
	Avg:    "avg",
	Median: "median",
	Min:    "min",
	Max:    "max",
}

// Aggregations lists every selector in cycle order.
func Aggregations() []Aggregation { return []Aggregation{Avg, Median, Min, Max} }

// String returns the short label of the aggregation.
func (a Aggregation) String() string {
	if a < 0 || int(a) >= len(aggregationLabels) {
		return aggregationLabels[Avg]
	}
	return aggregationLabels[a]
}

// Next returns the following selector, wrapping around after max.
func (a Aggregation) Next() Aggregation {
	return Aggregation((int(a) + 1) % len(aggregationLabels))
}

// ParseAggregation maps a label such as "median" to its Aggregation.
// The empty string parses as Avg.
func ParseAggregation(s string) (Aggregation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "average" {
		return Avg, nil
	}
	for i, label := range aggregationLabels {
		if label == s {
			return Aggregation(i), nil
		}
	}
	return Avg, fmt.Errorf("unknown aggregation %q (want one of avg, median, min, max)", s)
}
