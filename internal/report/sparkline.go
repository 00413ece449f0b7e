// internal/report/sparkline.go
package report

import (
	"math"
	"slices"
)

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// chartPadding widens the value range so extremes do not sit on the edges.
const chartPadding = 0.2

// paddedRange returns the bounds of values widened by chartPadding of their
// span. A flat series gets a band of chartPadding around its value.
func paddedRange(values []float64) (lo, hi float64) {
	lo, hi = slices.Min(values), slices.Max(values)
	span := hi - lo
	if span == 0 {
		span = math.Abs(lo)
		if span == 0 {
			span = 1
		}
	}
	return lo - span*chartPadding, hi + span*chartPadding
}

// Sparkline draws values in run order as a row of block characters.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := paddedRange(values)
	out := make([]rune, len(values))
	top := len(sparkTicks) - 1
	for i, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(top)))
		idx = max(0, min(top, idx))
		out[i] = sparkTicks[idx]
	}
	return string(out)
}
