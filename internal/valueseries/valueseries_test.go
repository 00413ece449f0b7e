package valueseries

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, ValueSeries{}, Summarize(nil))
	assert.Equal(t, ValueSeries{}, Summarize([]float64{}))
}

func TestSummarizeSingle(t *testing.T) {
	got := Summarize([]float64{7.5})
	for name, v := range map[string]float64{
		"min": got.Min, "max": got.Max, "avg": got.Avg,
		"median": got.Median, "p25": got.P25, "p75": got.P75,
	} {
		assert.Equalf(t, 7.5, v, "%s", name)
	}
	assert.Equal(t, 1, got.Count())
}

func TestSummarizeInterpolates(t *testing.T) {
	got := Summarize([]float64{40, 10, 30, 20})

	assert.Equal(t, 10.0, got.Min)
	assert.Equal(t, 40.0, got.Max)
	assert.Equal(t, 25.0, got.Avg)
	assert.InDelta(t, 25.0, got.Median, 1e-9)
	assert.InDelta(t, 17.5, got.P25, 1e-9)
	assert.InDelta(t, 32.5, got.P75, 1e-9)
	// raw values keep input order
	assert.Equal(t, []float64{40, 10, 30, 20}, got.Values)
}

func TestSummarizeOddCountHitsExactRank(t *testing.T) {
	got := Summarize([]float64{5, 1, 3, 2, 4})
	assert.Equal(t, 3.0, got.Median)
	assert.Equal(t, 2.0, got.P25)
	assert.Equal(t, 4.0, got.P75)
}

func TestSummarizeOrdering(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := 1 + r.Intn(25)
		samples := make([]float64, n)
		for j := range samples {
			samples[j] = r.NormFloat64() * 100
		}
		s := Summarize(samples)
		require.LessOrEqual(t, s.Min, s.P25)
		require.LessOrEqual(t, s.P25, s.Median)
		require.LessOrEqual(t, s.Median, s.P75)
		require.LessOrEqual(t, s.P75, s.Max)
	}
}

func TestSummarizeDoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	_ = Summarize(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestPercentileBounds(t *testing.T) {
	sorted := []float64{1, 2, 3}
	assert.Equal(t, 1.0, Percentile(sorted, 0))
	assert.Equal(t, 3.0, Percentile(sorted, 1))
	assert.Equal(t, 0.0, Percentile(nil, 0.5))
}

func TestValueSelectsAggregation(t *testing.T) {
	s := ValueSeries{Min: 1, Max: 9, Avg: 4, Median: 3}
	assert.Equal(t, 4.0, s.Value(Avg))
	assert.Equal(t, 3.0, s.Value(Median))
	assert.Equal(t, 1.0, s.Value(Min))
	assert.Equal(t, 9.0, s.Value(Max))
}

func TestParseAggregation(t *testing.T) {
	for _, a := range Aggregations() {
		got, err := ParseAggregation(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	got, err := ParseAggregation(" MEDIAN ")
	require.NoError(t, err)
	assert.Equal(t, Median, got)

	got, err = ParseAggregation("")
	require.NoError(t, err)
	assert.Equal(t, Avg, got)

	_, err = ParseAggregation("p99")
	assert.Error(t, err)
}

func TestAggregationNextCycles(t *testing.T) {
	assert.Equal(t, Median, Avg.Next())
	assert.Equal(t, Min, Median.Next())
	assert.Equal(t, Max, Min.Next())
	assert.Equal(t, Avg, Max.Next())
}
