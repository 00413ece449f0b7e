package benchmark

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/edgebench/internal/valueseries"
)

// memRepo keeps results newest first, mirroring the Repository contract.
type memRepo struct {
	results   []Result
	getErr    error
	appendErr error
	deleted   []int
}

func (m *memRepo) GetAll() ([]Result, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return append([]Result(nil), m.results...), nil
}

func (m *memRepo) Append(r Result) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.results = append([]Result{r}, m.results...)
	return nil
}

func (m *memRepo) DeleteAt(i int) error {
	if i < 0 || i >= len(m.results) {
		return fmt.Errorf("index %d out of range", i)
	}
	m.deleted = append(m.deleted, i)
	m.results = append(m.results[:i:i], m.results[i+1:]...)
	return nil
}

func sampleInfo(model string) BasicInfo {
	return BasicInfo{
		StartMs:       1000,
		EndMs:         5000,
		ModelName:     model,
		Accelerator:   "cpu",
		PrefillTokens: 256,
		DecodeTokens:  256,
		NumberOfRuns:  3,
		AppVersion:    "test",
	}
}

func sampleSamples() map[Metric][]float64 {
	return map[Metric][]float64{
		MetricPrefillSpeed:     {100, 120, 110},
		MetricDecodeSpeed:      {20, 22, 21},
		MetricTimeToFirstToken: {0.5, 0.25, 0.75},
		MetricFirstInitTime:    {900},
		MetricSteadyInitTime:   {300, 320},
	}
}

func withSequentialIDs(t *testing.T) {
	t.Helper()
	prev := newID
	n := 0
	newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	t.Cleanup(func() { newID = prev })
}

func TestNewStoreLoadsCollapsed(t *testing.T) {
	repo := &memRepo{results: []Result{
		{ID: "b", BasicInfo: sampleInfo("m2")},
		{ID: "a", BasicInfo: sampleInfo("m1")},
	}}
	s := NewStore(repo)

	results := s.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].ID)
	for _, ri := range results {
		assert.False(t, ri.Expanded)
		assert.False(t, ri.BasicInfoExpanded)
		assert.False(t, ri.StatsExpanded)
		assert.Equal(t, valueseries.Avg, ri.Aggregation)
	}
}

func TestNewStoreAssignsStableMissingIDs(t *testing.T) {
	stored := []Result{
		{BasicInfo: sampleInfo("m")},
		{BasicInfo: sampleInfo("m")},
		{ID: "kept", BasicInfo: sampleInfo("m")},
		{BasicInfo: sampleInfo("other")},
	}
	load := func() []ResultInfo {
		return NewStore(&memRepo{results: append([]Result(nil), stored...)}).Results()
	}

	first, second := load(), load()
	require.Len(t, first, 4)
	for i := range first {
		assert.NotEmpty(t, first[i].ID)
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].ID, first[i].Result.ID)
	}
	assert.Equal(t, "kept", first[2].ID)
	assert.NotEqual(t, first[0].ID, first[1].ID, "identical entries need distinct ids")
	assert.NotEqual(t, first[0].ID, first[3].ID)

	// A newer result must not renumber the older duplicates.
	withNew := NewStore(&memRepo{results: append([]Result{{BasicInfo: sampleInfo("m")}}, stored...)}).Results()
	assert.Equal(t, first[0].ID, withNew[1].ID)
	assert.Equal(t, first[1].ID, withNew[2].ID)

	repo := &memRepo{results: append([]Result(nil), stored...)}
	NewStore(repo).DeleteResult(first[3].ID)
	assert.Equal(t, []int{3}, repo.deleted)
}

func TestNewStoreSurvivesLoadError(t *testing.T) {
	s := NewStore(&memRepo{getErr: errors.New("boom")})
	assert.Equal(t, 0, s.Len())
}

func TestAddResultPrependsAndPersists(t *testing.T) {
	withSequentialIDs(t)
	repo := &memRepo{}
	s := NewStore(repo)

	first := s.AddResult(sampleInfo("m1"), sampleSamples())
	second := s.AddResult(sampleInfo("m2"), sampleSamples())

	results := s.Results()
	require.Len(t, results, 2)
	assert.Equal(t, second, results[0].ID)
	assert.Equal(t, first, results[1].ID)
	assert.True(t, results[0].BasicInfoExpanded)
	assert.True(t, results[0].StatsExpanded)

	require.Len(t, repo.results, 2)
	assert.Equal(t, second, repo.results[0].ID)

	prefill, ok := results[0].Result.Series(MetricPrefillSpeed)
	require.True(t, ok)
	assert.Equal(t, 110.0, prefill.Avg)
	assert.Equal(t, 110.0, prefill.Median)
}

func TestAddResultKeepsStateWhenPersistFails(t *testing.T) {
	repo := &memRepo{appendErr: errors.New("disk full")}
	s := NewStore(repo)
	id := s.AddResult(sampleInfo("m"), sampleSamples())
	_, ok := s.Get(id)
	assert.True(t, ok)
	assert.Empty(t, repo.results)
}

func TestAddThenDeleteRestoresList(t *testing.T) {
	repo := &memRepo{results: []Result{{ID: "old-2"}, {ID: "old-1"}}}
	s := NewStore(repo)
	before := s.Results()

	id := s.AddResult(sampleInfo("m"), sampleSamples())
	s.DeleteResult(id)

	assert.Equal(t, before, s.Results())
	assert.Equal(t, []int{0}, repo.deleted)
	require.Len(t, repo.results, 2)
	assert.Equal(t, "old-2", repo.results[0].ID)
}

func TestDeleteUsesStoragePosition(t *testing.T) {
	repo := &memRepo{results: []Result{{ID: "c"}, {ID: "b"}, {ID: "a"}}}
	s := NewStore(repo)
	s.DeleteResult("b")
	assert.Equal(t, []int{1}, repo.deleted)
	assert.Equal(t, []string{"c", "a"}, ids(s.Results()))
}

func TestDeleteUnknownIsIgnored(t *testing.T) {
	repo := &memRepo{results: []Result{{ID: "a"}}}
	s := NewStore(repo)
	s.DeleteResult("missing")
	assert.Equal(t, 1, s.Len())
	assert.Empty(t, repo.deleted)
}

func TestDeleteBaselineClearsIt(t *testing.T) {
	s := NewStore(&memRepo{results: []Result{{ID: "a"}, {ID: "b"}}})

	s.SetBaseline("a")
	s.DeleteResult("b")
	baseline, ok := s.Baseline()
	require.True(t, ok)
	assert.Equal(t, "a", baseline.ID)

	s.DeleteResult("a")
	_, ok = s.Baseline()
	assert.False(t, ok)
}

func TestSetBaselineToggles(t *testing.T) {
	s := NewStore(&memRepo{results: []Result{{ID: "a"}, {ID: "b"}}})

	s.SetBaseline("a")
	baseline, ok := s.Baseline()
	require.True(t, ok)
	assert.Equal(t, "a", baseline.ID)

	s.SetBaseline("b")
	baseline, _ = s.Baseline()
	assert.Equal(t, "b", baseline.ID)

	s.SetBaseline("b")
	_, ok = s.Baseline()
	assert.False(t, ok)

	s.SetBaseline("missing")
	_, ok = s.Baseline()
	assert.False(t, ok)

	s.SetBaseline("a")
	s.ClearBaseline()
	_, ok = s.Baseline()
	assert.False(t, ok)
}

func TestSetAggregationRefreshesBaseline(t *testing.T) {
	s := NewStore(&memRepo{results: []Result{{ID: "a"}, {ID: "b"}}})
	s.SetBaseline("a")

	s.SetAggregation("a", valueseries.Median)
	baseline, _ := s.Baseline()
	assert.Equal(t, valueseries.Median, baseline.Aggregation)

	s.SetAggregation("b", valueseries.Max)
	ri, _ := s.Get("b")
	assert.Equal(t, valueseries.Max, ri.Aggregation)
	baseline, _ = s.Baseline()
	assert.Equal(t, valueseries.Median, baseline.Aggregation)

	s.SetAggregationAll(valueseries.Min)
	for _, ri := range s.Results() {
		assert.Equal(t, valueseries.Min, ri.Aggregation)
	}
	baseline, _ = s.Baseline()
	assert.Equal(t, valueseries.Min, baseline.Aggregation)
}

func TestExpandFlags(t *testing.T) {
	s := NewStore(&memRepo{results: []Result{{ID: "a"}, {ID: "b"}}})

	s.SetExpanded("a", true)
	a, _ := s.Get("a")
	assert.True(t, a.Expanded && a.BasicInfoExpanded && a.StatsExpanded)

	s.SetBasicInfoExpanded("a", false)
	s.SetStatsExpanded("b", true)
	a, _ = s.Get("a")
	b, _ := s.Get("b")
	assert.False(t, a.BasicInfoExpanded)
	assert.True(t, a.StatsExpanded)
	assert.True(t, b.StatsExpanded)
	assert.False(t, b.Expanded)

	s.ExpandAll()
	for _, ri := range s.Results() {
		assert.True(t, ri.Expanded && ri.BasicInfoExpanded && ri.StatsExpanded)
	}
	s.CollapseAll()
	for _, ri := range s.Results() {
		assert.False(t, ri.Expanded || ri.BasicInfoExpanded || ri.StatsExpanded)
	}

	before := s.Results()
	s.SetExpanded("missing", true)
	assert.Equal(t, before, s.Results())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewStore(&memRepo{results: []Result{{ID: "a"}}})
	s.SetBaseline("a")
	snap := s.Snapshot()
	snap.Results[0].Expanded = true
	snap.Baseline.Aggregation = valueseries.Max

	ri, _ := s.Get("a")
	assert.False(t, ri.Expanded)
	baseline, _ := s.Baseline()
	assert.Equal(t, valueseries.Avg, baseline.Aggregation)
}

func TestRunProgressState(t *testing.T) {
	s := NewStore(&memRepo{})
	s.SetRunning(true)
	s.SetTotalRunCount(5)
	s.SetRunProgress(2)
	s.SetShowResultsViewer(true)
	snap := s.Snapshot()
	assert.True(t, snap.Running)
	assert.True(t, snap.ShowResultsViewer)
	assert.Equal(t, 5, snap.TotalRunCount)
	assert.Equal(t, 2, snap.CompletedRunCount)
}

func TestResolveAndFilter(t *testing.T) {
	s := NewStore(&memRepo{results: []Result{
		{ID: "abc-1", BasicInfo: sampleInfo("gemma")},
		{ID: "abd-2", BasicInfo: sampleInfo("qwen")},
		{ID: "xyz-3", BasicInfo: sampleInfo("gemma")},
	}})

	ri, ok := s.Resolve("xyz")
	require.True(t, ok)
	assert.Equal(t, "xyz-3", ri.ID)

	_, ok = s.Resolve("ab")
	assert.False(t, ok, "ambiguous prefix must not resolve")

	_, ok = s.Resolve("")
	assert.False(t, ok)

	assert.Equal(t, []string{"abc-1", "xyz-3"}, ids(s.FilterByModel("gemma")))
	assert.Len(t, s.FilterByModel(""), 3)
}

func ids(results []ResultInfo) []string {
	out := make([]string, 0, len(results))
	for _, ri := range results {
		out = append(out, ri.ID)
	}
	return out
}
