// internal/benchmark/store.go
package benchmark

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mwiater/edgebench/internal/logging"
	"github.com/mwiater/edgebench/internal/valueseries"
)

var (
	newID = uuid.NewString
	now   = time.Now
)

// Store owns the in-memory list of results (newest first) and the optional
// baseline. Every mutation goes through a method; reads return copies.
type Store struct {
	mu    sync.RWMutex
	repo  Repository
	state State
}

// NewStore builds a store from the repository's current snapshot with every
// entry collapsed. A failing repository is logged and yields an empty store.
func NewStore(repo Repository) *Store {
	s := &Store{repo: repo}

	stored, err := repo.GetAll()
	if err != nil {
		logging.LogError("[STORE] load benchmark results: %v", err)
		return s
	}
	logging.LogEvent("[STORE] Loaded %d benchmark results", len(stored))

	// Oldest first, so appending new results never renumbers a duplicate.
	results := make([]ResultInfo, len(stored))
	seen := make(map[string]int)
	for i := len(stored) - 1; i >= 0; i-- {
		r := stored[i]
		if strings.TrimSpace(r.ID) == "" {
			base := contentID(r, 0)
			r.ID = contentID(r, seen[base])
			seen[base]++
		}
		results[i] = ResultInfo{ID: r.ID, Result: r, Aggregation: valueseries.Avg}
	}
	s.state.Results = results
	return s
}

// contentID derives a stable id for an entry stored without one. dup tells
// apart entries with identical content.
func contentID(r Result, dup int) string {
	key, _ := json.Marshal(struct {
		BasicInfo BasicInfo `json:"basicInfo"`
		CreatedAt time.Time `json:"createdAt"`
		Dup       int       `json:"dup"`
	}{r.BasicInfo, r.CreatedAt, dup})
	return uuid.NewSHA1(uuid.NameSpaceOID, key).String()
}

// AddResult summarizes each metric's samples, prepends the new entry and
// persists it. It returns the new entry's id.
func (s *Store) AddResult(info BasicInfo, samples map[Metric][]float64) string {
	stats := make(map[Metric]valueseries.ValueSeries, len(samples))
	for m, values := range samples {
		stats[m] = valueseries.Summarize(values)
	}
	result := Result{
		ID:        newID(),
		CreatedAt: now().UTC(),
		BasicInfo: info,
		Stats:     stats,
	}

	s.mu.Lock()
	entry := ResultInfo{
		ID:                result.ID,
		Result:            result,
		BasicInfoExpanded: true,
		StatsExpanded:     true,
		Aggregation:       valueseries.Avg,
	}
	s.state.Results = append([]ResultInfo{entry}, s.state.Results...)
	s.mu.Unlock()

	if err := s.repo.Append(result); err != nil {
		logging.LogError("[STORE] persist result %s: %v", result.ID, err)
	}
	return result.ID
}

// DeleteResult removes the entry with id, clearing the baseline when it was
// the baseline. Unknown ids are logged and ignored.
func (s *Store) DeleteResult(id string) {
	s.mu.Lock()
	index := s.indexOf(id)
	if index == -1 {
		s.mu.Unlock()
		logging.LogWarn("Benchmark result with id %s not found.", id)
		return
	}
	results := make([]ResultInfo, 0, len(s.state.Results)-1)
	results = append(results, s.state.Results[:index]...)
	results = append(results, s.state.Results[index+1:]...)
	s.state.Results = results
	if s.state.Baseline != nil && s.state.Baseline.ID == id {
		s.state.Baseline = nil
	}
	s.mu.Unlock()

	if err := s.repo.DeleteAt(index); err != nil {
		logging.LogError("[STORE] delete result %s at %d: %v", id, index, err)
	}
}

// SetBaseline makes id the baseline, or clears it if id already is.
func (s *Store) SetBaseline(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Baseline != nil && s.state.Baseline.ID == id {
		s.state.Baseline = nil
		return
	}
	index := s.indexOf(id)
	if index == -1 {
		logging.LogWarn("Benchmark result with id %s not found.", id)
		return
	}
	baseline := s.state.Results[index]
	s.state.Baseline = &baseline
}

// ClearBaseline unsets the baseline.
func (s *Store) ClearBaseline() {
	s.mu.Lock()
	s.state.Baseline = nil
	s.mu.Unlock()
}

// SetAggregation changes the selector of one entry. The baseline snapshot is
// refreshed when that entry is the baseline.
func (s *Store) SetAggregation(id string, agg valueseries.Aggregation) {
	s.update(id, func(ri *ResultInfo) { ri.Aggregation = agg })
}

// SetAggregationAll applies one selector to every entry and the baseline.
func (s *Store) SetAggregationAll(agg valueseries.Aggregation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Results = mapResults(s.state.Results, func(ri *ResultInfo) { ri.Aggregation = agg })
	if s.state.Baseline != nil {
		baseline := *s.state.Baseline
		baseline.Aggregation = agg
		s.state.Baseline = &baseline
	}
}

// SetExpanded expands or collapses an entry together with both sections.
func (s *Store) SetExpanded(id string, expanded bool) {
	s.update(id, func(ri *ResultInfo) {
		ri.Expanded = expanded
		ri.BasicInfoExpanded = expanded
		ri.StatsExpanded = expanded
	})
}

func (s *Store) SetBasicInfoExpanded(id string, expanded bool) {
	s.update(id, func(ri *ResultInfo) { ri.BasicInfoExpanded = expanded })
}

func (s *Store) SetStatsExpanded(id string, expanded bool) {
	s.update(id, func(ri *ResultInfo) { ri.StatsExpanded = expanded })
}

// ExpandAll expands every entry and section.
func (s *Store) ExpandAll() { s.setAllExpanded(true) }

// CollapseAll collapses every entry and section.
func (s *Store) CollapseAll() { s.setAllExpanded(false) }

func (s *Store) setAllExpanded(expanded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Results = mapResults(s.state.Results, func(ri *ResultInfo) {
		ri.Expanded = expanded
		ri.BasicInfoExpanded = expanded
		ri.StatsExpanded = expanded
	})
}

func (s *Store) SetShowResultsViewer(show bool) {
	s.mu.Lock()
	s.state.ShowResultsViewer = show
	s.mu.Unlock()
}

func (s *Store) SetRunning(running bool) {
	s.mu.Lock()
	s.state.Running = running
	s.mu.Unlock()
}

func (s *Store) SetTotalRunCount(total int) {
	s.mu.Lock()
	s.state.TotalRunCount = total
	s.mu.Unlock()
}

func (s *Store) SetRunProgress(completed int) {
	s.mu.Lock()
	s.state.CompletedRunCount = completed
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.state
	st.Results = append([]ResultInfo(nil), s.state.Results...)
	if s.state.Baseline != nil {
		baseline := *s.state.Baseline
		st.Baseline = &baseline
	}
	return st
}

// Results returns a copy of the entries, newest first.
func (s *Store) Results() []ResultInfo { return s.Snapshot().Results }

// Baseline returns the current baseline entry, if any.
func (s *Store) Baseline() (ResultInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Baseline == nil {
		return ResultInfo{}, false
	}
	return *s.state.Baseline, true
}

// Get returns the entry with id.
func (s *Store) Get(id string) (ResultInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i != -1 {
		return s.state.Results[i], true
	}
	return ResultInfo{}, false
}

// Resolve finds an entry by full id or by a unique id prefix.
func (s *Store) Resolve(idOrPrefix string) (ResultInfo, bool) {
	if ri, ok := s.Get(idOrPrefix); ok {
		return ri, true
	}
	if strings.TrimSpace(idOrPrefix) == "" {
		return ResultInfo{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var match *ResultInfo
	for i := range s.state.Results {
		if strings.HasPrefix(s.state.Results[i].ID, idOrPrefix) {
			if match != nil {
				return ResultInfo{}, false
			}
			match = &s.state.Results[i]
		}
	}
	if match == nil {
		return ResultInfo{}, false
	}
	return *match, true
}

// FilterByModel returns the entries produced by modelName, newest first.
// An empty name returns every entry.
func (s *Store) FilterByModel(modelName string) []ResultInfo {
	results := s.Results()
	if strings.TrimSpace(modelName) == "" {
		return results
	}
	filtered := results[:0]
	for _, ri := range results {
		if ri.Result.BasicInfo.ModelName == modelName {
			filtered = append(filtered, ri)
		}
	}
	return filtered
}

// Len reports the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Results)
}

// update applies fn to a copy of the entry with id and swaps it in.
func (s *Store) update(id string, fn func(*ResultInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := s.indexOf(id)
	if index == -1 {
		logging.LogWarn("Benchmark result with id %s not found.", id)
		return
	}
	results := append([]ResultInfo(nil), s.state.Results...)
	fn(&results[index])
	s.state.Results = results
	if s.state.Baseline != nil && s.state.Baseline.ID == id {
		baseline := results[index]
		s.state.Baseline = &baseline
	}
}

func (s *Store) indexOf(id string) int {
	for i, ri := range s.state.Results {
		if ri.ID == id {
			return i
		}
	}
	return -1
}

func mapResults(in []ResultInfo, fn func(*ResultInfo)) []ResultInfo {
	out := append([]ResultInfo(nil), in...)
	for i := range out {
		fn(&out[i])
	}
	return out
}
