// internal/benchmark/types.go
package benchmark

import (
	"regexp"
	"strings"
	"time"

	"github.com/mwiater/edgebench/internal/valueseries"
)

// Metric names one measured quantity of a run-set.
type Metric string

const (
	MetricPrefillSpeed     Metric = "prefill_speed"
	MetricDecodeSpeed      Metric = "decode_speed"
	MetricTimeToFirstToken Metric = "time_to_first_token"
	MetricFirstInitTime    Metric = "first_init_time_ms"
	MetricSteadyInitTime   Metric = "steady_init_time_ms"
)

// MetricInfo describes how a metric is labelled and compared.
type MetricInfo struct {
	Metric       Metric
	Label        string
	Unit         string
	LessIsBetter bool
}

// Metrics lists every metric in display and export order.
var Metrics = []MetricInfo{
	{Metric: MetricPrefillSpeed, Label: "Prefill speed", Unit: "tokens/sec"},
	{Metric: MetricDecodeSpeed, Label: "Decode speed", Unit: "tokens/sec"},
	{Metric: MetricTimeToFirstToken, Label: "Time to first token", Unit: "sec", LessIsBetter: true},
	{Metric: MetricFirstInitTime, Label: "First init time", Unit: "ms", LessIsBetter: true},
	{Metric: MetricSteadyInitTime, Label: "Steady init time", Unit: "ms", LessIsBetter: true},
}

// Info returns the descriptor for m. Unknown metrics get their key as label.
func (m Metric) Info() MetricInfo {
	for _, info := range Metrics {
		if info.Metric == m {
			return info
		}
	}
	return MetricInfo{Metric: m, Label: string(m)}
}

// ParseMetric accepts a metric key with either '-' or '_' separators.
func ParseMetric(s string) (Metric, bool) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, info := range Metrics {
		if string(info.Metric) == key || strings.TrimSuffix(string(info.Metric), "_ms") == key {
			return info.Metric, true
		}
	}
	return "", false
}

// BasicInfo is the descriptive metadata of one run-set.
type BasicInfo struct {
	StartMs       int64  `json:"startMs"`
	EndMs         int64  `json:"endMs"`
	ModelName     string `json:"modelName"`
	Accelerator   string `json:"accelerator"`
	PrefillTokens int    `json:"prefillTokens"`
	DecodeTokens  int    `json:"decodeTokens"`
	NumberOfRuns  int    `json:"numberOfRuns"`
	AppVersion    string `json:"appVersion"`
}

// Start returns StartMs as a time.
func (b BasicInfo) Start() time.Time { return time.UnixMilli(b.StartMs) }

// Duration is the wall time of the run-set.
func (b BasicInfo) Duration() time.Duration {
	return time.Duration(b.EndMs-b.StartMs) * time.Millisecond
}

// Result is the persisted record of a completed run-set.
type Result struct {
	ID        string                             `json:"id"`
	CreatedAt time.Time                          `json:"createdAt"`
	BasicInfo BasicInfo                          `json:"basicInfo"`
	Stats     map[Metric]valueseries.ValueSeries `json:"stats"`
}

// Series returns the statistics for m and whether they are present.
func (r Result) Series(m Metric) (valueseries.ValueSeries, bool) {
	s, ok := r.Stats[m]
	return s, ok
}

// ResultInfo wraps a Result with view state that is never persisted.
type ResultInfo struct {
	ID                string
	Result            Result
	Expanded          bool
	BasicInfoExpanded bool
	StatsExpanded     bool
	Aggregation       valueseries.Aggregation
}

// Value returns the entry's metric under its own aggregation selector.
func (ri ResultInfo) Value(m Metric) (float64, bool) {
	s, ok := ri.Result.Series(m)
	if !ok {
		return 0, false
	}
	return s.Value(ri.Aggregation), true
}

// State is an immutable snapshot of a Store.
type State struct {
	Results           []ResultInfo
	Baseline          *ResultInfo
	ShowResultsViewer bool
	Running           bool
	TotalRunCount     int
	CompletedRunCount int
}

// Repository is the durable home of results. GetAll returns newest first,
// Append adds a new newest entry and DeleteAt indexes into the GetAll order.
type Repository interface {
	GetAll() ([]Result, error)
	Append(result Result) error
	DeleteAt(index int) error
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9_]+`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify converts a string into a "slug" format,
// including replacing colons (:) with underscores (_).
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ":", "_")
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-_")

	return s
}
