// internal/benchmark/csv.go
package benchmark

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/mwiater/edgebench/internal/valueseries"
)

var csvHeader = []string{
	"start time (ms)",
	"end time (ms)",
	"model name",
	"accelerator",
	"prefill tokens count",
	"decode tokens count",
	"runs count",
	"app version",
	"prefill speed (tokens/sec)",
	"decode speed (tokens/sec)",
	"time to first token (sec)",
	"first init time (ms)",
	"steady init time (ms)",
}

// CSV renders one result as a header line and a data line.
func CSV(result Result, agg valueseries.Aggregation) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []Result{result}, agg); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// WriteCSV writes a header followed by one row per result.
func WriteCSV(w io.Writer, results []Result, agg valueseries.Aggregation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(csvRow(r, agg)); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r Result, agg valueseries.Aggregation) []string {
	info := r.BasicInfo
	value := func(m Metric) string {
		s := r.Stats[m]
		return formatFloat(s.Value(agg))
	}
	firstInit := r.Stats[MetricFirstInitTime]
	return []string{
		strconv.FormatInt(info.StartMs, 10),
		strconv.FormatInt(info.EndMs, 10),
		info.ModelName,
		info.Accelerator,
		strconv.Itoa(info.PrefillTokens),
		strconv.Itoa(info.DecodeTokens),
		strconv.Itoa(info.NumberOfRuns),
		info.AppVersion,
		value(MetricPrefillSpeed),
		value(MetricDecodeSpeed),
		value(MetricTimeToFirstToken),
		formatFloat(firstInit.Avg),
		value(MetricSteadyInitTime),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
