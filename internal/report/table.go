// internal/report/table.go
package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mwiater/edgebench/internal/benchmark"
)

// ResultsTable renders one row per entry with every metric under the entry's
// aggregation. When baseline is set, each metric carries its delta.
func ResultsTable(results []benchmark.ResultInfo, baseline *benchmark.ResultInfo) string {
	headers := []string{"", "ID", "Model", "Accel", "Runs", "Agg"}
	for _, info := range benchmark.Metrics {
		headers = append(headers, fmt.Sprintf("%s (%s)", info.Label, info.Unit))
	}

	rows := make([][]string, 0, len(results))
	for _, ri := range results {
		marker := ""
		isBaseline := baseline != nil && baseline.ID == ri.ID
		if isBaseline {
			marker = baselineStyle.Render("*")
		}
		row := []string{
			marker,
			ShortID(ri.ID),
			ri.Result.BasicInfo.ModelName,
			ri.Result.BasicInfo.Accelerator,
			fmt.Sprintf("%d", ri.Result.BasicInfo.NumberOfRuns),
			ri.Aggregation.String(),
		}
		for _, info := range benchmark.Metrics {
			row = append(row, metricCell(ri, baseline, info.Metric, isBaseline))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return t.String()
}

func metricCell(ri benchmark.ResultInfo, baseline *benchmark.ResultInfo, m benchmark.Metric, isBaseline bool) string {
	v, ok := ri.Value(m)
	if !ok {
		return "-"
	}
	cell := FormatValue(v)
	if baseline == nil || isBaseline {
		return cell
	}
	if d, ok := benchmark.CompareEntries(ri, *baseline, m); ok {
		cell += " " + RenderDelta(d)
	}
	return cell
}
