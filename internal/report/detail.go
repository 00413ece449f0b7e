// internal/report/detail.go
package report

import (
	"fmt"
	"strings"

	"github.com/mwiater/edgebench/internal/benchmark"
)

// Detail renders one entry as a collapsible card. A collapsed entry shows only
// its title line; the basic-info and stats sections follow their own flags.
func Detail(ri benchmark.ResultInfo, baseline *benchmark.ResultInfo) string {
	var b strings.Builder
	info := ri.Result.BasicInfo

	arrow := "▸"
	if ri.Expanded {
		arrow = "▾"
	}
	title := fmt.Sprintf("%s %s  %s  %s", arrow, info.ModelName, mutedStyle.Render(ShortID(ri.ID)), info.Accelerator)
	if baseline != nil && baseline.ID == ri.ID {
		title += "  " + baselineStyle.Render("baseline")
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if !ri.Expanded {
		return b.String()
	}

	b.WriteString("  " + sectionHeader("Basic info", ri.BasicInfoExpanded) + "\n")
	if ri.BasicInfoExpanded {
		writeField(&b, "Started", info.Start().Format("2006-01-02 15:04:05"))
		writeField(&b, "Duration", info.Duration().String())
		writeField(&b, "Accelerator", info.Accelerator)
		writeField(&b, "Prefill tokens", fmt.Sprintf("%d", info.PrefillTokens))
		writeField(&b, "Decode tokens", fmt.Sprintf("%d", info.DecodeTokens))
		writeField(&b, "Runs", fmt.Sprintf("%d", info.NumberOfRuns))
		writeField(&b, "App version", info.AppVersion)
	}

	b.WriteString("  " + sectionHeader(fmt.Sprintf("Stats (%s)", ri.Aggregation), ri.StatsExpanded) + "\n")
	if ri.StatsExpanded {
		var cmp *benchmark.ResultInfo
		if baseline != nil && baseline.ID != ri.ID {
			cmp = baseline
		}
		for _, m := range benchmark.Metrics {
			series, ok := ri.Result.Series(m.Metric)
			if !ok {
				continue
			}
			// Steady init only means something once there are repeat runs to compare.
			if m.Metric == benchmark.MetricSteadyInitTime && series.Count() <= 1 {
				continue
			}
			b.WriteString(statRow(ri, cmp, m))
		}
	}
	return b.String()
}

func sectionHeader(name string, expanded bool) string {
	arrow := "▸"
	if expanded {
		arrow = "▾"
	}
	return sectionStyle.Render(arrow + " " + name)
}

func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "    %s %s\n", labelStyle.Render(fmt.Sprintf("%-15s", label+":")), value)
}

func statRow(ri benchmark.ResultInfo, baseline *benchmark.ResultInfo, m benchmark.MetricInfo) string {
	series, _ := ri.Result.Series(m.Metric)
	value := series.Value(ri.Aggregation)

	line := fmt.Sprintf("    %s %10s %-10s", labelStyle.Render(fmt.Sprintf("%-20s", m.Label)), FormatValue(value), m.Unit)
	if baseline != nil {
		if d, ok := benchmark.CompareEntries(ri, *baseline, m.Metric); ok {
			line += " " + RenderDelta(d)
		}
	}
	if series.Count() > 1 {
		line += "  " + mutedStyle.Render(fmt.Sprintf("min %s  p25 %s  med %s  p75 %s  max %s",
			FormatValue(series.Min), FormatValue(series.P25), FormatValue(series.Median),
			FormatValue(series.P75), FormatValue(series.Max)))
		line += "  " + Sparkline(series.Values)
	}
	return line + "\n"
}
