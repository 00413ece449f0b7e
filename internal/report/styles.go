// internal/report/styles.go
// Package report renders stored results for terminals and files.
package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/edgebench/internal/benchmark"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Bold(true)
	sectionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	baselineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	improvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	regressStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// FormatValue prints a metric value the way every view shows it.
func FormatValue(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// RenderDelta colours a delta green when it is an improvement and red otherwise.
func RenderDelta(d benchmark.Delta) string {
	if !d.Valid {
		return ""
	}
	if d.Improved {
		return improvedStyle.Render(d.String())
	}
	return regressStyle.Render(d.String())
}

// ShortID trims an id to its first eight characters for tables.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
