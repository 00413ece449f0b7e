// internal/report/chart.go
package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mwiater/edgebench/internal/benchmark"
)

// WriteChart plots the per-run samples of metric m for one entry and saves the
// image at path. The format follows the file extension (png, svg, pdf).
func WriteChart(path string, ri benchmark.ResultInfo, m benchmark.Metric) error {
	series, ok := ri.Result.Series(m)
	if !ok || series.Count() == 0 {
		return fmt.Errorf("result %s has no samples for %s", ri.ID, m)
	}
	info := m.Info()

	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}
	p.Title.Text = fmt.Sprintf("%s - %s (%s)", ri.Result.BasicInfo.ModelName, info.Label, ri.Result.BasicInfo.Accelerator)
	p.X.Label.Text = "Run"
	p.Y.Label.Text = info.Unit

	points := toPlotterXYs(series.Values)
	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("build line: %w", err)
	}
	line.Color = color.RGBA{R: 66, G: 103, B: 210, A: 255}
	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return fmt.Errorf("build scatter: %w", err)
	}
	scatter.Color = line.Color

	agg := series.Value(ri.Aggregation)
	ref := plotter.NewFunction(func(float64) float64 { return agg })
	ref.Color = color.RGBA{R: 200, G: 60, B: 60, A: 255}
	ref.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(plotter.NewGrid(), line, scatter, ref)
	p.Legend.Add("samples", line, scatter)
	p.Legend.Add(fmt.Sprintf("%s %s", ri.Aggregation, FormatValue(agg)), ref)
	p.Legend.Top = true

	p.Y.Min, p.Y.Max = paddedRange(series.Values)
	p.X.Min, p.X.Max = 0.5, float64(series.Count())+0.5

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart directory %s: %w", dir, err)
		}
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

// ChartFileName is the default file name of a chart for entry id and metric m.
func ChartFileName(ri benchmark.ResultInfo, m benchmark.Metric) string {
	return fmt.Sprintf("%s_%s_%s.png", benchmark.Slugify(ri.Result.BasicInfo.ModelName), ShortID(ri.ID), m)
}

func toPlotterXYs(values []float64) plotter.XYs {
	points := make(plotter.XYs, len(values))
	for i := range points {
		points[i].X = float64(i + 1)
		points[i].Y = values[i]
	}
	return points
}
