package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrEmptySeries is returned when there is nothing to plot.
var ErrEmptySeries = errors.New("chart series is empty")

// Chart geometry and labels.
const (
	ChartTitle  = "Example Visualization"
	ChartXLabel = "X-axis"
	ChartYLabel = "Y-axis"

	chartWidth  = 10 * vg.Inch
	chartHeight = 6 * vg.Inch
)

// PlaceholderSeries is the sample series drawn after every run. It is not
// derived from the report.
func PlaceholderSeries() []float64 {
	return []float64{1, 2, 3, 4, 5}
}

// RenderChart draws series as a line chart (x is the zero-based index) and
// writes it to path. The image format follows the file extension and
// defaults to PNG.
func RenderChart(series []float64, path string) error {
	if len(series) == 0 {
		return ErrEmptySeries
	}

	p := plot.New()
	p.Title.Text = ChartTitle
	p.X.Label.Text = ChartXLabel
	p.Y.Label.Text = ChartYLabel

	pts := make(plotter.XYs, len(series))
	for i, v := range series {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("chart line: %w", err)
	}
	p.Add(line)

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch format {
	case "png", "jpg", "jpeg", "svg", "pdf", "tif", "tiff", "eps":
	default:
		format = "png"
	}
	img, err := p.WriterTo(chartWidth, chartHeight, format)
	if err != nil {
		return fmt.Errorf("chart encoder: %w", err)
	}

	return writeFile(path, func(w io.Writer) error {
		_, err := img.WriteTo(w)
		return err
	})
}
