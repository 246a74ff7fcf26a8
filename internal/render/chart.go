// Package render draws the recent-history series as a line chart.
package render

import (
	"io"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/kitaoji/hensachi/internal/domain/model"
	"github.com/kitaoji/hensachi/internal/domain/timeline"
)

const (
	chartWidth  = 720
	chartHeight = 360
)

// WritePNG renders a chronological ChartPoint series to PNG. Fewer than
// timeline.MinPlotPoints points is not an error of the series itself, but
// there is nothing to draw; callers show a placeholder instead.
func WritePNG(w io.Writer, title string, points []model.ChartPoint) error {
	if len(points) < timeline.MinPlotPoints {
		return ErrTooFewPoints
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	ticks := make([]chart.Tick, len(points))
	for i, p := range points {
		xs[i] = float64(p.Seq)
		ys[i] = p.Value
		ticks[i] = chart.Tick{Value: float64(p.Seq), Label: p.Label}
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Ticks: ticks,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
			},
		},
	}

	return graph.Render(chart.PNG, w)
}
