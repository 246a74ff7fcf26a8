// Package timeline turns a bounded most-recent-first history window into a
// chronological, plot-ready series.
package timeline

import (
	"fmt"
	"strconv"
	"time"

	"github.com/kitaoji/hensachi/internal/domain/model"
)

// MinPlotPoints is the smallest series worth drawing as a line chart.
// Shorter output is still valid; the caller picks a placeholder instead.
const MinPlotPoints = 2

// labelLayout renders submission timestamps in local time.
const labelLayout = "2006/01/02 15:04"

// ChartSeries derives the plot series for a window. Entries are reversed to
// oldest-first order; an entry whose value does not parse as a number is
// skipped entirely and does not occupy a sequence slot. Labels come from the
// submission timestamp, or fall back to "#<seq>" when it is absent or
// unparsable. The transform is pure and deterministic.
func ChartSeries(window model.HistoryWindow) []model.ChartPoint {
	points := make([]model.ChartPoint, 0, len(window))
	for i := len(window) - 1; i >= 0; i-- {
		entry := window[i]
		v, err := strconv.ParseFloat(entry.Value, 64)
		if err != nil {
			continue
		}
		seq := len(points) + 1
		points = append(points, model.ChartPoint{
			Seq:   seq,
			Value: v,
			Label: entryLabel(entry, seq),
		})
	}
	return points
}

func entryLabel(entry model.HistoryEntry, seq int) string {
	if entry.SubmittedAt == "" {
		return fmt.Sprintf("#%d", seq)
	}
	t, err := time.Parse(time.RFC3339, entry.SubmittedAt)
	if err != nil {
		return fmt.Sprintf("#%d", seq)
	}
	return t.Local().Format(labelLayout)
}
