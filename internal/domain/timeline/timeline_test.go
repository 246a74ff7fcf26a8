package timeline_test

import (
	"testing"
	"time"

	"github.com/kitaoji/hensachi/internal/domain/model"
	"github.com/kitaoji/hensachi/internal/domain/timeline"
	. "github.com/smartystreets/goconvey/convey"
)

func TestChartSeries(t *testing.T) {
	Convey("Given a most-recent-first window with a non-numeric entry", t, func() {
		window := model.HistoryWindow{
			{ID: 3, Value: "30", SubmittedAt: "2026-03-01T12:00:00Z"},
			{ID: 2, Value: "x", SubmittedAt: "2026-02-01T12:00:00Z"},
			{ID: 1, Value: "10", SubmittedAt: "2026-01-01T12:00:00Z"},
		}

		Convey("When deriving the chart series", func() {
			points := timeline.ChartSeries(window)

			Convey("Then order is reversed, the bad entry dropped, and indices dense", func() {
				So(points, ShouldHaveLength, 2)
				So(points[0].Seq, ShouldEqual, 1)
				So(points[0].Value, ShouldEqual, 10)
				So(points[1].Seq, ShouldEqual, 2)
				So(points[1].Value, ShouldEqual, 30)
			})

			Convey("And labels come from the timestamps in local time", func() {
				want := mustLocal("2026-01-01T12:00:00Z")
				So(points[0].Label, ShouldEqual, want)
			})

			Convey("And calling again yields the identical output", func() {
				So(timeline.ChartSeries(window), ShouldResemble, points)
			})
		})
	})

	Convey("Given entries without usable timestamps", t, func() {
		window := model.HistoryWindow{
			{ID: 2, Value: "7.5", SubmittedAt: "yesterday-ish"},
			{ID: 1, Value: "5", SubmittedAt: ""},
		}

		Convey("Then labels fall back to the sequence index", func() {
			points := timeline.ChartSeries(window)
			So(points, ShouldHaveLength, 2)
			So(points[0].Label, ShouldEqual, "#1")
			So(points[1].Label, ShouldEqual, "#2")
		})
	})

	Convey("Given an empty or single-entry window", t, func() {
		Convey("Then zero or one points is valid output, not an error", func() {
			So(timeline.ChartSeries(nil), ShouldHaveLength, 0)
			So(timeline.ChartSeries(model.HistoryWindow{{ID: 1, Value: "4"}}), ShouldHaveLength, 1)
		})
	})

	Convey("Given a window of only non-numeric values", t, func() {
		window := model.HistoryWindow{
			{ID: 2, Value: ""},
			{ID: 1, Value: "NaN-ish"},
		}
		So(timeline.ChartSeries(window), ShouldHaveLength, 0)
	})
}

func mustLocal(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		panic(err)
	}
	return t.Local().Format("2006/01/02 15:04")
}
