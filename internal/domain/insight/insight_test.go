package insight_test

import (
	"strings"
	"testing"

	"github.com/kitaoji/hensachi/internal/domain/insight"
	"github.com/kitaoji/hensachi/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(v float64) *float64 { return &v }

func TestClassify_TopPercentile(t *testing.T) {
	Convey("Given a top percentile", t, func() {
		Convey("When it is at or under 1", func() {
			So(insight.Classify(ptr(1), nil), ShouldStartWith, insight.BandVeryHigh)
			So(insight.Classify(ptr(0.3), nil), ShouldStartWith, insight.BandVeryHigh)
			So(insight.Classify(ptr(0), nil), ShouldStartWith, insight.BandVeryHigh)
		})

		Convey("When it is at or under 5", func() {
			So(insight.Classify(ptr(5), nil), ShouldStartWith, insight.BandStrong)
			So(insight.Classify(ptr(1.01), nil), ShouldStartWith, insight.BandStrong)
		})

		Convey("When it is just over 5 the band drops", func() {
			So(insight.Classify(ptr(5.0001), nil), ShouldStartWith, insight.BandAboveAverage)
		})

		Convey("When it is at or under 20", func() {
			So(insight.Classify(ptr(20), nil), ShouldStartWith, insight.BandAboveAverage)
		})

		Convey("When it is at or under 50", func() {
			So(insight.Classify(ptr(50), nil), ShouldStartWith, insight.BandRoughlyAverage)
			So(insight.Classify(ptr(20.5), nil), ShouldStartWith, insight.BandRoughlyAverage)
		})

		Convey("When it is over 50", func() {
			So(insight.Classify(ptr(50.01), nil), ShouldStartWith, insight.BandRoomToGrow)
			So(insight.Classify(ptr(99), nil), ShouldStartWith, insight.BandRoomToGrow)
		})

		Convey("When it is above 100 it is compared, not clamped", func() {
			So(insight.Classify(ptr(140), nil), ShouldStartWith, insight.BandRoomToGrow)
		})

		Convey("And a bottom percentile is also present, the top one wins", func() {
			So(insight.Classify(ptr(3), ptr(97)), ShouldStartWith, insight.BandStrong)
		})

		Convey("And the percent is embedded in the message", func() {
			So(insight.Classify(ptr(7), nil), ShouldContainSubstring, "top 7%")
			So(insight.Classify(ptr(7.125), nil), ShouldContainSubstring, "top 7.13%")
		})
	})
}

func TestClassify_BottomPercentile(t *testing.T) {
	Convey("Given only a bottom percentile", t, func() {
		Convey("When it is at or under 20", func() {
			So(insight.Classify(nil, ptr(20)), ShouldStartWith, insight.BandAboveAverage)
		})

		Convey("When it is at or under 50", func() {
			So(insight.Classify(nil, ptr(50)), ShouldStartWith, insight.BandRoughlyAverage)
		})

		Convey("When it is over 50", func() {
			So(insight.Classify(nil, ptr(80)), ShouldStartWith, insight.BandRoomToGrow)
		})

		// The bottom path deliberately has no very-high/strong band.
		Convey("When it is tiny it still tops out at above average", func() {
			So(insight.Classify(nil, ptr(0.5)), ShouldStartWith, insight.BandAboveAverage)
		})

		Convey("And the percent is labeled as bottom", func() {
			So(insight.Classify(nil, ptr(33)), ShouldContainSubstring, "bottom 33%")
		})
	})
}

func TestClassify_NoDistribution(t *testing.T) {
	Convey("Given neither percentile", t, func() {
		Convey("Then the fixed insufficient-data message comes back", func() {
			So(insight.Classify(nil, nil), ShouldEqual, insight.MsgInsufficient)
		})
	})

	Convey("Given a nil result", t, func() {
		So(insight.FromResult(nil), ShouldEqual, insight.MsgInsufficient)
	})

	Convey("Given a result with percentiles", t, func() {
		top := 4.0
		res := &model.ScoreResult{Score: 62.1, TopPercent: &top}
		So(strings.HasPrefix(insight.FromResult(res), insight.BandStrong), ShouldBeTrue)
	})
}
