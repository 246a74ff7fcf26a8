package model_test

import (
	"testing"

	"github.com/kitaoji/hensachi/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseDecimal(t *testing.T) {
	Convey("Given decimal strings off the wire", t, func() {
		Convey("Then plain and fractional values parse", func() {
			v, err := model.ParseDecimal("52.50")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 52.5)

			v, err = model.ParseDecimal("-3")
			So(err, ShouldBeNil)
			So(v, ShouldEqual, -3)
		})

		Convey("Then junk is rejected", func() {
			_, err := model.ParseDecimal("")
			So(err, ShouldNotBeNil)
			_, err = model.ParseDecimal("12,5")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestFormatting(t *testing.T) {
	Convey("Given display formatting helpers", t, func() {
		Convey("Scores render at 2 decimals", func() {
			So(model.FormatScore(50), ShouldEqual, "50.00")
			So(model.FormatScore(61.238), ShouldEqual, "61.24")
		})

		Convey("The headline renders at 1 decimal", func() {
			So(model.FormatHeadline(61.238), ShouldEqual, "61.2")
		})

		Convey("Percents trim trailing zeros", func() {
			So(model.FormatPercent(7), ShouldEqual, "7")
			So(model.FormatPercent(7.1), ShouldEqual, "7.1")
			So(model.FormatPercent(7.125), ShouldEqual, "7.13")
		})
	})
}
