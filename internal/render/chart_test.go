package render_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/kitaoji/hensachi/internal/domain/model"
	"github.com/kitaoji/hensachi/internal/render"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWritePNG(t *testing.T) {
	Convey("Given too few points to plot", t, func() {
		var buf bytes.Buffer

		Convey("Then rendering refuses with a sentinel and writes nothing", func() {
			err := render.WritePNG(&buf, "t", nil)
			So(errors.Is(err, render.ErrTooFewPoints), ShouldBeTrue)

			err = render.WritePNG(&buf, "t", []model.ChartPoint{{Seq: 1, Value: 10, Label: "#1"}})
			So(errors.Is(err, render.ErrTooFewPoints), ShouldBeTrue)

			So(buf.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given a plottable series", t, func() {
		points := []model.ChartPoint{
			{Seq: 1, Value: 48.2, Label: "2026/01/01 12:00"},
			{Seq: 2, Value: 52.7, Label: "2026/01/02 12:00"},
			{Seq: 3, Value: 55.0, Label: "2026/01/03 12:00"},
		}

		Convey("When rendered", func() {
			var buf bytes.Buffer
			err := render.WritePNG(&buf, "typing-speed", points)

			Convey("Then a PNG comes out", func() {
				So(err, ShouldBeNil)
				So(buf.Len(), ShouldBeGreaterThan, 8)
				So(buf.Bytes()[:8], ShouldResemble, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
			})
		})
	})
}
