package selection_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kitaoji/hensachi/internal/domain/subject"
	"github.com/kitaoji/hensachi/internal/selection"
	"github.com/kitaoji/hensachi/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestNewBinding(t *testing.T) {
	Convey("Given a location holding a well-formed identifier", t, func() {
		loc := selection.NewMemLocation("u:typing-speed")
		b := selection.NewBinding(loc, subject.Default())

		Convey("Then the subject is seeded from it", func() {
			So(b.Current(), ShouldResemble, subject.NewUserMetric("typing-speed"))
			So(loc.Read(), ShouldEqual, "u:typing-speed")
		})
	})

	Convey("Given an empty location", t, func() {
		loc := selection.NewMemLocation("")
		b := selection.NewBinding(loc, subject.Default())

		Convey("Then the default applies and is written back", func() {
			So(b.Current(), ShouldResemble, subject.Default())
			So(loc.Read(), ShouldEqual, "rank:platinum-2")
		})
	})

	Convey("Given a malformed identifier", t, func() {
		loc := selection.NewMemLocation("d:slug-without-metric")
		b := selection.NewBinding(loc, subject.Default())

		Convey("Then the default applies and the location is repaired", func() {
			So(b.Current(), ShouldResemble, subject.Default())
			So(loc.Read(), ShouldEqual, "rank:platinum-2")
		})
	})

	Convey("Given a rank code outside the known ladder", t, func() {
		loc := selection.NewMemLocation("rank:plastic-7")
		b := selection.NewBinding(loc, subject.Default())

		Convey("Then it passes through unvalidated", func() {
			So(b.Current().RankCode, ShouldEqual, "plastic-7")
		})
	})
}

func TestSelect(t *testing.T) {
	Convey("Given a bound selection", t, func() {
		loc := selection.NewMemLocation("")
		b := selection.NewBinding(loc, subject.Default())

		Convey("When a new subject is activated", func() {
			b.Select(subject.NewDatasetMetric("japan-mountains", "elevation"))

			Convey("Then subject and location stay in lockstep", func() {
				So(b.Current().DatasetSlug, ShouldEqual, "japan-mountains")
				So(loc.Read(), ShouldEqual, "d:japan-mountains:m:elevation")
			})
		})
	})
}

func TestShareURL(t *testing.T) {
	Convey("Given a web base URL", t, func() {
		Convey("Then the subject rides a query parameter", func() {
			got := selection.ShareURL("https://hensachi.example/view", subject.NewUserMetric("typing-speed"))
			So(got, ShouldEqual, "https://hensachi.example/view?subject=u%3Atyping-speed")
		})

		Convey("And existing query parameters survive", func() {
			got := selection.ShareURL("https://hensachi.example/view?lang=ja", subject.Default())
			So(got, ShouldContainSubstring, "lang=ja")
			So(got, ShouldContainSubstring, "subject=rank%3Aplatinum-2")
		})
	})
}

func TestFileLocation(t *testing.T) {
	Convey("Given a file-backed location", t, func() {
		path := filepath.Join(t.TempDir(), "state", "selection")
		loc := selection.NewFileLocation(path)

		Convey("Then a missing file reads as empty", func() {
			So(loc.Read(), ShouldEqual, "")
		})

		Convey("When an identifier is written", func() {
			loc.Replace("rank:gold-2")

			Convey("Then it survives a fresh location over the same path", func() {
				So(selection.NewFileLocation(path).Read(), ShouldEqual, "rank:gold-2")
			})

			Convey("And replace overwrites rather than appends", func() {
				loc.Replace("u:typing-speed")
				So(loc.Read(), ShouldEqual, "u:typing-speed")
			})
		})
	})
}
