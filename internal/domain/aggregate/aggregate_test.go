package aggregate

import (
	"errors"
	"testing"

	"github.com/okian/duelodds/internal/domain/outcome"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSum(t *testing.T) {
	Convey("Given totals and masses for four equally likely outcomes", t, func() {
		totals := []float64{0, 1, 2, 3}
		masses := []float64{0.25, 0.25, 0.25, 0.25}

		Convey("When summing with each mode against 1.5", func() {
			eq, _ := Sum(totals, masses, Equal, 1.5)
			gt, _ := Sum(totals, masses, Greater, 1.5)
			lt, _ := Sum(totals, masses, Less, 1.5)
			ge, _ := Sum(totals, masses, GreaterOrEqual, 2)

			Convey("Then each mode should pick the matching outcomes", func() {
				So(eq, ShouldEqual, 0)
				So(gt, ShouldEqual, 0.5)
				So(lt, ShouldEqual, 0.5)
				So(ge, ShouldEqual, 0.5)
			})
		})

		Convey("When Equal hits an exact total", func() {
			eq, err := Sum(totals, masses, Equal, 3)

			Convey("Then only that outcome should count", func() {
				So(err, ShouldBeNil)
				So(eq, ShouldEqual, 0.25)
			})
		})

		Convey("When the lengths differ", func() {
			_, err := Sum(totals, masses[:2], Equal, 0)
			So(errors.Is(err, outcome.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When the mode is unknown", func() {
			_, err := Sum(totals, masses, Mode(99), 0)
			So(errors.Is(err, outcome.ErrInvalidArgument), ShouldBeTrue)
		})
	})
}

func TestModeNames(t *testing.T) {
	Convey("Given the comparison modes", t, func() {
		So(Equal.String(), ShouldEqual, "equal")
		So(GreaterOrEqual.String(), ShouldEqual, "greater_or_equal")
		So(Mode(42).String(), ShouldEqual, "mode(42)")
		So(Mode(42).Match(1, 1), ShouldBeFalse)
	})
}
