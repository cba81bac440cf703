package model

import (
	"errors"
	"testing"

	"github.com/okian/duelodds/internal/domain/aggregate"
	"github.com/okian/duelodds/internal/domain/schedule"
	. "github.com/smartystreets/goconvey/convey"
)

func TestKind(t *testing.T) {
	Convey("Given the query kinds", t, func() {
		Convey("Then each should map to its comparison", func() {
			So(KindTie.Mode(), ShouldEqual, aggregate.Equal)
			So(KindWin.Mode(), ShouldEqual, aggregate.Greater)
			So(KindLoss.Mode(), ShouldEqual, aggregate.Less)
			So(KindScore.Mode(), ShouldEqual, aggregate.GreaterOrEqual)
			So(Kind("draw").Mode(), ShouldEqual, aggregate.Mode(0))
		})

		Convey("Then only score should take a caller target", func() {
			So(KindScore.UsesTieValue(), ShouldBeFalse)
			So(KindTie.UsesTieValue(), ShouldBeTrue)
		})

		Convey("Then names should parse regardless of case", func() {
			k, err := ParseKind(" WIN ")
			So(err, ShouldBeNil)
			So(k, ShouldEqual, KindWin)

			_, err = ParseKind("draw")
			So(errors.Is(err, schedule.ErrInvalidArgument), ShouldBeTrue)
		})
	})
}

func TestQuerySchedule(t *testing.T) {
	Convey("Given a query", t, func() {
		Convey("When only events are set", func() {
			s, err := Query{Events: 3}.Schedule()

			Convey("Then the default schedule should be used", func() {
				So(err, ShouldBeNil)
				So(s.IsCustom(), ShouldBeFalse)
				So(s.Len(), ShouldEqual, 3)
			})
		})

		Convey("When points are set", func() {
			s, err := Query{Points: []float64{4, 4}}.Schedule()

			Convey("Then the custom schedule should be used", func() {
				So(err, ShouldBeNil)
				So(s.IsCustom(), ShouldBeTrue)
				So(s.TieValue(), ShouldEqual, 4)
			})
		})

		Convey("When events agree with the number of points", func() {
			_, err := Query{Events: 2, Points: []float64{1, 1}}.Schedule()
			So(err, ShouldBeNil)
		})

		Convey("When events disagree with the number of points", func() {
			_, err := Query{Events: 3, Points: []float64{1, 1}}.Schedule()
			So(errors.Is(err, schedule.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When the event count is negative", func() {
			_, err := Query{Events: -2}.Schedule()
			So(err, ShouldNotBeNil)
		})
	})
}
