package odds_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/okian/duelodds/internal/domain/model"
	"github.com/okian/duelodds/internal/domain/odds"
	"github.com/okian/duelodds/internal/domain/schedule"
	"github.com/okian/duelodds/internal/domain/types"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/stat/distuv"
)

func mustDefault(n int) schedule.Schedule {
	s, err := odds.ByCount(n)
	if err != nil {
		panic(err)
	}
	return s
}

func mustCustom(points ...float64) schedule.Schedule {
	s, err := odds.ByPoints(points)
	if err != nil {
		panic(err)
	}
	return s
}

func TestTieProbability(t *testing.T) {
	ctx := context.Background()
	calc := odds.New()

	Convey("Given a fair competition over sixteen events", t, func() {
		tie, err := calc.TieProbability(ctx, mustDefault(16), 0.5)

		Convey("Then the tie probability should be 1314/65536 exactly", func() {
			So(err, ShouldBeNil)
			So(tie, ShouldEqual, 0.020050048828125)
		})
	})

	Convey("Given small fair competitions", t, func() {
		want := map[int]float64{0: 1, 1: 0, 2: 0, 3: 0.25, 4: 0.125, 7: 0.0625, 8: 7.0 / 128}
		for n, w := range want {
			got, err := calc.TieProbability(ctx, mustDefault(n), 0.5)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, w)
		}
	})

	Convey("Given a biased custom schedule", t, func() {
		tie, err := calc.TieProbability(ctx, mustCustom(1, 2, 3), 0.3)

		Convey("Then only the two level sequences should contribute", func() {
			So(err, ShouldBeNil)
			So(tie, ShouldAlmostEqual, 0.21, 1e-12)
		})
	})
}

func TestWinLossProbability(t *testing.T) {
	ctx := context.Background()
	calc := odds.New()

	Convey("Given a fair sixteen-event competition", t, func() {
		s := mustDefault(16)
		win, err := calc.WinProbability(ctx, s, 0.5)
		So(err, ShouldBeNil)
		loss, err := calc.LossProbability(ctx, s, 0.5)
		So(err, ShouldBeNil)

		Convey("Then win and loss should be symmetric", func() {
			So(win, ShouldEqual, 32111.0/65536)
			So(loss, ShouldEqual, win)
		})
	})

	Convey("Given any schedule and probability", t, func() {
		for _, p := range []float64{0, 0.1, 0.37, 0.5, 0.9, 1} {
			for _, s := range []schedule.Schedule{mustDefault(6), mustCustom(3, 0.5, 2, 2, 7)} {
				tie, _ := calc.TieProbability(ctx, s, p)
				win, _ := calc.WinProbability(ctx, s, p)
				loss, _ := calc.LossProbability(ctx, s, p)
				So(tie+win+loss, ShouldAlmostEqual, 1, 1e-12)
			}
		}
	})

	Convey("Given the degenerate probabilities", t, func() {
		s := mustDefault(5)

		Convey("Then p=0 should always lose and p=1 should always win", func() {
			win, _ := calc.WinProbability(ctx, s, 0)
			loss, _ := calc.LossProbability(ctx, s, 0)
			So(win, ShouldEqual, 0)
			So(loss, ShouldEqual, 1)

			win, _ = calc.WinProbability(ctx, s, 1)
			loss, _ = calc.LossProbability(ctx, s, 1)
			So(win, ShouldEqual, 1)
			So(loss, ShouldEqual, 0)
		})
	})

	Convey("Given a custom schedule equal to 1..N", t, func() {
		for _, p := range []float64{0.2, 0.5, 0.8} {
			d, _ := calc.WinProbability(ctx, mustDefault(7), p)
			c, _ := calc.WinProbability(ctx, mustCustom(1, 2, 3, 4, 5, 6, 7), p)
			So(c, ShouldEqual, d)

			dt, _ := calc.TieProbability(ctx, mustDefault(7), p)
			ct, _ := calc.TieProbability(ctx, mustCustom(1, 2, 3, 4, 5, 6, 7), p)
			So(ct, ShouldEqual, dt)
		}
	})
}

func TestScoreProbability(t *testing.T) {
	ctx := context.Background()
	calc := odds.New()

	Convey("Given an all-ones schedule", t, func() {
		const n = 9
		ones := mustCustom(lo.RepeatBy(n, func(int) float64 { return 1 })...)

		Convey("Then thresholds should match the binomial distribution", func() {
			for _, p := range []float64{0.25, 0.5, 0.7} {
				b := distuv.Binomial{N: n, P: p}
				for k := 0; k <= n; k++ {
					got, err := calc.ScoreProbability(ctx, ones, p, float64(k))
					So(err, ShouldBeNil)
					want := 1.0
					if k > 0 {
						want = 1 - b.CDF(float64(k-1))
					}
					So(got, ShouldAlmostEqual, want, 1e-9)
				}

				tie, _ := calc.TieProbability(ctx, mustCustom(lo.RepeatBy(8, func(int) float64 { return 1 })...), p)
				So(tie, ShouldAlmostEqual, distuv.Binomial{N: 8, P: p}.Prob(4), 1e-9)
			}
		})
	})

	Convey("Given increasing thresholds", t, func() {
		s := mustDefault(8)
		prev := math.Inf(1)
		for target := -1.0; target <= 37; target += 0.5 {
			got, err := calc.ScoreProbability(ctx, s, 0.4, target)
			So(err, ShouldBeNil)
			So(got, ShouldBeLessThanOrEqualTo, prev+1e-15)
			prev = got
		}

		Convey("Then the extremes should be certain and impossible", func() {
			low, _ := calc.ScoreProbability(ctx, s, 0.4, 0)
			high, _ := calc.ScoreProbability(ctx, s, 0.4, 37)
			So(low, ShouldEqual, 1)
			So(high, ShouldEqual, 0)
		})
	})
}

func TestValidation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a calculator with a ceiling of four events", t, func() {
		calc := odds.New(odds.WithMaxEvents(4))
		So(calc.MaxEvents(), ShouldEqual, 4)

		Convey("When five events are requested", func() {
			_, err := calc.TieProbability(ctx, mustDefault(5), 0.5)

			Convey("Then the event limit should be reported as an invalid argument", func() {
				So(errors.Is(err, odds.ErrEventLimit), ShouldBeTrue)
				So(errors.Is(err, odds.ErrInvalidArgument), ShouldBeTrue)
			})
		})
	})

	Convey("Given an out-of-range ceiling option", t, func() {
		So(odds.New(odds.WithMaxEvents(-1)).MaxEvents(), ShouldEqual, odds.DefaultMaxEvents)
		So(odds.New(odds.WithMaxEvents(1000)).MaxEvents(), ShouldEqual, odds.DefaultMaxEvents)
	})

	Convey("Given invalid probabilities", t, func() {
		calc := odds.New()
		for _, p := range []float64{-0.01, 1.01, math.NaN()} {
			_, err := calc.WinProbability(ctx, mustDefault(3), p)
			So(errors.Is(err, odds.ErrInvalidArgument), ShouldBeTrue)
		}
	})
}

func TestProbabilityDispatch(t *testing.T) {
	ctx := context.Background()
	calc := odds.New()

	Convey("Given queries of each kind", t, func() {
		tie, err := calc.Probability(ctx, model.Query{Kind: model.KindTie, Events: 4, WinProb: 0.5})
		So(err, ShouldBeNil)
		So(tie, ShouldEqual, 0.125)

		score, err := calc.Probability(ctx, model.Query{Kind: model.KindScore, Points: []float64{1, 2, 3, 4}, WinProb: 0.5, Target: 8})
		So(err, ShouldBeNil)
		So(score, ShouldEqual, 3.0/16)

		_, err = calc.Probability(ctx, model.Query{Kind: "draw", Events: 2, WinProb: 0.5})
		So(errors.Is(err, odds.ErrInvalidArgument), ShouldBeTrue)

		_, err = calc.Probability(ctx, model.Query{Kind: model.KindWin, Events: 3, Points: []float64{1}, WinProb: 0.5})
		So(errors.Is(err, odds.ErrInvalidArgument), ShouldBeTrue)
	})
}

func TestReportAndDistribution(t *testing.T) {
	ctx := context.Background()
	calc := odds.New()

	Convey("Given the fair schedule 1,2,3,4", t, func() {
		s := mustCustom(1, 2, 3, 4)

		Convey("When a report is requested", func() {
			r, err := calc.Report(ctx, s, 0.5)

			Convey("Then it should carry every exhaustive outcome", func() {
				So(err, ShouldBeNil)
				So(r, ShouldResemble, types.Report{
					Events:       4,
					ScheduleKind: "custom",
					WinProb:      0.5,
					TieValue:     5,
					Tie:          0.125,
					Win:          0.4375,
					Loss:         0.4375,
				})
			})
		})

		Convey("When the distribution is requested", func() {
			d, err := calc.Distribution(ctx, s, 0.5)

			Convey("Then each total should carry its probability in ascending order", func() {
				So(err, ShouldBeNil)
				So(len(d.Points), ShouldEqual, 11)
				for i, pt := range d.Points {
					So(pt.Total, ShouldEqual, float64(i))
					want := 0.125
					if pt.Total <= 2 || pt.Total >= 8 {
						want = 0.0625
					}
					So(pt.Probability, ShouldEqual, want)
				}
				So(d.Summary.Outcomes, ShouldEqual, 16)
				So(d.Summary.Mean, ShouldAlmostEqual, 5, 1e-12)
				So(d.Summary.StdDev, ShouldAlmostEqual, math.Sqrt(7.5), 1e-12)
			})
		})
	})

	Convey("Given an empty competition", t, func() {
		d, err := calc.Distribution(ctx, mustDefault(0), 0.3)
		So(err, ShouldBeNil)
		So(d.Points, ShouldResemble, []types.Point{{Total: 0, Probability: 1}})

		r, err := calc.Report(ctx, mustDefault(0), 0.3)
		So(err, ShouldBeNil)
		So(r.Tie, ShouldEqual, 1)
		So(r.Win, ShouldEqual, 0)
		So(r.Loss, ShouldEqual, 0)
	})
}

func TestDistributionPointCap(t *testing.T) {
	ctx := context.Background()
	powers := lo.Times(12, func(i int) float64 { return math.Ldexp(1, i) })

	Convey("Given powers-of-two points, where every sequence has its own total", t, func() {
		s := mustCustom(powers...)

		Convey("When the cap is below 2^N", func() {
			calc := odds.New(odds.WithMaxDistributionPoints(1000))
			_, err := calc.Distribution(ctx, s, 0.5)

			Convey("Then the distribution should be refused as an invalid argument", func() {
				So(errors.Is(err, odds.ErrDistributionLimit), ShouldBeTrue)
				So(errors.Is(err, odds.ErrInvalidArgument), ShouldBeTrue)
			})
		})

		Convey("When the cap admits every total", func() {
			calc := odds.New(odds.WithMaxDistributionPoints(4096))
			d, err := calc.Distribution(ctx, s, 0.5)

			Convey("Then all 2^N totals should be reported", func() {
				So(err, ShouldBeNil)
				So(len(d.Points), ShouldEqual, 4096)
				So(d.Points[4095].Total, ShouldEqual, 4095)
			})
		})
	})

	Convey("Given the default cap", t, func() {
		calc := odds.New(odds.WithMaxDistributionPoints(0))

		Convey("Then non-positive options should be ignored", func() {
			So(calc.MaxDistributionPoints(), ShouldEqual, odds.DefaultMaxDistributionPoints)
		})

		Convey("Then a default schedule of the maximum size should fit", func() {
			d, err := calc.Distribution(ctx, mustDefault(20), 0.5)
			So(err, ShouldBeNil)
			So(len(d.Points), ShouldEqual, 20*21/2+1)
		})
	})
}
