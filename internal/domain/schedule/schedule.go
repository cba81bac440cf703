// Package schedule models the points awarded to the winner of each event.
//
// A schedule is either the default one, where event j is worth j+1 points and
// nothing is stored, or a custom vector supplied by the caller. Both variants
// are immutable once constructed.
package schedule

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// Schedule is the ordered mapping from event index to point value.
type Schedule struct {
	n      int
	points []float64 // nil for the default schedule
}

// Default returns the 1..n schedule.
func Default(n int) (Schedule, error) {
	if n < 0 {
		return Schedule{}, fmt.Errorf("%w: negative event count %d", ErrInvalidArgument, n)
	}
	return Schedule{n: n}, nil
}

// Custom returns a schedule backed by a copy of points. Point values must be
// finite and positive.
func Custom(points []float64) (Schedule, error) {
	for j, v := range points {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Schedule{}, fmt.Errorf("%w: point value at event %d is not finite", ErrInvalidArgument, j)
		}
		if v <= 0 {
			return Schedule{}, fmt.Errorf("%w: point value at event %d is not positive (%g)", ErrInvalidArgument, j, v)
		}
	}
	cp := make([]float64, len(points))
	copy(cp, points)
	return Schedule{n: len(cp), points: cp}, nil
}

// Len returns the number of events.
func (s Schedule) Len() int { return s.n }

// IsCustom reports whether the schedule was supplied by the caller.
func (s Schedule) IsCustom() bool { return s.points != nil }

// Kind returns "custom" or "default", used as a metrics and log label.
func (s Schedule) Kind() string {
	if s.IsCustom() {
		return "custom"
	}
	return "default"
}

// Points returns the value awarded for winning event j. It panics when j is
// out of range, like a slice index would.
func (s Schedule) Points(j int) float64 {
	if j < 0 || j >= s.n {
		panic(fmt.Sprintf("schedule: event index %d out of range [0,%d)", j, s.n))
	}
	if s.points != nil {
		return s.points[j]
	}
	return float64(j + 1)
}

// Values materialises the schedule. The returned slice is a fresh copy.
func (s Schedule) Values() []float64 {
	out := make([]float64, s.n)
	for j := range out {
		out[j] = s.Points(j)
	}
	return out
}

// Sum returns the total of all point values, accumulated in event order.
func (s Schedule) Sum() float64 {
	return lo.Sum(s.Values())
}

// TieValue returns the score at which both competitors hold the same total.
func (s Schedule) TieValue() float64 {
	if s.points != nil {
		return CustomTieValue(s.points)
	}
	// n is validated on construction so the closed form cannot fail here.
	v, _ := DefaultTieValue(s.n)
	return v
}

// DefaultTieValue returns n(n+1)/4, the tie value of the 1..n schedule.
func DefaultTieValue(n int) (float64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: negative event count %d", ErrInvalidArgument, n)
	}
	return float64(n) * float64(n+1) / 4, nil
}

// CustomTieValue returns half the sum of points.
func CustomTieValue(points []float64) float64 {
	return lo.Sum(points) / 2
}
