// Package outcome enumerates every win/loss sequence of an N-event
// competition and derives the per-sequence point totals and probability mass.
//
// Outcome index i in [0, 2^N) maps to the sequence whose event j was won by
// the player of interest iff bit j of i is set (least-significant bit is
// event 0). The mapping is a bijection, so walking the index space visits
// each sequence exactly once.
package outcome

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/okian/duelodds/internal/domain/schedule"
)

// MaxEvents is the largest event count whose index space fits an int.
const MaxEvents = bits.UintSize - 2

// ErrInvalidArgument is shared with the schedule package so callers only
// need to test a single condition.
var ErrInvalidArgument = schedule.ErrInvalidArgument

// Outcome is one expanded index.
type Outcome struct {
	// Won[j] is true when the player of interest won event j.
	Won []bool
	// Wins is the number of set flags.
	Wins int
}

// Size returns 2^n, the number of outcomes of an n-event competition.
func Size(n int) (int, error) {
	if n < 0 || n > MaxEvents {
		return 0, fmt.Errorf("%w: event count %d outside [0,%d]", ErrInvalidArgument, n, MaxEvents)
	}
	return 1 << n, nil
}

// Expand decomposes index into its n binary flags, least-significant bit first.
func Expand(index, n int) (Outcome, error) {
	size, err := Size(n)
	if err != nil {
		return Outcome{}, err
	}
	if index < 0 || index >= size {
		return Outcome{}, fmt.Errorf("%w: outcome index %d outside [0,%d)", ErrInvalidArgument, index, size)
	}

	o := Outcome{Won: make([]bool, n)}
	for j := 0; index != 0; j++ {
		if index%2 == 1 {
			o.Won[j] = true
			o.Wins++
		}
		index /= 2
	}
	return o, nil
}

// Totals returns the points scored by the player of interest for every
// outcome index under s. totals[0] is 0 and totals[2^N-1] is the schedule sum.
func Totals(s schedule.Schedule) ([]float64, error) {
	n := s.Len()
	size, err := Size(n)
	if err != nil {
		return nil, err
	}
	points := s.Values()

	totals := make([]float64, size)
	for i := range totals {
		o, err := Expand(i, n)
		if err != nil {
			return nil, err
		}
		var t float64
		for j, won := range o.Won {
			if won {
				t += points[j]
			}
		}
		totals[i] = t
	}
	return totals, nil
}

// Masses returns the probability of every outcome index when each event is
// won independently with probability p. The result sums to 1.
func Masses(n int, p float64) ([]float64, error) {
	if err := ValidateProbability(p); err != nil {
		return nil, err
	}
	size, err := Size(n)
	if err != nil {
		return nil, err
	}

	masses := make([]float64, size)
	for i := range masses {
		o, err := Expand(i, n)
		if err != nil {
			return nil, err
		}
		// math.Pow keeps p=0 and p=1 exact: 0^0 is 1 and x^0 is 1.
		masses[i] = math.Pow(p, float64(o.Wins)) * math.Pow(1-p, float64(n-o.Wins))
	}
	return masses, nil
}

// ValidateProbability rejects NaN and values outside [0,1].
func ValidateProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: win probability %g outside [0,1]", ErrInvalidArgument, p)
	}
	return nil
}
