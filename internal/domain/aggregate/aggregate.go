// Package aggregate sums outcome masses whose point total satisfies a
// comparison against a target. Tie, win, loss and threshold queries are all
// instances of the same Sum with a different Mode.
package aggregate

import (
	"fmt"

	"github.com/okian/duelodds/internal/domain/outcome"
)

// Mode selects the comparison applied to each total.
type Mode int

// Supported comparison modes.
const (
	Equal Mode = iota + 1
	Greater
	Less
	GreaterOrEqual
)

var modeNames = map[Mode]string{
	Equal:          "equal",
	Greater:        "greater",
	Less:           "less",
	GreaterOrEqual: "greater_or_equal",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Match reports whether total satisfies the comparison against target.
// Equal is an exact floating-point comparison.
func (m Mode) Match(total, target float64) bool {
	switch m {
	case Equal:
		return total == target
	case Greater:
		return total > target
	case Less:
		return total < target
	case GreaterOrEqual:
		return total >= target
	default:
		return false
	}
}

// Sum adds masses[i] for every i whose totals[i] satisfies mode against
// target, in index order.
func Sum(totals, masses []float64, mode Mode, target float64) (float64, error) {
	if _, ok := modeNames[mode]; !ok {
		return 0, fmt.Errorf("%w: unknown comparison %s", outcome.ErrInvalidArgument, mode)
	}
	if len(totals) != len(masses) {
		return 0, fmt.Errorf("%w: %d totals but %d masses", outcome.ErrInvalidArgument, len(totals), len(masses))
	}

	var probability float64
	for i, total := range totals {
		if mode.Match(total, target) {
			probability += masses[i]
		}
	}
	return probability, nil
}
