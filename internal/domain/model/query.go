// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"

	"github.com/okian/duelodds/internal/domain/aggregate"
	"github.com/okian/duelodds/internal/domain/schedule"
)

// Kind names one of the probability queries.
type Kind string

// Query kinds.
const (
	KindTie   Kind = "tie"
	KindWin   Kind = "win"
	KindLoss  Kind = "loss"
	KindScore Kind = "score"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{KindTie, KindWin, KindLoss, KindScore}

// ParseKind accepts a kind name (case-insensitive).
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindTie, KindWin, KindLoss, KindScore:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown query kind %q", schedule.ErrInvalidArgument, s)
}

// Mode returns the comparison the kind aggregates with.
func (k Kind) Mode() aggregate.Mode {
	switch k {
	case KindTie:
		return aggregate.Equal
	case KindWin:
		return aggregate.Greater
	case KindLoss:
		return aggregate.Less
	case KindScore:
		return aggregate.GreaterOrEqual
	default:
		return 0
	}
}

// UsesTieValue reports whether the target is the schedule's tie value rather
// than a caller-supplied threshold.
func (k Kind) UsesTieValue() bool { return k != KindScore }

// Query describes one probability request. Either Events (default 1..N
// schedule) or Points (custom schedule) selects the schedule.
type Query struct {
	ID      string    // optional caller reference, echoed in results
	Kind    Kind      // which probability to compute
	Events  int       // number of events for the default schedule
	Points  []float64 // custom schedule; takes precedence over Events
	WinProb float64   // per-event win probability of the player of interest
	Target  float64   // threshold for KindScore, ignored otherwise
}

// Schedule resolves the scoring schedule the query refers to.
func (q Query) Schedule() (schedule.Schedule, error) {
	if q.Points != nil {
		if q.Events != 0 && q.Events != len(q.Points) {
			return schedule.Schedule{}, fmt.Errorf("%w: events=%d disagrees with %d points",
				schedule.ErrInvalidArgument, q.Events, len(q.Points))
		}
		return schedule.Custom(q.Points)
	}
	return schedule.Default(q.Events)
}

// Result is the outcome of evaluating a Query.
type Result struct {
	QueryID     string
	Kind        Kind
	Probability float64
	Err         error
}
