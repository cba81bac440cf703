// Package odds answers tie, win, loss and score-threshold questions about a
// two-player competition by enumerating every outcome sequence exactly.
//
// Each query builds the totals and mass sequences from scratch, aggregates
// them and discards them; the Calculator holds configuration only and is safe
// for concurrent use.
package odds

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/duelodds/internal/domain/aggregate"
	"github.com/okian/duelodds/internal/domain/model"
	"github.com/okian/duelodds/internal/domain/outcome"
	"github.com/okian/duelodds/internal/domain/schedule"
	"github.com/okian/duelodds/internal/domain/types"
	"github.com/okian/duelodds/pkg/logger"

	"gonum.org/v1/gonum/stat"
)

// DefaultMaxEvents bounds the enumeration when no ceiling is configured.
// 2^24 outcomes take two 128 MiB sequences.
const DefaultMaxEvents = 24

// DefaultMaxDistributionPoints bounds the distinct totals a distribution may
// report. A default schedule has at most N(N+1)/2+1 of them; custom points can
// reach 2^N.
const DefaultMaxDistributionPoints = 1 << 16

// Calculator evaluates probability queries.
type Calculator struct {
	maxEvents int
	maxPoints int
	logger    logger.Logger
}

// New creates a Calculator with configuration options.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		maxEvents: DefaultMaxEvents,
		maxPoints: DefaultMaxDistributionPoints,
		logger:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxEvents returns the configured event ceiling.
func (c *Calculator) MaxEvents() int { return c.maxEvents }

// MaxDistributionPoints returns the configured cap on distinct totals.
func (c *Calculator) MaxDistributionPoints() int { return c.maxPoints }

// ByCount returns the default 1..n schedule.
func ByCount(n int) (schedule.Schedule, error) { return schedule.Default(n) }

// ByPoints returns a custom schedule.
func ByPoints(points []float64) (schedule.Schedule, error) { return schedule.Custom(points) }

// TieValue returns half of the schedule's total points.
func (c *Calculator) TieValue(s schedule.Schedule) float64 { return s.TieValue() }

// TieProbability is the probability that both competitors finish level.
func (c *Calculator) TieProbability(ctx context.Context, s schedule.Schedule, p float64) (float64, error) {
	return c.evaluate(ctx, model.KindTie, s, p, s.TieValue())
}

// WinProbability is the probability of finishing strictly above the tie value.
// Ties are not resolved; a tiebreaker event is outside this model.
func (c *Calculator) WinProbability(ctx context.Context, s schedule.Schedule, p float64) (float64, error) {
	return c.evaluate(ctx, model.KindWin, s, p, s.TieValue())
}

// LossProbability is the probability of finishing strictly below the tie value.
func (c *Calculator) LossProbability(ctx context.Context, s schedule.Schedule, p float64) (float64, error) {
	return c.evaluate(ctx, model.KindLoss, s, p, s.TieValue())
}

// ScoreProbability is the probability of scoring at least target points.
func (c *Calculator) ScoreProbability(ctx context.Context, s schedule.Schedule, p, target float64) (float64, error) {
	return c.evaluate(ctx, model.KindScore, s, p, target)
}

// Probability evaluates q according to its kind.
func (c *Calculator) Probability(ctx context.Context, q model.Query) (float64, error) {
	s, err := q.Schedule()
	if err != nil {
		return 0, err
	}
	switch q.Kind {
	case model.KindTie:
		return c.TieProbability(ctx, s, q.WinProb)
	case model.KindWin:
		return c.WinProbability(ctx, s, q.WinProb)
	case model.KindLoss:
		return c.LossProbability(ctx, s, q.WinProb)
	case model.KindScore:
		return c.ScoreProbability(ctx, s, q.WinProb, q.Target)
	default:
		return 0, fmt.Errorf("%w: unknown query kind %q", ErrInvalidArgument, q.Kind)
	}
}

// Report computes the tie value and the tie, win and loss probabilities from
// a single enumeration.
func (c *Calculator) Report(ctx context.Context, s schedule.Schedule, p float64) (types.Report, error) {
	totals, masses, err := c.sequences(ctx, s, p)
	if err != nil {
		return types.Report{}, err
	}
	tv := s.TieValue()
	r := types.Report{
		Events:       s.Len(),
		ScheduleKind: s.Kind(),
		WinProb:      p,
		TieValue:     tv,
	}
	for _, part := range []struct {
		mode aggregate.Mode
		dst  *float64
	}{
		{aggregate.Equal, &r.Tie},
		{aggregate.Greater, &r.Win},
		{aggregate.Less, &r.Loss},
	} {
		if *part.dst, err = aggregate.Sum(totals, masses, part.mode, tv); err != nil {
			return types.Report{}, err
		}
	}
	return r, nil
}

// Distribution returns the probability of every distinct total, ascending,
// together with the mean and standard deviation of the score. Schedules with
// more distinct totals than the configured cap fail with ErrDistributionLimit.
func (c *Calculator) Distribution(ctx context.Context, s schedule.Schedule, p float64) (types.Distribution, error) {
	totals, masses, err := c.sequences(ctx, s, p)
	if err != nil {
		return types.Distribution{}, err
	}

	byTotal := make(map[float64]float64)
	for i, t := range totals {
		byTotal[t] += masses[i]
		if len(byTotal) > c.maxPoints {
			c.logger.Warn(ctx, "distribution above point cap",
				logger.Int("events", s.Len()),
				logger.Int("max_points", c.maxPoints),
			)
			return types.Distribution{}, fmt.Errorf("%w: more than %d distinct totals", ErrDistributionLimit, c.maxPoints)
		}
	}
	points := make([]types.Point, 0, len(byTotal))
	for t, m := range byTotal {
		points = append(points, types.Point{Total: t, Probability: m})
	}
	sort.Slice(points, func(a, b int) bool { return points[a].Total < points[b].Total })

	mean, std := stat.PopMeanStdDev(totals, masses)
	return types.Distribution{
		Points: points,
		Summary: types.Summary{
			Outcomes: len(totals),
			Mean:     mean,
			StdDev:   std,
		},
	}, nil
}

func (c *Calculator) evaluate(ctx context.Context, kind model.Kind, s schedule.Schedule, p, target float64) (float64, error) {
	totals, masses, err := c.sequences(ctx, s, p)
	if err != nil {
		return 0, err
	}
	prob, err := aggregate.Sum(totals, masses, kind.Mode(), target)
	if err != nil {
		return 0, err
	}
	c.logger.Debug(ctx, "query evaluated",
		logger.String("kind", string(kind)),
		logger.String("schedule", s.Kind()),
		logger.Int("events", s.Len()),
		logger.Float64("win_prob", p),
		logger.Float64("target", target),
		logger.Float64("probability", prob),
	)
	return prob, nil
}

// sequences validates the inputs and builds the parallel totals and masses.
func (c *Calculator) sequences(ctx context.Context, s schedule.Schedule, p float64) ([]float64, []float64, error) {
	if err := outcome.ValidateProbability(p); err != nil {
		return nil, nil, err
	}
	if n := s.Len(); n > c.maxEvents {
		c.logger.Warn(ctx, "event count above ceiling",
			logger.Int("events", n),
			logger.Int("max_events", c.maxEvents),
		)
		return nil, nil, fmt.Errorf("%w: %d events, ceiling is %d", ErrEventLimit, n, c.maxEvents)
	}

	totals, err := outcome.Totals(s)
	if err != nil {
		return nil, nil, err
	}
	masses, err := outcome.Masses(s.Len(), p)
	if err != nil {
		return nil, nil, err
	}
	return totals, masses, nil
}
