package odds

import (
	"github.com/okian/duelodds/internal/domain/outcome"
	"github.com/okian/duelodds/pkg/logger"
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithMaxEvents sets the largest event count a query may enumerate. Values
// outside [0, outcome.MaxEvents] are ignored.
func WithMaxEvents(n int) Option {
	return func(c *Calculator) {
		if n >= 0 && n <= outcome.MaxEvents {
			c.maxEvents = n
		}
	}
}

// WithMaxDistributionPoints caps the distinct totals Distribution may return.
// Non-positive values are ignored.
func WithMaxDistributionPoints(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.maxPoints = n
		}
	}
}

// WithLogger sets a custom logger for the calculator.
func WithLogger(l logger.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.logger = l
		}
	}
}
