package odds

import (
	"fmt"

	"github.com/okian/duelodds/internal/domain/outcome"
)

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	// ErrInvalidArgument covers bad probabilities, event counts and schedules.
	ErrInvalidArgument = outcome.ErrInvalidArgument

	// ErrEventLimit is returned when a schedule exceeds the configured ceiling.
	// It also matches ErrInvalidArgument.
	ErrEventLimit = fmt.Errorf("%w: event count above ceiling", ErrInvalidArgument)

	// ErrDistributionLimit is returned when a distribution has more distinct
	// totals than the configured cap. It also matches ErrInvalidArgument.
	ErrDistributionLimit = fmt.Errorf("%w: too many distinct totals", ErrInvalidArgument)
)
