package schedule

import "errors"

// ErrInvalidArgument is returned for negative event counts and unusable point values.
// It is the single argument-validation condition shared by the domain packages.
var ErrInvalidArgument = errors.New("invalid argument")
