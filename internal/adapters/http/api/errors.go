package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrUnavailable  = errors.New("unavailable")
	ErrInternal     = errors.New("internal error")
)

// opError tags an error with the operation that produced it and its kind.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
}

// Is matches the kind so callers can test with errors.Is.
func (e *opError) Is(target error) bool { return target == e.kind }

func (e *opError) Unwrap() error { return e.err }

// NewKind returns an error of the given kind for op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// WrapKind tags err with op and kind. It returns nil when err is nil.
func WrapKind(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, kind: kind, err: err}
}
