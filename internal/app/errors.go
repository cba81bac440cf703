package service

import "errors"

// Sentinel errors returned by the service.
var (
	// ErrNotStarted is returned by Batch before Start or after Stop.
	ErrNotStarted = errors.New("service not started")

	// ErrBatchTooLarge is returned when a batch exceeds the configured size.
	ErrBatchTooLarge = errors.New("batch too large")
)
