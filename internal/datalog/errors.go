package datalog

import "errors"

// Domain-specific errors for datalog operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidReading is returned when a reading is missing required fields.
	ErrInvalidReading = errors.New("datalog: reading missing robot or port")

	// ErrInvalidRange is returned when a query time range is inverted.
	ErrInvalidRange = errors.New("datalog: query range end precedes start")

	// ErrInvalidRetention is returned when a prune window is not positive.
	ErrInvalidRetention = errors.New("datalog: retention must be positive")
)
