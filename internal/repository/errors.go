// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the booking engines to distinguish between different
// failure scenarios without string matching on driver errors.
package repository

import "errors"

// ErrFlightNotFound is returned when a flight lookup yields no rows.
var ErrFlightNotFound = errors.New("flight not found")

// ErrSeatNotFound is returned when one or more requested seats do not
// exist or do not belong to the flight being operated on.
var ErrSeatNotFound = errors.New("seat not found")
