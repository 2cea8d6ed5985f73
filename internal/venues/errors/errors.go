package errors

import "errors"

var (
	// ErrNotFound is returned when a venue is not found by ID
	ErrNotFound = errors.New("venue not found")

	// ErrInvalidID is returned when an ID format is invalid
	ErrInvalidID = errors.New("invalid venue ID format")
)
