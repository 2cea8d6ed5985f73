package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrSlotUnavailable = errors.New("time slot is no longer available")

	ErrSlotLocked = errors.New("another booking for this venue day is in progress")

	// ErrStatusConflict means a conditional status update found the booking
	// in a different status than expected.
	ErrStatusConflict = errors.New("booking status changed concurrently")
)
