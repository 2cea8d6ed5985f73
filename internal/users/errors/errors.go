package errors

import "errors"

var (
	// ErrNotFound is returned when no user has the given id
	ErrNotFound = errors.New("user not found")
)
