package availability

import "errors"

var (
	ErrInvalidCandidate    = errors.New("invalid candidate slot")
	ErrMalformedBooking    = errors.New("booking has malformed date or time")
	ErrVenueClosed         = errors.New("venue is closed on the requested day")
	ErrOutsideOpeningHours = errors.New("requested time is outside opening hours")
)
