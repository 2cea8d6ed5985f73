package model

import "fmt"

type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusNoShow     BookingStatus = "no_show"
	StatusCancelled  BookingStatus = "cancelled"
)

var AllBookingStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusNoShow,
	StatusCancelled,
}

// forwardTransitions is the automatic and user-facing state machine.
// It has no cycles.
var forwardTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusInProgress, StatusNoShow, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

// overrideTransitions are reversals only an administrative action may perform.
var overrideTransitions = map[BookingStatus][]BookingStatus{
	StatusCancelled: {StatusConfirmed, StatusPending},
	StatusConfirmed: {StatusPending},
}

func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if status.IsValid() {
		return status, nil
	}
	return "", fmt.Errorf("unknown booking status: %q", s)
}

func (s BookingStatus) IsValid() bool {
	for _, known := range AllBookingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the scheduler will never move the booking again.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	default:
		return false
	}
}

func (s BookingStatus) String() string {
	return string(s)
}

func CanTransition(from, to BookingStatus) bool {
	return contains(forwardTransitions[from], to)
}

// CanOverride reports whether an administrative override may move from -> to.
func CanOverride(from, to BookingStatus) bool {
	return CanTransition(from, to) || contains(overrideTransitions[from], to)
}

func contains(statuses []BookingStatus, s BookingStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
