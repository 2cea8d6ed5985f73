package availability

import (
	"fmt"
	"time"

	"commonspace/pkg/model"
)

// StatusSet decides which bookings occupy capacity.
type StatusSet []model.BookingStatus

var (
	// DisplayActive is what the venue page shows as taken. Pending requests
	// count so users are not offered slots that are likely to fill.
	DisplayActive = StatusSet{model.StatusPending, model.StatusConfirmed}
	// CommitActive is what booking creation enforces against.
	CommitActive = StatusSet{model.StatusConfirmed, model.StatusInProgress}
)

func (s StatusSet) Contains(status model.BookingStatus) bool {
	for _, active := range s {
		if active == status {
			return true
		}
	}
	return false
}

type Candidate struct {
	Date          string
	StartTime     string
	DurationHours int
}

type Result struct {
	Available         bool `json:"available"`
	RemainingCapacity int  `json:"remainingCapacity"`
	MaxOverlap        int  `json:"maxOverlap"`
}

// Compute counts, for every minute of the candidate's [start, end) range, how
// many active bookings contain that minute. The peak count across the whole
// range is the overlap the new booking would meet.
//
// Arithmetic is done in UTC so the naive date and time compare as wall clock
// values regardless of the process zone.
func Compute(c Candidate, existing []*model.Booking, capacity int, active StatusSet) (Result, error) {
	if c.DurationHours <= 0 {
		return Result{}, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidCandidate, c.DurationHours)
	}
	start, err := Instant(c.Date, c.StartTime, time.UTC)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}

	span := c.DurationHours * 60
	perMinute := make([]int, span)

	for _, b := range existing {
		if b == nil || !active.Contains(b.Status) {
			continue
		}
		bStart, bEnd, err := Interval(b, time.UTC)
		if err != nil {
			return Result{}, err
		}

		from := max(0, int(bStart.Sub(start)/time.Minute))
		to := min(span, int(bEnd.Sub(start)/time.Minute))
		for m := from; m < to; m++ {
			perMinute[m]++
		}
	}

	maxOverlap := 0
	for _, n := range perMinute {
		maxOverlap = max(maxOverlap, n)
	}

	remaining := capacity - maxOverlap
	return Result{
		Available:         remaining > 0,
		RemainingCapacity: remaining,
		MaxOverlap:        maxOverlap,
	}, nil
}

// Without drops the booking with the given id, used when re-checking a
// booking against its own venue day.
func Without(bookings []*model.Booking, id string) []*model.Booking {
	out := make([]*model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b != nil && b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
