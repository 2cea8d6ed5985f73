package availability

import (
	"fmt"
	"time"

	"commonspace/pkg/model"
)

var halfHours = [...]int{0, 30}

// GenerateSlots lists the 30 minute start times of a venue day for one package,
// each annotated with its display availability. A missing venue, unknown
// package or closed day yields no slots.
//
// Steps walk whole hours from the opening hour up to, but not including, the
// closing hour. Steps before the opening minute or after the closing minute are
// skipped. Whether the package still fits before closing is left to the commit
// path.
func GenerateSlots(venue *model.Venue, packageID, date string, bookings []*model.Booking) ([]model.Slot, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}
	if venue == nil {
		return nil, nil
	}
	pkg, ok := venue.Package(packageID)
	if !ok {
		return nil, nil
	}
	hours, open := venue.OpeningHours.For(day.Weekday())
	if !open {
		return nil, nil
	}

	openAt, err := minuteOfDay(hours.Open)
	if err != nil {
		return nil, nil
	}
	closeAt, err := minuteOfDay(hours.Close)
	if err != nil {
		return nil, nil
	}

	var slots []model.Slot
	for hour := openAt / 60; hour < closeAt/60; hour++ {
		for _, minute := range halfHours {
			t := hour*60 + minute
			if t < openAt || t > closeAt {
				continue
			}

			clock := formatMinute(t)
			slot := model.Slot{Time: clock}

			result, err := Compute(Candidate{Date: date, StartTime: clock, DurationHours: pkg.Duration}, bookings, venue.Capacity, DisplayActive)
			if err != nil {
				return nil, fmt.Errorf("slot %s: %w", clock, err)
			}
			slot.Available = result.Available
			slot.RemainingCapacity = result.RemainingCapacity
			slots = append(slots, slot)
		}
	}

	return slots, nil
}

// CheckOpeningHours enforces that [start, start+duration) lies inside the
// venue's hours for that weekday.
func CheckOpeningHours(venue *model.Venue, date, clock string, durationHours int) error {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}
	hours, open := venue.OpeningHours.For(day.Weekday())
	if !open {
		return ErrVenueClosed
	}

	openAt, err := minuteOfDay(hours.Open)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVenueClosed, err)
	}
	closeAt, err := minuteOfDay(hours.Close)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVenueClosed, err)
	}
	start, err := minuteOfDay(clock)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}

	if start < openAt || start+durationHours*60 > closeAt {
		return fmt.Errorf("%w: %s-%s", ErrOutsideOpeningHours, hours.Open, hours.Close)
	}
	return nil
}
