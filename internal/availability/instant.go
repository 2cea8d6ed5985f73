package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"commonspace/pkg/model"
)

const (
	DateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04"
)

// Instant composes a stored date and HH:MM time into a point in time.
// Dates carry no zone, so loc decides how they are read. A nil loc means time.Local.
func Instant(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(dateTimeLayout, date+"T"+clock, loc)
}

// Interval returns the half-open [start, end) range a booking occupies.
func Interval(b *model.Booking, loc *time.Location) (time.Time, time.Time, error) {
	start, err := Instant(b.Date, b.Time, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: booking %s: %v", ErrMalformedBooking, b.ID, err)
	}
	return start, start.Add(time.Duration(b.Duration) * time.Hour), nil
}

// minuteOfDay parses HH:MM into minutes since midnight.
func minuteOfDay(clock string) (int, error) {
	h, m, ok := strings.Cut(clock, ":")
	if !ok {
		return 0, fmt.Errorf("time %q is not HH:MM", clock)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("time %q has an invalid hour", clock)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time %q has an invalid minute", clock)
	}
	return hour*60 + minute, nil
}

func formatMinute(t int) string {
	return fmt.Sprintf("%02d:%02d", t/60, t%60)
}
