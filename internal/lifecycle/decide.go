package lifecycle

import (
	"time"

	"commonspace/internal/availability"
	"commonspace/pkg/model"
)

// Decide returns the status b should move to at now, or ok=false when it
// stays put. It is pure; the caller applies the result conditionally.
//
// The in-progress check covers all of [start, end), so the no-show branch
// only runs when that check fails, which for a confirmed booking means now is
// before start or at/after end, and neither satisfies start+grace <= now < end.
// No-show is therefore never chosen, and a confirmed booking whose whole
// window passed between sweeps stays confirmed. Both behaviours are kept
// as-is; no-show is still reachable through a manual status update.
func Decide(b *model.Booking, now time.Time, grace time.Duration, loc *time.Location) (model.BookingStatus, bool, error) {
	if b.Status.IsTerminal() {
		return "", false, nil
	}

	start, end, err := availability.Interval(b, loc)
	if err != nil {
		return "", false, err
	}

	switch {
	case b.Status == model.StatusConfirmed && !now.Before(start) && now.Before(end):
		return model.StatusInProgress, true, nil
	case b.Status == model.StatusConfirmed && !now.Before(start.Add(grace)) && now.Before(end):
		return model.StatusNoShow, true, nil
	case b.Status == model.StatusInProgress && !now.Before(end):
		return model.StatusCompleted, true, nil
	}
	return "", false, nil
}
