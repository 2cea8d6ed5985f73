package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commonspace/internal/availability"
	"commonspace/pkg/config"
	"commonspace/pkg/logger"
	"commonspace/pkg/model"
	"commonspace/pkg/worker"
)

type UserLister interface {
	Find(ctx context.Context, filter model.UserFilter, limit int, offset int64) ([]*model.User, error)
}

type BookingFinder interface {
	Find(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error)
}

type WeeklyNotifier interface {
	WeeklySummary(ctx context.Context, user *model.User, bookings []*model.Booking)
}

// DigestScheduler sends every user a summary of their confirmed bookings
// for the coming week. It wakes every DigestInterval and only acts during
// the configured weekday and hour.
type DigestScheduler struct {
	users    UserLister
	bookings BookingFinder
	notifier WeeklyNotifier
	dedup    Dedup
	cfg      *config.Config
	log      *logger.Logger
	periodic *worker.Periodic
}

func NewDigestScheduler(users UserLister, bookings BookingFinder, notifier WeeklyNotifier, dedup Dedup, cfg *config.Config) *DigestScheduler {
	if dedup == nil {
		dedup = NewMemoryDedup(cfg.ReminderDedupTTL)
	}
	d := &DigestScheduler{
		users:    users,
		bookings: bookings,
		notifier: notifier,
		dedup:    dedup,
		cfg:      cfg,
		log:      cfg.Log.Component("digest"),
	}
	d.periodic = worker.NewPeriodic("digest", cfg.DigestInterval, d.Tick, d.log)
	return d
}

func (d *DigestScheduler) Start(ctx context.Context) { d.periodic.Start(ctx) }

func (d *DigestScheduler) Stop() { d.periodic.Stop() }

// Tick sends the weekly summaries if now falls in the digest hour.
// A failure for one user is logged and the rest are still processed.
func (d *DigestScheduler) Tick(ctx context.Context, now time.Time) error {
	now = now.In(d.location())
	if now.Weekday() != time.Weekday(d.cfg.DigestWeekday) || now.Hour() != d.cfg.DigestHour {
		return nil
	}

	users, err := d.users.Find(ctx, model.UserFilter{}, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to list users for weekly summary: %w", err)
	}

	var errs []error
	var sent int
	for _, user := range users {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		ok, err := d.summarize(ctx, user, now)
		if err != nil {
			d.log.Error("Failed to prepare weekly summary", "user_id", user.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if ok {
			sent++
		}
	}

	d.log.Info("Weekly summaries processed", "users", len(users), "sent", sent, "failed", len(errs))
	return errors.Join(errs...)
}

func (d *DigestScheduler) summarize(ctx context.Context, user *model.User, now time.Time) (bool, error) {
	upcoming, err := d.Upcoming(ctx, user.ID, now)
	if err != nil {
		return false, err
	}
	if len(upcoming) == 0 {
		return false, nil
	}

	claimed, err := d.dedup.Claim(ctx, WeeklyKey(user.ID, now.Format(availability.DateLayout)))
	if err != nil {
		d.log.Warn("Weekly summary de-dup unavailable, sending anyway", "user_id", user.ID, "error", err)
	} else if !claimed {
		return false, nil
	}

	d.notifier.WeeklySummary(ctx, user, upcoming)
	return true, nil
}

// Upcoming returns the user's confirmed bookings starting within
// [now, now+DigestHorizon], ordered by date and time.
func (d *DigestScheduler) Upcoming(ctx context.Context, userID string, now time.Time) ([]*model.Booking, error) {
	loc := d.location()
	now = now.In(loc)
	until := now.Add(d.cfg.DigestHorizon)

	candidates, err := d.bookings.Find(ctx, model.BookingFilter{
		UserID:   userID,
		Statuses: []model.BookingStatus{model.StatusConfirmed},
		DateFrom: now.Format(availability.DateLayout),
		DateTo:   until.Format(availability.DateLayout),
	}, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for user %s: %w", userID, err)
	}

	upcoming := make([]*model.Booking, 0, len(candidates))
	for _, b := range candidates {
		start, err := availability.Instant(b.Date, b.Time, loc)
		if err != nil {
			d.log.Warn("Skipping malformed booking", "booking_id", b.ID, "error", err)
			continue
		}
		if !start.Before(now) && !start.After(until) {
			upcoming = append(upcoming, b)
		}
	}
	return upcoming, nil
}

func (d *DigestScheduler) location() *time.Location {
	if d.cfg.Location != nil {
		return d.cfg.Location
	}
	return time.Local
}
