package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commonspace/internal/availability"
	bookingserrors "commonspace/internal/bookings/errors"
	"commonspace/internal/notification"
	"commonspace/pkg/config"
	"commonspace/pkg/logger"
	"commonspace/pkg/metrics"
	"commonspace/pkg/model"
	"commonspace/pkg/worker"
)

const source = "scheduler"

type Repository interface {
	FindForSweep(ctx context.Context, completedSince time.Time) ([]*model.Booking, error)
	TransitionStatus(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) error
}

type Notifier interface {
	Reminder(ctx context.Context, booking *model.Booking)
	FeedbackRequest(ctx context.Context, booking *model.Booking)
	BookingStatusChanged(ctx context.Context, booking *model.Booking)
}

// Scheduler moves bookings through their time-driven states and sends the
// reminder and feedback emails that depend on them.
type Scheduler struct {
	repo     Repository
	notifier Notifier
	dedup    notification.Dedup
	cfg      *config.Config
	log      *logger.Logger
	periodic *worker.Periodic
}

// New builds a Scheduler. A nil dedup falls back to an in-process one.
func New(repo Repository, notifier Notifier, dedup notification.Dedup, cfg *config.Config, log *logger.Logger) *Scheduler {
	if dedup == nil {
		dedup = notification.NewMemoryDedup(cfg.ReminderDedupTTL)
	}
	s := &Scheduler{
		repo:     repo,
		notifier: notifier,
		dedup:    dedup,
		cfg:      cfg,
		log:      log.Component("lifecycle"),
	}
	s.periodic = worker.NewPeriodic("lifecycle", cfg.LifecycleInterval, s.Tick, s.log)
	return s
}

func (s *Scheduler) Start(ctx context.Context) { s.periodic.Start(ctx) }

func (s *Scheduler) Stop() { s.periodic.Stop() }

// Tick runs one sweep. Overlapping ticks are safe: every transition is
// conditional on the status the sweep read, so a booking another tick already
// moved is skipped. Per-booking failures are collected and the sweep goes on.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	loc := s.location()
	now = now.In(loc)

	bookings, err := s.repo.FindForSweep(ctx, now.Add(-s.cfg.FeedbackWindow))
	if err != nil {
		return fmt.Errorf("failed to load bookings for sweep: %w", err)
	}

	tomorrow := now.AddDate(0, 0, 1).Format(availability.DateLayout)

	var errs []error
	var transitioned int
	for _, b := range bookings {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		s.remind(ctx, b, tomorrow)
		s.requestFeedback(ctx, b, now)

		moved, err := s.advance(ctx, b, now, loc)
		if err != nil {
			s.log.Error("Failed to advance booking", "booking_id", b.ID, "status", b.Status, "error", err)
			errs = append(errs, fmt.Errorf("booking %s: %w", b.ID, err))
			continue
		}
		if moved {
			transitioned++
		}
	}

	if transitioned > 0 || len(errs) > 0 {
		s.log.Info("Lifecycle sweep finished", "scanned", len(bookings), "transitioned", transitioned, "failed", len(errs))
	}
	return errors.Join(errs...)
}

// advance applies Decide's result. Losing the race to another writer is not
// an error.
func (s *Scheduler) advance(ctx context.Context, b *model.Booking, now time.Time, loc *time.Location) (bool, error) {
	to, ok, err := Decide(b, now, s.cfg.NoShowGrace, loc)
	if err != nil || !ok {
		return false, err
	}

	from := b.Status
	if err := s.repo.TransitionStatus(ctx, b.ID, from, to, now); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusConflict) {
			s.log.Debug("Booking already moved on", "booking_id", b.ID, "from", from, "to", to)
			return false, nil
		}
		return false, err
	}

	metrics.StatusTransitionsTotal.WithLabelValues(string(from), string(to), source).Inc()
	s.log.Info("Booking status advanced", "booking_id", b.ID, "from", from, "to", to)

	updated := *b
	updated.Status = to
	at := now.UTC()
	updated.StatusUpdatedAt = &at
	updated.UpdatedAt = at
	s.notifier.BookingStatusChanged(ctx, &updated)
	return true, nil
}

func (s *Scheduler) remind(ctx context.Context, b *model.Booking, tomorrow string) {
	if b.Status != model.StatusConfirmed || b.Date != tomorrow {
		return
	}
	if s.claim(ctx, notification.ReminderKey(b.ID, b.Date)) {
		s.notifier.Reminder(ctx, b)
	}
}

func (s *Scheduler) requestFeedback(ctx context.Context, b *model.Booking, now time.Time) {
	if b.Status != model.StatusCompleted || b.StatusUpdatedAt == nil {
		return
	}
	at := *b.StatusUpdatedAt
	if at.Before(now.Add(-s.cfg.FeedbackWindow)) || at.After(now) {
		return
	}
	if s.claim(ctx, notification.FeedbackKey(b.ID)) {
		s.notifier.FeedbackRequest(ctx, b)
	}
}

// claim treats an unreachable de-dup store as a successful claim.
func (s *Scheduler) claim(ctx context.Context, key string) bool {
	ok, err := s.dedup.Claim(ctx, key)
	if err != nil {
		s.log.Warn("Notification de-dup unavailable", "key", key, "error", err)
		return true
	}
	return ok
}

func (s *Scheduler) location() *time.Location {
	if s.cfg.Location != nil {
		return s.cfg.Location
	}
	return time.Local
}
