package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commonspace/internal/auth"
	"commonspace/internal/availability"
	bookingserrors "commonspace/internal/bookings/errors"
	"commonspace/internal/bookings/repository"
	"commonspace/internal/bookings/validator"
	venueserrors "commonspace/internal/venues/errors"
	"commonspace/pkg/config"
	apperrors "commonspace/pkg/errors"
	"commonspace/pkg/metrics"
	"commonspace/pkg/model"
	"commonspace/pkg/sanitizer"
	"commonspace/pkg/validation"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// VenueReader is the part of the venue store bookings depend on.
type VenueReader interface {
	FindByID(ctx context.Context, id string) (*model.Venue, error)
}

// Notifier receives booking events. Implementations must not fail the caller:
// delivery problems are theirs to log.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingStatusChanged(ctx context.Context, booking *model.Booking)
}

type BookingService interface {
	Create(ctx context.Context, caller *auth.Principal, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, caller *auth.Principal, id string) (*model.Booking, error)
	List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	ListForUser(ctx context.Context, caller *auth.Principal, limit int, offset int64) ([]*model.Booking, int64, error)
	ListForVenue(ctx context.Context, caller *auth.Principal, venueID string, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	UpdateStatus(ctx context.Context, caller *auth.Principal, id string, update *model.BookingStatusUpdate) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	venues    VenueReader
	notifier  Notifier
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	venues VenueReader,
	notifier Notifier,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		venues:    venues,
		notifier:  notifier,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create books a package at a venue for the caller. The booking starts out
// pending. Capacity is re-checked against committed bookings while holding the
// venue day lock, inside the same transaction as the insert.
func (s *bookingService) Create(ctx context.Context, caller *auth.Principal, req *model.BookingRequest) (*model.Booking, error) {
	s.sanitize(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		return nil, s.validationError("Booking validation failed", err)
	}

	venue, err := s.findVenue(ctx, req.VenueID)
	if err != nil {
		return nil, err
	}
	if !venue.IsActive() {
		return nil, apperrors.Validation("Venue is not accepting bookings", map[string]any{"venueId": venue.ID})
	}

	pkg, ok := venue.Package(req.PackageID)
	if !ok {
		return nil, apperrors.Validation("Package not found for venue", map[string]any{"packageId": req.PackageID})
	}

	start, err := availability.Instant(req.Date, req.Time, s.cfg.Location)
	if err != nil {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"time": err.Error()})
	}
	if start.Before(s.now()) {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"date": "booking cannot start in the past"})
	}

	if err := availability.CheckOpeningHours(venue, req.Date, req.Time, pkg.Duration); err != nil {
		return nil, apperrors.Validation("Requested time is outside the venue's opening hours", map[string]any{"error": err.Error()})
	}

	booking := &model.Booking{
		VenueID:      venue.ID,
		UserID:       caller.UserID,
		UserName:     caller.Name,
		UserEmail:    caller.Email,
		VenueName:    venue.Name,
		PackageID:    pkg.ID,
		PackageName:  pkg.Name,
		PackagePrice: pkg.Price,
		Date:         req.Date,
		Time:         req.Time,
		Duration:     pkg.Duration,
		Status:       model.StatusPending,
	}

	err = s.withVenueDayLock(ctx, venue.ID, req.Date, func() error {
		return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			// The driver may run this again after a transient error.
			booking.ID = ""
			if err := s.checkCapacity(sessCtx, venue, booking, ""); err != nil {
				return err
			}
			if err := s.repo.Create(sessCtx, booking); err != nil {
				return apperrors.Internal("Failed to create booking", err)
			}
			return nil
		})
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "venue_id", venue.ID, "date", req.Date, "time", req.Time, "error", err)
		return nil, err
	}

	metrics.BookingsCreatedTotal.Inc()
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"venue_id", booking.VenueID,
		"user_id", booking.UserID,
		"date", booking.Date,
		"time", booking.Time,
	)

	s.notifier.BookingCreated(ctx, booking)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, caller *auth.Principal, id string) (*model.Booking, error) {
	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.UserID == caller.UserID {
		return booking, nil
	}

	venue, err := s.findVenue(ctx, booking.VenueID)
	if err != nil && !apperrors.HasCode(err, apperrors.CodeNotFound) {
		return nil, err
	}
	if !auth.CanViewBooking(caller, booking, venue) && !auth.IsAdmin(caller.Role) {
		return nil, apperrors.Forbidden("You cannot view this booking")
	}

	return booking, nil
}

func (s *bookingService) List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	if err := s.validator.ValidateFilter(&filter); err != nil {
		return nil, 0, s.validationError("Invalid booking filter", err)
	}
	return s.list(ctx, filter, limit, offset)
}

func (s *bookingService) ListForUser(ctx context.Context, caller *auth.Principal, limit int, offset int64) ([]*model.Booking, int64, error) {
	return s.list(ctx, model.BookingFilter{UserID: caller.UserID}, limit, offset)
}

func (s *bookingService) ListForVenue(ctx context.Context, caller *auth.Principal, venueID string, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	venue, err := s.findVenue(ctx, venueID)
	if err != nil {
		return nil, 0, err
	}
	if !auth.CanManageVenue(caller, venue) {
		return nil, 0, apperrors.Forbidden("You cannot manage bookings for this venue")
	}
	if err := s.validator.ValidateFilter(&filter); err != nil {
		return nil, 0, s.validationError("Invalid booking filter", err)
	}

	filter.VenueID = venue.ID
	filter.UserID = ""
	return s.list(ctx, filter, limit, offset)
}

// UpdateStatus applies a manual status change. The write only lands if the
// booking is still in the status it was read in.
func (s *bookingService) UpdateStatus(ctx context.Context, caller *auth.Principal, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		return nil, s.validationError("Invalid status update", err)
	}

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	venue, err := s.findVenue(ctx, booking.VenueID)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			return nil, err
		}
		venue = nil
	}

	if !auth.CanViewBooking(caller, booking, venue) && !auth.IsAdmin(caller.Role) {
		return nil, apperrors.Forbidden("You cannot change this booking")
	}

	from, to := booking.Status, update.Status
	if from == to {
		return booking, nil
	}
	if err := authorizeTransition(caller, booking, venue, from, to); err != nil {
		return nil, err
	}

	now := s.now()
	if to == model.StatusConfirmed {
		if venue == nil {
			return nil, apperrors.Validation("Venue no longer exists", map[string]any{"venueId": booking.VenueID})
		}
		err = s.withVenueDayLock(ctx, venue.ID, booking.Date, func() error {
			return s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
				if err := s.checkCapacity(sessCtx, venue, booking, booking.ID); err != nil {
					return err
				}
				return s.repo.TransitionStatus(sessCtx, booking.ID, from, to, now)
			})
		})
	} else {
		err = s.repo.TransitionStatus(ctx, booking.ID, from, to, now)
	}
	if err != nil {
		switch {
		case errors.Is(err, bookingserrors.ErrStatusConflict):
			return nil, apperrors.Conflict("Booking status changed in the meantime, reload and try again")
		case apperrors.IsAppError(err):
			return nil, err
		default:
			s.cfg.Log.Error("Failed to update booking status", "id", id, "error", err)
			return nil, apperrors.Internal("Failed to update booking status", err)
		}
	}

	metrics.StatusTransitionsTotal.WithLabelValues(string(from), string(to), "manual").Inc()
	booking.Status = to
	booking.StatusUpdatedAt = &now
	booking.UpdatedAt = now

	s.cfg.Log.Info("Booking status updated",
		"id", booking.ID,
		"from", from,
		"to", to,
		"by", caller.UserID,
		"role", caller.Role,
	)

	s.notifier.BookingStatusChanged(ctx, booking)
	return booking, nil
}

// --- Helpers ---

// authorizeTransition decides whether caller may move booking from -> to.
// Automatic states are never set by hand; reversals need an admin.
func authorizeTransition(caller *auth.Principal, booking *model.Booking, venue *model.Venue, from, to model.BookingStatus) error {
	switch to {
	case model.StatusInProgress, model.StatusCompleted, model.StatusNoShow:
		return apperrors.Validation("Status is managed automatically", map[string]any{"status": to})
	}

	invalid := apperrors.Validation(
		fmt.Sprintf("Cannot change booking status from %s to %s", from, to),
		map[string]any{"from": from, "to": to},
	)

	switch {
	case auth.CanOverrideStatus(caller.Role):
		if model.CanTransition(from, to) || model.CanOverride(from, to) {
			return nil
		}
		return invalid
	case auth.CanManageVenue(caller, venue):
		if model.CanTransition(from, to) {
			return nil
		}
		if model.CanOverride(from, to) {
			return apperrors.Forbidden("Only administrators can reverse a booking status")
		}
		return invalid
	case booking.UserID == caller.UserID:
		if to != model.StatusCancelled {
			return apperrors.Forbidden("You can only cancel your own bookings")
		}
		if model.CanTransition(from, to) {
			return nil
		}
		return invalid
	default:
		return apperrors.Forbidden("You cannot change the status of this booking")
	}
}

func (s *bookingService) list(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.Count(gctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", err)
			return apperrors.Internal("Failed to count bookings", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bookings, err = s.repo.Find(gctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", err)
			return apperrors.Internal("Failed to retrieve bookings", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return bookings, count, nil
}

func (s *bookingService) getBooking(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) findVenue(ctx context.Context, id string) (*model.Venue, error) {
	venue, err := s.venues.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, venueserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Venue", id)
		}
		if errors.Is(err, venueserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid venue ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve venue", err)
	}
	return venue, nil
}

// checkCapacity re-reads the venue day and verifies booking still fits among
// committed bookings. excludeID keeps a booking from counting against itself.
func (s *bookingService) checkCapacity(ctx context.Context, venue *model.Venue, booking *model.Booking, excludeID string) error {
	existing, err := s.repo.FindByVenueAndDate(ctx, venue.ID, booking.Date, availability.CommitActive)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}
	if excludeID != "" {
		existing = availability.Without(existing, excludeID)
	}

	candidate := availability.Candidate{Date: booking.Date, StartTime: booking.Time, DurationHours: booking.Duration}
	result, err := availability.Compute(candidate, existing, venue.Capacity, availability.CommitActive)
	if err != nil {
		return apperrors.Internal("Failed to compute availability", err)
	}
	if !result.Available {
		metrics.BookingRejectionsTotal.WithLabelValues("unavailable").Inc()
		return apperrors.Conflict(bookingserrors.ErrSlotUnavailable.Error()).WithDetails(map[string]any{
			"remainingCapacity": result.RemainingCapacity,
		})
	}
	return nil
}

// withVenueDayLock runs fn while holding the advisory lock for venue+date so
// concurrent check-and-reserve operations on the same day are serialized.
func (s *bookingService) withVenueDayLock(ctx context.Context, venueID, date string, fn func() error) error {
	lockID := fmt.Sprintf("booking_lock_%s_%s", venueID, date)
	owner := uuid.NewString()

	if err := s.lockRepo.Acquire(ctx, lockID, owner, s.cfg.SlotLockTTL); err != nil {
		if errors.Is(err, bookingserrors.ErrSlotLocked) {
			metrics.BookingRejectionsTotal.WithLabelValues("locked").Inc()
			return apperrors.Conflict("This venue is currently being booked by another request. Please try again.")
		}
		return apperrors.Internal("Failed to acquire booking lock", err)
	}
	defer func() {
		if err := s.lockRepo.Release(context.WithoutCancel(ctx), lockID, owner); err != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "error", err)
		}
	}()

	return fn()
}

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.VenueID = sanitizer.TrimAndNormalize(req.VenueID)
	req.PackageID = sanitizer.TrimAndNormalize(req.PackageID)
	req.Date = sanitizer.TrimAndNormalize(req.Date)
	req.Time = sanitizer.TrimAndNormalize(req.Time)
}

func (s *bookingService) validationError(message string, err error) error {
	s.cfg.Log.Warn(message, "error", err)
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
