package service

import (
	"context"
	"errors"

	"commonspace/internal/auth"
	"commonspace/internal/availability"
	venueserrors "commonspace/internal/venues/errors"
	"commonspace/internal/venues/repository"
	"commonspace/internal/venues/validator"
	"commonspace/pkg/config"
	apperrors "commonspace/pkg/errors"
	"commonspace/pkg/model"
	"commonspace/pkg/sanitizer"
	"commonspace/pkg/validation"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BookingReader is the read side of the bookings store used for slots.
type BookingReader interface {
	FindByVenueAndDate(ctx context.Context, venueID, date string, statuses []model.BookingStatus) ([]*model.Booking, error)
}

type VenueService interface {
	Create(ctx context.Context, caller *auth.Principal, venue *model.Venue) error
	GetByID(ctx context.Context, id string) (*model.Venue, error)
	List(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, int64, error)
	Update(ctx context.Context, caller *auth.Principal, id string, updates *model.VenueUpdate) (*model.Venue, error)
	UpdateStatus(ctx context.Context, id string, update *model.VenueStatusUpdate) error
	Delete(ctx context.Context, id string) error
	Slots(ctx context.Context, id, packageID, date string) ([]model.Slot, error)
}

type venueService struct {
	repo      repository.VenueRepository
	bookings  BookingReader
	validator *validator.VenueValidator
	cfg       *config.Config
}

func NewVenueService(repo repository.VenueRepository, bookings BookingReader, validator *validator.VenueValidator, cfg *config.Config) VenueService {
	return &venueService{
		repo:      repo,
		bookings:  bookings,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *venueService) Create(ctx context.Context, caller *auth.Principal, venue *model.Venue) error {
	if !auth.CanManageVenues(caller.Role) {
		return apperrors.Forbidden("Only venue accounts and administrators can create venues")
	}

	s.sanitize(venue)
	s.applyDefaults(venue)
	venue.CreatorID = caller.UserID

	if err := s.validator.Validate(venue); err != nil {
		return s.validationError("Venue validation failed", err)
	}

	if err := s.repo.Create(ctx, venue); err != nil {
		s.cfg.Log.Error("Failed to create venue", "name", venue.Name, "error", err)
		return apperrors.Internal("Failed to create venue", err)
	}

	s.cfg.Log.Info("Venue created successfully",
		"id", venue.ID,
		"name", venue.Name,
		"creator_id", venue.CreatorID,
	)
	return nil
}

func (s *venueService) GetByID(ctx context.Context, id string) (*model.Venue, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Venue ID cannot be empty")
	}

	venue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, id, "Failed to retrieve venue")
	}
	return venue, nil
}

func (s *venueService) List(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, int64, error) {
	filter.Search = sanitizer.NormalizeSearch(filter.Search)

	var count int64
	var venues []*model.Venue

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = s.repo.Count(gctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count venues", "error", err)
			return apperrors.Internal("Failed to count venues", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		venues, err = s.repo.Find(gctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list venues", "error", err)
			return apperrors.Internal("Failed to retrieve venues", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	return venues, count, nil
}

// Update applies the non-nil fields of updates. Only the venue's creator or
// an administrator may edit it.
func (s *venueService) Update(ctx context.Context, caller *auth.Principal, id string, updates *model.VenueUpdate) (*model.Venue, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanManageVenue(caller, existing) {
		return nil, apperrors.Forbidden("You cannot edit this venue")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, s.validationError("Venue update validation failed", err)
	}

	merged := *existing
	applyUpdate(&merged, updates)
	s.sanitize(&merged)
	assignPackageIDs(merged.Packages)

	if err := s.validator.Validate(&merged); err != nil {
		return nil, s.validationError("Venue validation failed", err)
	}

	if err := s.repo.Update(ctx, id, &merged); err != nil {
		return nil, mapRepoError(err, id, "Failed to update venue")
	}

	s.cfg.Log.Info("Venue updated successfully", "id", id, "by", caller.UserID)
	return &merged, nil
}

func (s *venueService) UpdateStatus(ctx context.Context, id string, update *model.VenueStatusUpdate) error {
	if err := s.validator.ValidateStatusUpdate(update); err != nil {
		return s.validationError("Invalid venue status", err)
	}

	if err := s.repo.UpdateStatus(ctx, id, update.Status); err != nil {
		return mapRepoError(err, id, "Failed to update venue status")
	}

	s.cfg.Log.Info("Venue status updated", "id", id, "status", update.Status)
	return nil
}

func (s *venueService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, id, "Failed to delete venue")
	}

	s.cfg.Log.Info("Venue deleted successfully", "id", id)
	return nil
}

// Slots lists the bookable start times for a package on date. Pending
// bookings count against capacity here so users are not shown a slot someone
// else is already holding.
func (s *venueService) Slots(ctx context.Context, id, packageID, date string) ([]model.Slot, error) {
	if !validation.IsDate(date) {
		return nil, apperrors.Validation("Invalid date", map[string]any{"date": "date must be in YYYY-MM-DD format"})
	}
	if packageID == "" {
		return nil, apperrors.Validation("Package is required", map[string]any{"packageId": "packageId is required"})
	}

	venue, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.FindByVenueAndDate(ctx, venue.ID, date, availability.DisplayActive)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for slots", "venue_id", venue.ID, "date", date, "error", err)
		return nil, apperrors.Internal("Failed to load availability", err)
	}

	slots, err := availability.GenerateSlots(venue, packageID, date, bookings)
	if err != nil {
		s.cfg.Log.Error("Failed to generate slots", "venue_id", venue.ID, "date", date, "error", err)
		return nil, apperrors.Internal("Failed to compute availability", err)
	}
	if slots == nil {
		slots = []model.Slot{}
	}
	return slots, nil
}

// --- Helpers ---

func (s *venueService) sanitize(venue *model.Venue) {
	venue.Name = sanitizer.NormalizeName(venue.Name)
	venue.Description = sanitizer.TrimAndNormalize(venue.Description)
	venue.Location = sanitizer.NormalizeName(venue.Location)
	venue.Address = sanitizer.TrimAndNormalize(venue.Address)
	venue.PriceRange = sanitizer.TrimAndNormalize(venue.PriceRange)
	venue.Photos = sanitizer.NormalizePhotos(venue.Photos)
	for i := range venue.Packages {
		venue.Packages[i].Name = sanitizer.NormalizeName(venue.Packages[i].Name)
		venue.Packages[i].Description = sanitizer.TrimAndNormalize(venue.Packages[i].Description)
	}
}

// applyDefaults fills what a new venue may omit. A capacity of zero on create
// is indistinguishable from a missing field and becomes the default; updates
// may still set zero to close the venue.
func (s *venueService) applyDefaults(venue *model.Venue) {
	if venue.Capacity == 0 {
		venue.Capacity = model.DefaultVenueCapacity
	}
	if venue.Type == "" {
		venue.Type = model.VenueCafe
	}
	venue.FillMissing()
	assignPackageIDs(venue.Packages)
}

func assignPackageIDs(packages []model.Package) {
	for i := range packages {
		if packages[i].ID == "" {
			packages[i].ID = uuid.NewString()
		}
	}
}

func applyUpdate(venue *model.Venue, u *model.VenueUpdate) {
	if u.Name != nil {
		venue.Name = *u.Name
	}
	if u.Description != nil {
		venue.Description = *u.Description
	}
	if u.Location != nil {
		venue.Location = *u.Location
	}
	if u.Address != nil {
		venue.Address = *u.Address
	}
	if u.Type != nil {
		venue.Type = *u.Type
	}
	if u.PriceRange != nil {
		venue.PriceRange = *u.PriceRange
	}
	if u.Photos != nil {
		venue.Photos = *u.Photos
	}
	if u.Capacity != nil {
		venue.Capacity = *u.Capacity
	}
	if u.OpeningHours != nil {
		venue.OpeningHours = *u.OpeningHours
	}
	if u.Packages != nil {
		venue.Packages = append([]model.Package(nil), (*u.Packages)...)
	}
}

func mapRepoError(err error, id, message string) error {
	switch {
	case errors.Is(err, venueserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Venue", id)
	case errors.Is(err, venueserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid venue ID format")
	default:
		return apperrors.Internal(message, err)
	}
}

func (s *venueService) validationError(message string, err error) error {
	s.cfg.Log.Warn(message, "error", err)
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
