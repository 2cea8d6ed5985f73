package service

import (
	"context"
	"testing"

	"commonspace/internal/auth"
	venueserrors "commonspace/internal/venues/errors"
	"commonspace/internal/venues/validator"
	"commonspace/pkg/config"
	apperrors "commonspace/pkg/errors"
	"commonspace/pkg/logger"
	"commonspace/pkg/model"

	"github.com/AlekSi/pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────
// Mock repositories for testing
// ────────────────────────────────────────────────

type mockVenueRepository struct {
	venues  map[string]*model.Venue
	created []*model.Venue
	updated *model.Venue

	findFunc  func(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, error)
	countFunc func(ctx context.Context, filter model.VenueFilter) (int64, error)
}

func (m *mockVenueRepository) Create(ctx context.Context, venue *model.Venue) error {
	venue.ID = "65f1c2a9e4b0a1b2c3d4e5f6"
	m.created = append(m.created, venue)
	return nil
}

func (m *mockVenueRepository) FindByID(ctx context.Context, id string) (*model.Venue, error) {
	v, ok := m.venues[id]
	if !ok {
		return nil, venueserrors.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (m *mockVenueRepository) Find(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, filter, limit, offset)
	}
	return []*model.Venue{}, nil
}

func (m *mockVenueRepository) Count(ctx context.Context, filter model.VenueFilter) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockVenueRepository) Update(ctx context.Context, id string, venue *model.Venue) error {
	if _, ok := m.venues[id]; !ok {
		return venueserrors.ErrNotFound
	}
	m.updated = venue
	return nil
}

func (m *mockVenueRepository) UpdateStatus(ctx context.Context, id string, status model.VenueStatus) error {
	v, ok := m.venues[id]
	if !ok {
		return venueserrors.ErrNotFound
	}
	v.Status = status
	return nil
}

func (m *mockVenueRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.venues[id]; !ok {
		return venueserrors.ErrNotFound
	}
	delete(m.venues, id)
	return nil
}

type mockBookingReader struct {
	bookings    []*model.Booking
	gotStatuses []model.BookingStatus
}

func (m *mockBookingReader) FindByVenueAndDate(ctx context.Context, venueID, date string, statuses []model.BookingStatus) ([]*model.Booking, error) {
	m.gotStatuses = statuses
	return m.bookings, nil
}

// ────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────

const existingID = "65f1c2a9e4b0a1b2c3d40001"

var (
	owner    = &auth.Principal{UserID: "owner-1", Role: model.RoleVenue}
	rival    = &auth.Principal{UserID: "owner-2", Role: model.RoleVenue}
	customer = &auth.Principal{UserID: "user-1", Role: model.RoleUser}
	admin    = &auth.Principal{UserID: "admin-1", Role: model.RoleAdmin}
)

func newTestService(repo *mockVenueRepository, bookings *mockBookingReader) VenueService {
	log := logger.Discard()
	cfg := &config.Config{Log: log}
	if bookings == nil {
		bookings = &mockBookingReader{}
	}
	return NewVenueService(repo, bookings, validator.NewVenueValidator(log), cfg)
}

func storedVenue() *model.Venue {
	return &model.Venue{
		ID:           existingID,
		Name:         "Bean There",
		Location:     "Haifa",
		Type:         model.VenueCowork,
		Capacity:     2,
		OpeningHours: model.DefaultOpeningHours(),
		Packages:     []model.Package{{ID: "p1", Name: "Two hours", Price: 10, Duration: 2}},
		Status:       model.VenueActive,
		CreatorID:    owner.UserID,
	}
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestCreate_AppliesDefaults(t *testing.T) {
	repo := &mockVenueRepository{}
	svc := newTestService(repo, nil)

	venue := &model.Venue{
		Name:     "  Quiet   Corner ",
		Location: "Jerusalem",
		Packages: []model.Package{{Name: "Hour", Price: 4, Duration: 1}},
	}
	require.NoError(t, svc.Create(context.Background(), owner, venue))

	require.Len(t, repo.created, 1)
	assert.Equal(t, "Quiet Corner", venue.Name)
	assert.Equal(t, model.DefaultVenueCapacity, venue.Capacity)
	assert.Equal(t, model.VenueActive, venue.Status)
	assert.Equal(t, model.DefaultOpeningHours(), venue.OpeningHours)
	assert.Equal(t, owner.UserID, venue.CreatorID)
	assert.NotEmpty(t, venue.Packages[0].ID)
}

func TestCreate_Forbidden(t *testing.T) {
	repo := &mockVenueRepository{}
	err := newTestService(repo, nil).Create(context.Background(), customer, &model.Venue{Name: "Nope", Location: "Eilat"})

	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	assert.Empty(t, repo.created)
}

func TestCreate_ValidationFailure(t *testing.T) {
	repo := &mockVenueRepository{}
	err := newTestService(repo, nil).Create(context.Background(), admin, &model.Venue{Name: "X"})

	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Details, "location")
	assert.Empty(t, repo.created)
}

func TestUpdate_Ownership(t *testing.T) {
	tests := []struct {
		name   string
		caller *auth.Principal
		code   string
	}{
		{"owner", owner, ""},
		{"admin", admin, ""},
		{"other venue account", rival, apperrors.CodeForbidden},
		{"plain user", customer, apperrors.CodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockVenueRepository{venues: map[string]*model.Venue{existingID: storedVenue()}}
			svc := newTestService(repo, nil)

			got, err := svc.Update(context.Background(), tt.caller, existingID, &model.VenueUpdate{
				Name:     pointer.ToString("Bean Here"),
				Capacity: pointer.ToInt(0),
			})
			if tt.code != "" {
				assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
				assert.Nil(t, repo.updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Bean Here", got.Name)
			assert.Equal(t, 0, got.Capacity, "zero capacity is allowed on update")
			assert.Equal(t, "Haifa", got.Location, "untouched fields are kept")
		})
	}
}

func TestUpdate_NewPackagesGetIDs(t *testing.T) {
	repo := &mockVenueRepository{venues: map[string]*model.Venue{existingID: storedVenue()}}
	svc := newTestService(repo, nil)

	packages := []model.Package{{ID: "p1", Name: "Two hours", Duration: 2}, {Name: "Day", Duration: 8}}
	got, err := svc.Update(context.Background(), owner, existingID, &model.VenueUpdate{Packages: &packages})
	require.NoError(t, err)

	require.Len(t, got.Packages, 2)
	assert.Equal(t, "p1", got.Packages[0].ID)
	assert.NotEmpty(t, got.Packages[1].ID)
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestService(&mockVenueRepository{venues: map[string]*model.Venue{}}, nil)

	_, err := svc.GetByID(context.Background(), existingID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestList_NormalizesSearch(t *testing.T) {
	var got model.VenueFilter
	repo := &mockVenueRepository{
		findFunc: func(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, error) {
			got = filter
			return []*model.Venue{storedVenue()}, nil
		},
		countFunc: func(ctx context.Context, filter model.VenueFilter) (int64, error) { return 1, nil },
	}

	venues, count, err := newTestService(repo, nil).List(context.Background(), model.VenueFilter{Search: "  bean  "}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, venues, 1)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "bean", got.Search)
}

func TestSlots_UsesDisplayStatuses(t *testing.T) {
	repo := &mockVenueRepository{venues: map[string]*model.Venue{existingID: storedVenue()}}
	bookings := &mockBookingReader{bookings: []*model.Booking{
		{VenueID: existingID, Date: "2026-03-02", Time: "10:00", Duration: 2, Status: model.StatusPending},
		{VenueID: existingID, Date: "2026-03-02", Time: "10:00", Duration: 2, Status: model.StatusPending},
	}}
	svc := newTestService(repo, bookings)

	slots, err := svc.Slots(context.Background(), existingID, "p1", "2026-03-02")
	require.NoError(t, err)

	assert.ElementsMatch(t, []model.BookingStatus{model.StatusPending, model.StatusConfirmed}, bookings.gotStatuses)
	require.Len(t, slots, 16)
	byTime := map[string]model.Slot{}
	for _, s := range slots {
		byTime[s.Time] = s
	}
	assert.False(t, byTime["10:00"].Available)
	assert.True(t, byTime["12:00"].Available)
	assert.Equal(t, 2, byTime["12:00"].RemainingCapacity)
}

func TestSlots_EmptyForClosedDayOrUnknownPackage(t *testing.T) {
	repo := &mockVenueRepository{venues: map[string]*model.Venue{existingID: storedVenue()}}
	svc := newTestService(repo, nil)

	slots, err := svc.Slots(context.Background(), existingID, "p1", "2026-03-07")
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.NotNil(t, slots)

	slots, err = svc.Slots(context.Background(), existingID, "nope", "2026-03-02")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlots_MalformedBookingIsInternalError(t *testing.T) {
	repo := &mockVenueRepository{venues: map[string]*model.Venue{existingID: storedVenue()}}
	bookings := &mockBookingReader{bookings: []*model.Booking{
		{VenueID: existingID, Date: "2026-03-02", Time: "25:99", Duration: 2, Status: model.StatusConfirmed},
	}}

	_, err := newTestService(repo, bookings).Slots(context.Background(), existingID, "p1", "2026-03-02")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal))
}

func TestSlots_InvalidDate(t *testing.T) {
	svc := newTestService(&mockVenueRepository{}, nil)

	_, err := svc.Slots(context.Background(), existingID, "p1", "03/02/2026")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestUpdateStatusAndDelete(t *testing.T) {
	repo := &mockVenueRepository{venues: map[string]*model.Venue{existingID: storedVenue()}}
	svc := newTestService(repo, nil)

	require.NoError(t, svc.UpdateStatus(context.Background(), existingID, &model.VenueStatusUpdate{Status: model.VenueInactive}))
	assert.Equal(t, model.VenueInactive, repo.venues[existingID].Status)

	err := svc.UpdateStatus(context.Background(), existingID, &model.VenueStatusUpdate{Status: "closed"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	require.NoError(t, svc.Delete(context.Background(), existingID))
	err = svc.Delete(context.Background(), existingID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
