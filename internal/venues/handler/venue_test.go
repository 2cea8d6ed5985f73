package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commonspace/internal/auth"
	apperrors "commonspace/pkg/errors"
	"commonspace/pkg/logger"
	"commonspace/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVenueService struct {
	createFunc func(ctx context.Context, caller *auth.Principal, venue *model.Venue) error
	listFunc   func(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, int64, error)
	slotsFunc  func(ctx context.Context, id, packageID, date string) ([]model.Slot, error)
	deleted    []string
}

func (m *mockVenueService) Create(ctx context.Context, caller *auth.Principal, venue *model.Venue) error {
	return m.createFunc(ctx, caller, venue)
}

func (m *mockVenueService) GetByID(ctx context.Context, id string) (*model.Venue, error) {
	return &model.Venue{ID: id, Name: "Bean There"}, nil
}

func (m *mockVenueService) List(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, int64, error) {
	return m.listFunc(ctx, filter, limit, offset)
}

func (m *mockVenueService) Update(ctx context.Context, caller *auth.Principal, id string, updates *model.VenueUpdate) (*model.Venue, error) {
	return nil, apperrors.Forbidden("You cannot edit this venue")
}

func (m *mockVenueService) UpdateStatus(ctx context.Context, id string, update *model.VenueStatusUpdate) error {
	return nil
}

func (m *mockVenueService) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockVenueService) Slots(ctx context.Context, id, packageID, date string) ([]model.Slot, error) {
	return m.slotsFunc(ctx, id, packageID, date)
}

const testSecret = "venue-handler-test-secret-42"

func setup(t *testing.T, svc *mockVenueService) (*httprouter.Router, func(model.Role) string) {
	t.Helper()
	log := logger.Discard()
	verifier := auth.NewVerifier(testSecret, "test-issuer")
	router := httprouter.New()
	NewVenueHandler(svc, auth.NewMiddleware(verifier, log), log).RegisterRoutes(router)

	token := func(role model.Role) string {
		tok, err := verifier.Issue(auth.Principal{UserID: "u-" + string(role), Role: role}, time.Hour)
		require.NoError(t, err)
		return "Bearer " + tok
	}
	return router, token
}

func TestGetAll_PublicWithFilters(t *testing.T) {
	var got model.VenueFilter
	svc := &mockVenueService{
		listFunc: func(ctx context.Context, filter model.VenueFilter, limit int, offset int64) ([]*model.Venue, int64, error) {
			got = filter
			return []*model.Venue{{ID: "v1"}}, 1, nil
		},
	}
	router, _ := setup(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/venues?search=bean&type=cafe&status=active", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bean", got.Search)
	assert.Equal(t, model.VenueCafe, got.Type)
	assert.Equal(t, model.VenueActive, got.Status)

	var resp struct {
		TotalCount int64 `json:"totalCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.TotalCount)
}

func TestSlots_PassesQuery(t *testing.T) {
	svc := &mockVenueService{
		slotsFunc: func(ctx context.Context, id, packageID, date string) ([]model.Slot, error) {
			assert.Equal(t, "v1", id)
			assert.Equal(t, "p1", packageID)
			assert.Equal(t, "2026-03-02", date)
			return []model.Slot{{Time: "09:00", Available: true, RemainingCapacity: 1}}, nil
		},
	}
	router, _ := setup(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/venues/id/v1/slots?packageId=p1&date=2026-03-02", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"time":"09:00"`)
}

func TestCreate_RoleGate(t *testing.T) {
	svc := &mockVenueService{
		createFunc: func(ctx context.Context, caller *auth.Principal, venue *model.Venue) error {
			venue.ID = "new"
			return nil
		},
	}
	router, token := setup(t, svc)

	tests := []struct {
		role model.Role
		want int
	}{
		{model.RoleUser, http.StatusForbidden},
		{model.RoleVenue, http.StatusCreated},
		{model.RoleAdmin, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/venues", strings.NewReader(`{"name":"Bean","location":"Haifa"}`))
			req.Header.Set("Authorization", token(tt.role))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestUpdate_ForbiddenFromService(t *testing.T) {
	router, token := setup(t, &mockVenueService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/venues/id/v1", strings.NewReader(`{"name":"Other"}`))
	req.Header.Set("Authorization", token(model.RoleVenue))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDelete_AdminOnly(t *testing.T) {
	svc := &mockVenueService{}
	router, token := setup(t, svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/venues/id/v1", nil)
	req.Header.Set("Authorization", token(model.RoleVenue))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/venues/id/v1", nil)
	req.Header.Set("Authorization", token(model.RoleSuperadmin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"v1"}, svc.deleted)
}
