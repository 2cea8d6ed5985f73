package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "commonspace/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"conflict", apperrors.Conflict("slot no longer available"), http.StatusConflict, "slot no longer available"},
		{"validation", apperrors.Validation("invalid booking", map[string]any{"time": "required"}), http.StatusUnprocessableEntity, "invalid booking"},
		{"internal hides cause", apperrors.Internal("failed to read bookings", errors.New("mongo: secret detail")), http.StatusInternalServerError, "Internal server error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, WriteError(rec, tt.err))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantBody, resp.Error)
			assert.NotContains(t, rec.Body.String(), "secret detail")
		})
	}
}

func TestExtractLimitOffset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?limit=500&offset=-3", nil)
	limit, offset, err := ExtractLimitOffset(req)

	require.NoError(t, err)
	assert.Equal(t, 100, limit)
	assert.Equal(t, int64(0), offset)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/bookings?limit=abc", nil)
	_, _, err = ExtractLimitOffset(req)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	var v struct {
		Date string `json:"date"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"date":"2026-01-01","extra":1}`))

	err := DecodeJSON(req, &v)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
