package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"commonspace/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *Handler, path string) (int, Response) {
	t.Helper()
	router := httprouter.New()
	h.RegisterRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestHealth(t *testing.T) {
	h := NewHandler(logger.Discard()).WithCheck("database", func(context.Context) error {
		return errors.New("down")
	})

	code, resp := serve(t, h, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
}

func TestReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks map[string]Check
		code   int
		status string
		deps   map[string]string
	}{
		{"all up", map[string]Check{"database": ok, "redis": ok}, http.StatusOK, "ready", map[string]string{"database": "ok", "redis": "ok"}},
		{"database down", map[string]Check{"database": down, "redis": ok}, http.StatusServiceUnavailable, "unavailable", map[string]string{"database": "error", "redis": "ok"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(logger.Discard())
			for name, check := range tt.checks {
				h.WithCheck(name, check)
			}

			code, resp := serve(t, h, "/ready")
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.deps, resp.Dependencies)
		})
	}
}

func TestWithRedis_NilClientAddsNoCheck(t *testing.T) {
	h := NewHandler(logger.Discard()).WithRedis(nil)
	assert.Empty(t, h.checks)
}
