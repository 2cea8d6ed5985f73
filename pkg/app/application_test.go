package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commonspace/pkg/client"
	"commonspace/pkg/config"
	"commonspace/pkg/logger"
	"commonspace/pkg/middleware"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routes func(*httprouter.Router)

func (f routes) RegisterRoutes(r *httprouter.Router) { f(r) }

func testConfig() *config.Config {
	return &config.Config{
		Port:            "8080",
		RequestTimeout:  time.Second,
		IdempotencyTTL:  time.Minute,
		MaxRequestSize:  1024,
		ShutdownTimeout: time.Second,
		Log:             logger.Discard(),
		Client:          client.NewClient(),
	}
}

func newApp(t *testing.T) *Application {
	t.Helper()
	ops := routes(func(r *httprouter.Router) {
		r.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusOK)
		})
	})
	api := routes(func(r *httprouter.Router) {
		r.POST("/api/v1/things", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusCreated)
		})
	})

	a := NewApplication(testConfig())
	a.SetApp(ops, api)
	t.Cleanup(a.idempotencyStore.Stop)
	return a
}

func TestApplication_Routes(t *testing.T) {
	a := newApp(t)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/things", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestApplication_APIStackEnforcesContentType(t *testing.T) {
	a := newApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/things", strings.NewReader(`a=b`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

type recordingWorker struct {
	name  string
	order *[]string
}

func (w recordingWorker) Start(context.Context) {}

func (w recordingWorker) Stop() { *w.order = append(*w.order, "stop "+w.name) }

func TestApplication_ShutdownOrder(t *testing.T) {
	var order []string
	a := NewApplication(testConfig())
	a.SetApp(routes(func(*httprouter.Router) {}))
	a.AddWorker(recordingWorker{name: "lifecycle", order: &order})
	a.AddWorker(recordingWorker{name: "digest", order: &order})
	a.OnShutdown("producer", func() error {
		order = append(order, "close producer")
		return nil
	})

	a.gracefulShutdown()

	require.Equal(t, []string{"stop lifecycle", "stop digest", "close producer"}, order)
}
