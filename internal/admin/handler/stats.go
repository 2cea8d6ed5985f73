package handler

import (
	"net/http"

	"commonspace/internal/admin/service"
	"commonspace/internal/auth"
	httputil "commonspace/pkg/http"
	"commonspace/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type StatsHandler struct {
	service service.StatsService
	auth    *auth.Middleware
	log     *logger.Logger
}

func NewStatsHandler(service service.StatsService, authMiddleware *auth.Middleware, log *logger.Logger) *StatsHandler {
	return &StatsHandler{service: service, auth: authMiddleware, log: log}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *StatsHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/admin/stats", h.auth.Require(auth.IsAdmin, h.Get))
}
