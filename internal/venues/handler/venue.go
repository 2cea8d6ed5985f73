package handler

import (
	"net/http"

	"commonspace/internal/auth"
	"commonspace/internal/venues/service"
	httputil "commonspace/pkg/http"
	"commonspace/pkg/logger"
	"commonspace/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type VenueHandler struct {
	service service.VenueService
	auth    *auth.Middleware
	log     *logger.Logger
}

func NewVenueHandler(service service.VenueService, authMiddleware *auth.Middleware, log *logger.Logger) *VenueHandler {
	return &VenueHandler{
		service: service,
		auth:    authMiddleware,
		log:     log,
	}
}

func (h *VenueHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var venue model.Venue
	if err := httputil.DecodeJSON(r, &venue); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	caller, _ := auth.FromContext(r.Context())
	if err := h.service.Create(r.Context(), caller, &venue); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, venue); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *VenueHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	venue, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, venue); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VenueHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.VenueFilter{
		Search:    query.Get("search"),
		Status:    model.VenueStatus(query.Get("status")),
		Type:      model.VenueType(query.Get("type")),
		CreatorID: query.Get("creatorId"),
	}

	venues, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, venues, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *VenueHandler) Slots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()

	slots, err := h.service.Slots(r.Context(), ps.ByName("id"), query.Get("packageId"), query.Get("date"))
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "Slots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VenueHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var updates model.VenueUpdate
	if err := httputil.DecodeJSON(r, &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	caller, _ := auth.FromContext(r.Context())
	venue, err := h.service.Update(r.Context(), caller, ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, venue); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *VenueHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.VenueStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), &update); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *VenueHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *VenueHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/venues", h.GetAll)
	router.GET("/api/v1/venues/id/:id", h.GetByID)
	router.GET("/api/v1/venues/id/:id/slots", h.Slots)
	router.POST("/api/v1/venues", h.auth.Require(auth.CanManageVenues, h.Create))
	router.PATCH("/api/v1/venues/id/:id", h.auth.Authenticate(h.Update))
	router.PATCH("/api/v1/venues/id/:id/status", h.auth.Require(auth.IsAdmin, h.UpdateStatus))
	router.DELETE("/api/v1/venues/id/:id", h.auth.Require(auth.IsAdmin, h.Delete))
}

func (h *VenueHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
