package handler

import (
	"net/http"
	"strings"

	"commonspace/internal/auth"
	"commonspace/internal/bookings/service"
	httputil "commonspace/pkg/http"
	"commonspace/pkg/logger"
	"commonspace/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// RouteLimiter throttles a single route.
type RouteLimiter interface {
	Handle(next httprouter.Handle) httprouter.Handle
}

type BookingHandler struct {
	service service.BookingService
	auth    *auth.Middleware
	limiter RouteLimiter
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, authMiddleware *auth.Middleware, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    authMiddleware,
		log:     log,
	}
}

// WithRateLimiter throttles booking creation per caller.
func (h *BookingHandler) WithRateLimiter(limiter RouteLimiter) *BookingHandler {
	h.limiter = limiter
	return h
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	caller, _ := auth.FromContext(r.Context())
	booking, err := h.service.Create(r.Context(), caller, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, _ := auth.FromContext(r.Context())

	booking, err := h.service.GetByID(r.Context(), caller, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// GetAll lists every booking. Admin only.
func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	filter := filterFromQuery(r)
	filter.VenueID = r.URL.Query().Get("venueId")
	filter.UserID = r.URL.Query().Get("userId")

	bookings, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) GetMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetMine", err)
		return
	}

	caller, _ := auth.FromContext(r.Context())
	bookings, total, err := h.service.ListForUser(r.Context(), caller, limit, offset)
	if err != nil {
		h.writeError(w, "GetMine", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) GetForVenue(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetForVenue", err)
		return
	}

	caller, _ := auth.FromContext(r.Context())
	bookings, total, err := h.service.ListForVenue(r.Context(), caller, ps.ByName("id"), filterFromQuery(r), limit, offset)
	if err != nil {
		h.writeError(w, "GetForVenue", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetForVenue", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BookingStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	caller, _ := auth.FromContext(r.Context())
	booking, err := h.service.UpdateStatus(r.Context(), caller, ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	create := h.Create
	if h.limiter != nil {
		create = h.limiter.Handle(create)
	}
	router.POST("/api/v1/bookings", h.auth.Authenticate(create))
	router.GET("/api/v1/bookings", h.auth.Require(auth.IsAdmin, h.GetAll))
	router.GET("/api/v1/bookings/mine", h.auth.Authenticate(h.GetMine))
	router.GET("/api/v1/bookings/id/:id", h.auth.Authenticate(h.GetByID))
	router.PATCH("/api/v1/bookings/id/:id/status", h.auth.Authenticate(h.UpdateStatus))
	router.GET("/api/v1/venues/id/:id/bookings", h.auth.Authenticate(h.GetForVenue))
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// filterFromQuery reads status (comma separated), date, dateFrom and dateTo.
// Values are checked by the service.
func filterFromQuery(r *http.Request) model.BookingFilter {
	query := r.URL.Query()

	var filter model.BookingFilter
	if raw := query.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, model.BookingStatus(s))
			}
		}
	}
	filter.Date = query.Get("date")
	filter.DateFrom = query.Get("dateFrom")
	filter.DateTo = query.Get("dateTo")

	return filter
}
