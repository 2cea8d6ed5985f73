package handler

import (
	"net/http"

	"commonspace/internal/auth"
	"commonspace/internal/users/service"
	httputil "commonspace/pkg/http"
	"commonspace/pkg/logger"
	"commonspace/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service service.UserService
	auth    *auth.Middleware
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, authMiddleware *auth.Middleware, log *logger.Logger) *UserHandler {
	return &UserHandler{service: service, auth: authMiddleware, log: log}
}

func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, _ := auth.FromContext(r.Context())

	user, err := h.service.Sync(r.Context(), caller)
	if err != nil {
		h.writeError(w, "Sync", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Sync", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, _ := auth.FromContext(r.Context())

	user, err := h.service.Me(r.Context(), caller)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	filter := model.UserFilter{
		Search: r.URL.Query().Get("search"),
		Role:   model.Role(r.URL.Query().Get("role")),
	}

	users, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, users, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.UserRoleUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateRole", err)
		return
	}

	caller, _ := auth.FromContext(r.Context())
	user, err := h.service.UpdateRole(r.Context(), caller, ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "UpdateRole", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateRole", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/users/me", h.auth.Authenticate(h.Sync))
	router.GET("/api/v1/users/me", h.auth.Authenticate(h.Me))
	router.GET("/api/v1/users", h.auth.Require(auth.IsAdmin, h.GetAll))
	router.PATCH("/api/v1/users/id/:id/role", h.auth.Require(auth.IsSuperadmin, h.UpdateRole))
}

func (h *UserHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
