// AngelaMos | 2026
// handler.go

package quota

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/anujtyagi85/cleanintel-loader/internal/core"
	"github.com/anujtyagi85/cleanintel-loader/internal/middleware"
)

type UpdatePlanRequest struct {
	Plan string `json:"plan" validate:"required,oneof=free pro"`
}

type UpdateQuotaRequest struct {
	Quota int `json:"quota" validate:"min=0"`
}

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the self-service usage endpoint. The caller is
// expected to wrap the router in the authenticator.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/usage", h.GetUsage)
}

// RegisterAdminRoutes mounts plan and quota overrides, keyed by the
// target user's email. Mount under the admin usage subtree, behind
// admin-only middleware.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Put("/{userKey}/plan", h.UpdatePlan)
	r.Put("/{userKey}/quota", h.UpdateQuota)
}

func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	userKey := middleware.GetUserEmail(r.Context())
	if userKey == "" {
		core.JSONError(w, core.UnauthorizedError("authentication required"))
		return
	}

	status, err := h.service.Get(r.Context(), userKey)
	if err != nil {
		if errors.Is(err, core.ErrQuotaUnknown) {
			core.JSONError(w, core.QuotaUnknownError())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, status)
}

func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	userKey := chi.URLParam(r, "userKey")
	if userKey == "" {
		core.BadRequest(w, "user key is required")
		return
	}

	var req UpdatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	status, err := h.service.SetPlan(r.Context(), userKey, req.Plan)
	if err != nil {
		h.writeUpdateError(w, err)
		return
	}

	core.OK(w, status)
}

func (h *Handler) UpdateQuota(w http.ResponseWriter, r *http.Request) {
	userKey := chi.URLParam(r, "userKey")
	if userKey == "" {
		core.BadRequest(w, "user key is required")
		return
	}

	var req UpdateQuotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	status, err := h.service.SetQuota(r.Context(), userKey, req.Quota)
	if err != nil {
		h.writeUpdateError(w, err)
		return
	}

	core.OK(w, status)
}

func (h *Handler) writeUpdateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "usage record")
	case errors.Is(err, core.ErrQuotaUnknown):
		core.JSONError(w, core.QuotaUnknownError())
	default:
		core.InternalServerError(w, err)
	}
}
