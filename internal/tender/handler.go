// AngelaMos | 2026
// handler.go

package tender

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/anujtyagi85/cleanintel-loader/internal/core"
	"github.com/anujtyagi85/cleanintel-loader/internal/middleware"
)

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

// RegisterRoutes mounts the tender surface. searchLimiter, when set, is
// applied after the authenticator so throttling keys on the caller's
// identity instead of the connecting IP.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, searchLimiter func(http.Handler) http.Handler,
) {
	r.Route("/search", func(r chi.Router) {
		r.Use(authenticator)
		if searchLimiter != nil {
			r.Use(searchLimiter)
		}
		r.Post("/", h.Search)
	})

	r.Route("/tenders", func(r chi.Router) {
		r.Get("/", h.ListTenders)
		r.Get("/{tenderID}", h.GetTender)
	})
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	userKey := middleware.GetUserEmail(r.Context())
	if userKey == "" {
		core.JSONError(w, core.UnauthorizedError("authentication required"))
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Search(r.Context(), userKey, req.Query, req.Limit)
	if err != nil {
		var exceeded *QuotaExceededError
		switch {
		case errors.As(err, &exceeded):
			// Expected outcome, not a server fault.
			writeQuotaExceeded(w, exceeded)
		case errors.Is(err, core.ErrQuotaUnknown):
			core.JSONError(w, core.QuotaUnknownError())
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, resp)
}

func writeQuotaExceeded(w http.ResponseWriter, err *QuotaExceededError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]any{
			"code":    "QUOTA_EXCEEDED",
			"message": "monthly search limit reached, upgrade to pro for more searches",
		},
		"data": QuotaExceededResponse{
			Message: err.Error(),
			Usage:   err.Usage,
		},
	})
}

func (h *Handler) ListTenders(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Region:   r.URL.Query().Get("region"),
		Sector:   r.URL.Query().Get("sector"),
		Status:   r.URL.Query().Get("status"),
		MinValue: parseFloatQuery(r, "min_value"),
		MaxValue: parseFloatQuery(r, "max_value"),
	}
	params.Normalize()

	tenders, total, err := h.service.ListTenders(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, tenders, params.Page, params.PageSize, total)
}

func (h *Handler) GetTender(w http.ResponseWriter, r *http.Request) {
	tenderID := chi.URLParam(r, "tenderID")

	t, err := h.service.GetTender(r.Context(), tenderID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "tender")
			return
		}
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "tender id is required")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, t)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

func parseFloatQuery(r *http.Request, key string) *float64 {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}

	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return nil
	}

	return &parsed
}
