// AngelaMos | 2026
// handler.go

package dashboard

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anujtyagi85/cleanintel-loader/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/summary", h.Summary)
		r.Get("/regions", h.Regions)
		r.Get("/sectors", h.Sectors)
		r.Get("/deadlines", h.Deadlines)
	})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, summary)
}

func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.TotalsByRegion(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, totals)
}

func (h *Handler) Sectors(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.TotalsBySector(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, totals)
}

func (h *Handler) Deadlines(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.UpcomingDeadlines(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, rows)
}
