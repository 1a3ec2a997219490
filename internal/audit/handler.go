package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bukumitra/bukumitra/internal/business"
	"github.com/bukumitra/bukumitra/internal/platform/httpx"
	"github.com/bukumitra/bukumitra/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches the activity timeline under /businesses/{businessID}/activity.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Timeline)
}

func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), shared.ActorFromContext(r.Context()), businessID, filtersFromQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func filtersFromQuery(r *http.Request) TimelineFilters {
	q := r.URL.Query()
	var filters TimelineFilters
	if raw := q.Get("from"); raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			filters.From = d
		}
	}
	if raw := q.Get("to"); raw != "" {
		if d, err := time.Parse("2006-01-02", raw); err == nil {
			filters.To = d
		}
	}
	filters.Action = q.Get("action")
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	return filters
}
