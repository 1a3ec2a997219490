package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

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

// MountRoutes attaches report routes under /businesses/{businessID}/reports.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/profit-loss", h.ProfitLoss)
	r.Get("/cash-flow", h.CashFlow)
	r.Get("/dashboard", h.Dashboard)
}

func (h *Handler) ProfitLoss(w http.ResponseWriter, r *http.Request) {
	businessID, from, to, err := reportParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.ProfitLoss(r.Context(), shared.ActorFromContext(r.Context()), businessID, from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) CashFlow(w http.ResponseWriter, r *http.Request) {
	businessID, from, to, err := reportParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	showAll := r.URL.Query().Get("all_expenses") == "true"
	report, err := h.service.CashFlow(r.Context(), shared.ActorFromContext(r.Context()), businessID, from, to, showAll)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	businessID, from, to, err := reportParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	dashboard, err := h.service.Dashboard(r.Context(), shared.ActorFromContext(r.Context()), businessID, from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}

func reportParams(r *http.Request) (uuid.UUID, time.Time, time.Time, error) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, err
	}
	q := r.URL.Query()
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, fmt.Errorf("reports: invalid from date: %w", shared.ErrValidation)
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		return uuid.Nil, time.Time{}, time.Time{}, fmt.Errorf("reports: invalid to date: %w", shared.ErrValidation)
	}
	return businessID, from, to, nil
}
