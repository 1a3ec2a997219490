package equity

import (
	"errors"
	"log/slog"
	"net/http"

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

// MountRoutes attaches equity routes under /businesses/{businessID}/equity.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/preview", h.Preview)
	r.Post("/apply", h.Apply)
	r.Post("/split-evenly", h.SplitEvenly)
	r.Put("/", h.Update)
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	calc, err := h.service.CalculateFromContributions(r.Context(), shared.ActorFromContext(r.Context()), businessID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, calc)
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	calc, err := h.service.ApplyFromContributions(r.Context(), shared.ActorFromContext(r.Context()), businessID)
	if err != nil {
		h.respondApplyError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, calc)
}

func (h *Handler) SplitEvenly(w http.ResponseWriter, r *http.Request) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	calc, err := h.service.SplitEvenly(r.Context(), shared.ActorFromContext(r.Context()), businessID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, calc)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in struct {
		Shares []Share `json:"shares"`
	}
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.service.UpdateDistribution(r.Context(), shared.ActorFromContext(r.Context()), businessID, in.Shares); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondApplyError attaches the invalid calculation when the sum guard trips
// so the caller can display the computed shares.
func (h *Handler) respondApplyError(w http.ResponseWriter, err error) {
	var guard *GuardError
	if errors.As(err, &guard) {
		httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":       guard.Error(),
			"calculation": guard.Calculation,
		})
		return
	}
	httpx.RespondError(w, err)
}
