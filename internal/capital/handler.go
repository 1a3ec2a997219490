package capital

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/bukumitra/bukumitra/internal/business"
	"github.com/bukumitra/bukumitra/internal/platform/httpx"
	"github.com/bukumitra/bukumitra/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes attaches capital routes under /businesses/{businessID}/capital.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.Accounts)
	r.Get("/contributions", h.Contributions)
	r.Post("/contributions", h.Contribute)
	r.Get("/withdrawals", h.Withdrawals)
	r.Post("/withdrawals", h.Withdraw)
}

func (h *Handler) Accounts(w http.ResponseWriter, r *http.Request) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	accounts, err := h.service.Accounts(r.Context(), shared.ActorFromContext(r.Context()), businessID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accounts)
}

func (h *Handler) Contributions(w http.ResponseWriter, r *http.Request) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	contributions, err := h.service.Contributions(r.Context(), shared.ActorFromContext(r.Context()), businessID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, contributions)
}

func (h *Handler) Contribute(w http.ResponseWriter, r *http.Request) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ContributeInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	contribution, err := h.service.Contribute(r.Context(), shared.ActorFromContext(r.Context()), businessID, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, contribution)
}

func (h *Handler) Withdrawals(w http.ResponseWriter, r *http.Request) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	withdrawals, err := h.service.Withdrawals(r.Context(), shared.ActorFromContext(r.Context()), businessID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, withdrawals)
}

func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in WithdrawInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	withdrawal, err := h.service.Withdraw(r.Context(), shared.ActorFromContext(r.Context()), businessID, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, withdrawal)
}
