package distribution

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

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

// MountRoutes attaches distribution routes under /businesses/{businessID}/distributions.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Distribute)
	r.Get("/{distributionID}", h.Get)
	r.Delete("/{distributionID}", h.Delete)
}

func (h *Handler) Distribute(w http.ResponseWriter, r *http.Request) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in DistributeInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	d, err := h.service.Distribute(r.Context(), shared.ActorFromContext(r.Context()), businessID, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	distributions, err := h.service.List(r.Context(), shared.ActorFromContext(r.Context()), businessID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, distributions)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	businessID, distributionID, err := pathIDs(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	d, err := h.service.Get(r.Context(), shared.ActorFromContext(r.Context()), businessID, distributionID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	businessID, distributionID, err := pathIDs(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), shared.ActorFromContext(r.Context()), businessID, distributionID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathIDs(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	businessID, err := business.BusinessIDFromRequest(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	distributionID, err := uuid.Parse(chi.URLParam(r, "distributionID"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("distribution: invalid distribution id: %w", shared.ErrValidation)
	}
	return businessID, distributionID, nil
}
