package business

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	biz, err := h.service.Create(r.Context(), shared.ActorFromContext(r.Context()), in)
	if err != nil {
		h.logger.Error("create business", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, biz)
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var in JoinInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	biz, err := h.service.Join(r.Context(), shared.ActorFromContext(r.Context()), in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, biz)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	businessID, err := BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	biz, err := h.service.Get(r.Context(), shared.ActorFromContext(r.Context()), businessID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, biz)
}

func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	businessID, err := BusinessIDFromRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	view, err := h.service.Members(r.Context(), shared.ActorFromContext(r.Context()), businessID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

// BusinessIDFromRequest parses the {businessID} route parameter.
func BusinessIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "businessID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("business: invalid business id: %w", shared.ErrValidation)
	}
	return id, nil
}
