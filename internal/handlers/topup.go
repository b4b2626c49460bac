package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/logger"
	"github.com/adpanel/walletcore/internal/middleware"
	"github.com/adpanel/walletcore/internal/models"
)

type buildTopUpRequest struct {
	Lines []models.TopUpLineInput `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) BuildTopUp(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req buildTopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	result, err := h.topUpService.BuildRequest(r.Context(), actor.ID, req.Lines)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(result)
	case errors.Is(err, apperrors.ErrCurrencyMismatch):
		http.Error(w, "accounts span more than one currency", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrAccountNotFound), errors.Is(err, apperrors.ErrClientNotFound):
		http.Error(w, "account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrAccountInactive), errors.Is(err, apperrors.ErrClientInactive):
		http.Error(w, "inactive", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrDuplicateSubmission):
		http.Error(w, "duplicate submission", http.StatusConflict)
	case errors.Is(err, apperrors.ErrInvalidRequest):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to build top-up request", zap.Error(err))
	}
}

func (h *Handler) GetTopUp(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	req, err := h.topUpService.GetRequest(r.Context(), actor.ID, chi.URLParam(r, "id"))
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(req)
	case errors.Is(err, apperrors.ErrRequestNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to get top-up request", zap.Error(err))
	}
}
