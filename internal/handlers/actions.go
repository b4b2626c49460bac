package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/logger"
	"github.com/adpanel/walletcore/internal/middleware"
	"github.com/adpanel/walletcore/internal/models"
)

func (h *Handler) ProposeAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input models.ProposeActionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(input); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	actionID, err := h.actionService.Propose(r.Context(), actor.ID, input)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"action_id": actionID})
	case errors.Is(err, apperrors.ErrClientNotFound), errors.Is(err, apperrors.ErrAccountNotFound),
		errors.Is(err, apperrors.ErrWithdrawalNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrCurrencyMismatch):
		http.Error(w, "currency mismatch", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrClientInactive):
		http.Error(w, "client is inactive", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		http.Error(w, "insufficient balance", http.StatusPaymentRequired)
	case errors.Is(err, apperrors.ErrInvalidRequest):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to propose action", zap.Error(err))
	}
}

type resolveActionRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) ApproveAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req resolveActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	snapshot, err := h.actionService.Approve(r.Context(), chi.URLParam(r, "id"), actor.ID, req.Notes)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(snapshot)
	case errors.Is(err, apperrors.ErrActionNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrAlreadyResolved):
		http.Error(w, "action already resolved", http.StatusConflict)
	case errors.Is(err, apperrors.ErrSelfApproval):
		http.Error(w, "approver must differ from proposer", http.StatusForbidden)
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		http.Error(w, "insufficient balance", http.StatusPaymentRequired)
	case errors.Is(err, apperrors.ErrInvalidRequest):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to approve action", zap.Error(err))
	}
}

func (h *Handler) RejectAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req resolveActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	err := h.actionService.Reject(r.Context(), chi.URLParam(r, "id"), actor.ID, req.Notes)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, apperrors.ErrActionNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrAlreadyResolved):
		http.Error(w, "action already resolved", http.StatusConflict)
	case errors.Is(err, apperrors.ErrSelfApproval):
		http.Error(w, "approver must differ from proposer", http.StatusForbidden)
	case errors.Is(err, apperrors.ErrEmptyRejectionNotes):
		http.Error(w, "rejection notes required", http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to reject action", zap.Error(err))
	}
}

func (h *Handler) GetAction(w http.ResponseWriter, r *http.Request) {
	action, err := h.actionService.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(action)
	case errors.Is(err, apperrors.ErrActionNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to get action", zap.Error(err))
	}
}

func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.ActionStatusPending
	}

	var clientID *int64
	if raw := r.URL.Query().Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid client_id", http.StatusBadRequest)
			return
		}
		clientID = &id
	}

	actions, err := h.actionService.List(r.Context(), status, clientID)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(actions)
	case errors.Is(err, apperrors.ErrInvalidRequest):
		http.Error(w, "invalid status", http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to list actions", zap.Error(err))
	}
}
