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
	"github.com/adpanel/walletcore/internal/money"
)

type withdrawalRequest struct {
	AccountID int64  `json:"account_id" validate:"required,gt=0"`
	Currency  string `json:"currency" validate:"required"`
}

func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	withdrawal, err := h.withdrawalService.RequestWithdrawal(r.Context(), actor.ID, req.AccountID, money.Currency(req.Currency))
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(withdrawal)
	case errors.Is(err, apperrors.ErrAccountNotFound):
		http.Error(w, "account not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrWithdrawalBlocked):
		http.Error(w, "withdrawal blocked until next top-up", http.StatusConflict)
	case errors.Is(err, apperrors.ErrDuplicateSubmission):
		http.Error(w, "withdrawal already in flight", http.StatusConflict)
	case errors.Is(err, apperrors.ErrAccountInactive):
		http.Error(w, "account is inactive", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrCurrencyMismatch):
		http.Error(w, "currency mismatch", http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrInvalidRequest):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to request withdrawal", zap.Error(err))
	}
}

func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	withdrawals, err := h.withdrawalService.ListByClient(r.Context(), actor.ID)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to list withdrawals", zap.Error(err))
		return
	}

	if len(withdrawals) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(withdrawals)
}

type processWithdrawalRequest struct {
	ActualAmount string `json:"actual_amount" validate:"required"`
	ProofRef     string `json:"proof_ref" validate:"required"`
}

func (h *Handler) ProcessWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req processWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	err := h.withdrawalService.StartProcessing(r.Context(), chi.URLParam(r, "id"), actor.ID, req.ActualAmount, req.ProofRef)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, apperrors.ErrWithdrawalNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrAlreadyResolved):
		http.Error(w, "withdrawal already processed", http.StatusConflict)
	case errors.Is(err, apperrors.ErrInvalidRequest):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to process withdrawal", zap.Error(err))
	}
}

type rejectWithdrawalRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req rejectWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	err := h.withdrawalService.Reject(r.Context(), chi.URLParam(r, "id"), actor.ID, req.Reason)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, apperrors.ErrWithdrawalNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrAlreadyResolved):
		http.Error(w, "withdrawal already resolved", http.StatusConflict)
	case errors.Is(err, apperrors.ErrEmptyRejectionNotes):
		http.Error(w, "rejection reason required", http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to reject withdrawal", zap.Error(err))
	}
}

func (h *Handler) CanWithdraw(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}

	can, err := h.withdrawalService.CanWithdraw(r.Context(), accountID)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]bool{"can_withdraw": can})
	case errors.Is(err, apperrors.ErrAccountNotFound):
		http.Error(w, "account not found", http.StatusNotFound)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to check withdrawal gate", zap.Error(err))
	}
}
