package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/logger"
	"github.com/adpanel/walletcore/internal/money"
)

type settleRequest struct {
	Currency     string `json:"currency" validate:"required"`
	Amount       string `json:"amount" validate:"required"`
	ExternalTxID string `json:"external_tx_id" validate:"required"`
}

// SettleTransfer ingests one bank feed event. Unmatched and ambiguous
// transfers are recorded outcomes, not failures: the feed must not retry them.
func (h *Handler) SettleTransfer(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	settlement, err := h.topUpService.SettleIncomingTransfer(r.Context(), money.Currency(req.Currency), req.Amount, req.ExternalTxID)
	switch {
	case err == nil, errors.Is(err, apperrors.ErrNoMatch), errors.Is(err, apperrors.ErrAmbiguousMatch):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(settlement)
	case errors.Is(err, apperrors.ErrDuplicateSettlement):
		http.Error(w, "transfer already settled", http.StatusConflict)
	case errors.Is(err, apperrors.ErrInvalidRequest):
		http.Error(w, "invalid input", http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to settle transfer", zap.Error(err))
	}
}

func (h *Handler) ListSettlementConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts, err := h.topUpService.ListConflicts(r.Context())
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to list settlement conflicts", zap.Error(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(conflicts)
}
