package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/logger"
	"github.com/adpanel/walletcore/internal/middleware"
)

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	snapshot, err := h.walletService.GetSnapshot(r.Context(), actor.ID)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to get wallet snapshot", zap.Error(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(snapshot)
}
