package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/apperrors"
	"github.com/adpanel/walletcore/internal/logger"
	"github.com/adpanel/walletcore/internal/middleware"
	"github.com/adpanel/walletcore/internal/models"
)

type historyResponse struct {
	Entries []models.HistoryEntry `json:"entries"`
	Total   int                   `json:"total"`
}

func (h *Handler) QueryHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	filter := models.HistoryFilter{Page: 1, PageSize: 0}

	if actor.Role == middleware.RoleClient {
		// Clients only ever see their own history.
		id := actor.ID
		filter.ClientID = &id
	} else if raw := q.Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid client_id", http.StatusBadRequest)
			return
		}
		filter.ClientID = &id
	}

	if raw := q.Get("status"); raw != "" {
		status := raw
		filter.Status = &status
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		filter.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
		filter.To = &t
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			http.Error(w, "invalid page", http.StatusBadRequest)
			return
		}
		filter.Page = page
	}
	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			http.Error(w, "invalid page_size", http.StatusBadRequest)
			return
		}
		filter.PageSize = size
	}

	entries, total, err := h.historyService.Query(r.Context(), filter)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(historyResponse{Entries: entries, Total: total})
	case errors.Is(err, apperrors.ErrInvalidRequest):
		http.Error(w, "invalid filter", http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
		logger.Log.Error("failed to query history", zap.Error(err))
	}
}
