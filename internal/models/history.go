package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/adpanel/walletcore/internal/money"
)

const (
	HistoryKindAction     = "action"
	HistoryKindTopUp      = "topup"
	HistoryKindWithdrawal = "withdrawal"
)

// HistoryEntry is an immutable projection of a settled action, a completed
// top-up, or a terminal withdrawal. Entries are never updated or deleted.
type HistoryEntry struct {
	ID        string          `json:"id" db:"id"`
	ClientID  int64           `json:"client_id" db:"client_id"`
	Kind      string          `json:"kind" db:"kind"`
	RefID     string          `json:"ref_id" db:"ref_id"`
	Type      string          `json:"type" db:"type"`
	Status    string          `json:"status" db:"status"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	Currency  money.Currency  `json:"currency" db:"currency"`
	Notes     string          `json:"notes" db:"notes"`
	SettledAt time.Time       `json:"settled_at" db:"settled_at"`
}

type HistoryFilter struct {
	ClientID *int64
	Status   *string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}
