package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/adpanel/walletcore/internal/money"
)

const (
	TopUpStatusPendingPayment = "pending_payment"
	TopUpStatusCompleted      = "completed"
)

type TopUpLine struct {
	AccountID int64           `json:"account_id" db:"account_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	FeePct    decimal.Decimal `json:"fee_pct" db:"fee_pct"`
	Fee       decimal.Decimal `json:"fee" db:"fee"`
}

// TopUpRequest groups a client's selected accounts of one currency. Local
// currency requests carry a reconciliation code; PayableTotal is then the
// aggregate amount plus that code, the exact figure the payer must transfer.
type TopUpRequest struct {
	ID           string          `json:"id" db:"id"`
	ClientID     int64           `json:"-" db:"client_id"`
	Currency     money.Currency  `json:"currency" db:"currency"`
	Lines        []TopUpLine     `json:"lines"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	Fee          decimal.Decimal `json:"fee" db:"fee"`
	Code         *int            `json:"code,omitempty" db:"code"`
	PayableTotal decimal.Decimal `json:"payable_total" db:"payable_total"`
	Status       string          `json:"status" db:"status"`
	ExternalTxID *string         `json:"external_tx_id,omitempty" db:"external_tx_id"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

const (
	SettlementStatusMatched   = "matched"
	SettlementStatusConflict  = "conflict"
	SettlementStatusUnmatched = "unmatched"
)

// Settlement records one processed external bank transfer. ExternalTxID is
// unique, which is what makes settlement processing exactly-once.
type Settlement struct {
	ExternalTxID string          `json:"external_tx_id" db:"external_tx_id"`
	Currency     money.Currency  `json:"currency" db:"currency"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	RequestID    *string         `json:"request_id,omitempty" db:"request_id"`
	Status       string          `json:"status" db:"status"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// SettlementConflict is a transfer that matched more than one pending request.
// It is never auto-resolved; admins work the queue by hand.
type SettlementConflict struct {
	ID           int64           `json:"id" db:"id"`
	ExternalTxID string          `json:"external_tx_id" db:"external_tx_id"`
	Currency     money.Currency  `json:"currency" db:"currency"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	CandidateIDs []string        `json:"candidate_ids" db:"candidate_ids"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// TopUpLineInput is one (account, amount) pair as submitted by a client.
type TopUpLineInput struct {
	AccountID int64  `json:"account_id" validate:"required,gt=0"`
	Amount    string `json:"amount" validate:"required"`
}
