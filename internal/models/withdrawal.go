package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/adpanel/walletcore/internal/money"
)

const (
	WithdrawalStatusPending    = "pending"
	WithdrawalStatusProcessing = "processing"
	WithdrawalStatusCompleted  = "completed"
	WithdrawalStatusRejected   = "rejected"
)

// Withdrawal tracks a client's request to pull funds out of an ad account.
// ActualAmount and ProofRef are filled in by the admin who verifies the real
// account balance; settlement itself goes through a withdraw_account action.
type Withdrawal struct {
	ID           string           `json:"id" db:"id"`
	ClientID     int64            `json:"-" db:"client_id"`
	AccountID    int64            `json:"account_id" db:"account_id"`
	Currency     money.Currency   `json:"currency" db:"currency"`
	Status       string           `json:"status" db:"status"`
	ActualAmount *decimal.Decimal `json:"actual_amount,omitempty" db:"actual_amount"`
	ProofRef     *string          `json:"proof_ref,omitempty" db:"proof_ref"`
	ProcessedBy  *int64           `json:"processed_by,omitempty" db:"processed_by"`
	RejectReason *string          `json:"reject_reason,omitempty" db:"reject_reason"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}
