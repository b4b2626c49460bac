package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/adpanel/walletcore/internal/money"
)

type ActionType string

const (
	ActionTopUpWallet     ActionType = "topup_wallet"
	ActionWithdrawAccount ActionType = "withdraw_account"
	ActionTransferToAcct  ActionType = "transfer_wallet_to_account"
	ActionWalletDeduction ActionType = "wallet_deduction"
	ActionProofEdit       ActionType = "proof_edit"
)

func (t ActionType) Valid() bool {
	switch t {
	case ActionTopUpWallet, ActionWithdrawAccount, ActionTransferToAcct,
		ActionWalletDeduction, ActionProofEdit:
		return true
	}
	return false
}

// Monetary reports whether approving this variant moves money.
func (t ActionType) Monetary() bool {
	return t != ActionProofEdit
}

const (
	ActionStatusPending  = "pending"
	ActionStatusApproved = "approved"
	ActionStatusRejected = "rejected"
)

// AdminAction is a proposed mutation awaiting super-admin review. Status moves
// exactly once, from pending to approved or rejected.
type AdminAction struct {
	ID            string          `json:"id" db:"id"`
	Type          ActionType      `json:"type" db:"type"`
	ClientID      int64           `json:"client_id" db:"client_id"`
	ProposerID    int64           `json:"proposer_id" db:"proposer_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	Currency      money.Currency  `json:"currency" db:"currency"`
	AccountID     *int64          `json:"account_id,omitempty" db:"account_id"`
	TargetID      *string         `json:"target_id,omitempty" db:"target_id"`
	Attachments   []string        `json:"attachments" db:"attachments"`
	Notes         string          `json:"notes" db:"notes"`
	Status        string          `json:"status" db:"status"`
	ApproverID    *int64          `json:"approver_id,omitempty" db:"approver_id"`
	ApprovalNotes string          `json:"approval_notes" db:"approval_notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
}

// ProposeActionInput is an admin's proposal payload.
type ProposeActionInput struct {
	Type        ActionType `json:"type" validate:"required"`
	ClientID    int64      `json:"client_id" validate:"required,gt=0"`
	Amount      string     `json:"amount,omitempty"`
	Currency    string     `json:"currency" validate:"required"`
	AccountID   *int64     `json:"account_id,omitempty"`
	TargetID    *string    `json:"target_id,omitempty"`
	Attachments []string   `json:"attachments,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}
