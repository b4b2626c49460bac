package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/adpanel/walletcore/internal/money"
)

const (
	AccountStatusActive   = "active"
	AccountStatusInactive = "inactive"
)

type Account struct {
	ID          int64           `json:"id" db:"id"`
	ClientID    int64           `json:"-" db:"client_id"`
	Name        string          `json:"name" db:"name"`
	Currency    money.Currency  `json:"currency" db:"currency"`
	FeePct      decimal.Decimal `json:"fee_pct" db:"fee_pct"`
	Balance     decimal.Decimal `json:"balance" db:"balance"`
	Status      string          `json:"status" db:"status"`
	CanWithdraw bool            `json:"can_withdraw" db:"can_withdraw"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

type Client struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Active bool   `json:"active" db:"active"`
}
