package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/adpanel/walletcore/internal/money"
)

type Bucket string

const (
	BucketMainLocal       Bucket = "main_local"
	BucketMainUSD         Bucket = "main_usd"
	BucketWithdrawalLocal Bucket = "withdrawal_local"
	BucketWithdrawalUSD   Bucket = "withdrawal_usd"
)

// MainBucket maps a currency to the client's spendable bucket.
func MainBucket(currency money.Currency) Bucket {
	if currency == money.USD {
		return BucketMainUSD
	}
	return BucketMainLocal
}

// WithdrawalBucket maps a currency to the bucket withdrawn funds land in.
func WithdrawalBucket(currency money.Currency) Bucket {
	if currency == money.USD {
		return BucketWithdrawalUSD
	}
	return BucketWithdrawalLocal
}

type BucketBalance struct {
	Available decimal.Decimal `json:"available" db:"available"`
	Pending   decimal.Decimal `json:"pending" db:"pending"`
}

type BalanceSnapshot struct {
	ClientID        int64         `json:"-" db:"client_id"`
	MainLocal       BucketBalance `json:"main_local"`
	MainUSD         BucketBalance `json:"main_usd"`
	WithdrawalLocal BucketBalance `json:"withdrawal_local"`
	WithdrawalUSD   BucketBalance `json:"withdrawal_usd"`
	TakenAt         time.Time     `json:"taken_at"`
}
