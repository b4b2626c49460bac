package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	IRR Currency = "IRR"
	USD Currency = "USD"
)

func (c Currency) Valid() bool {
	return c == IRR || c == USD
}

// Exponent is the number of minor-unit decimal places: rials carry none,
// dollars carry cents.
func (c Currency) Exponent() int32 {
	if c == USD {
		return 2
	}
	return 0
}

// Normalize rounds an amount to the currency's minor unit. All rounding in the
// ledger goes through here so repeated fee computations cannot drift.
func Normalize(amount decimal.Decimal, currency Currency) decimal.Decimal {
	return amount.Round(currency.Exponent())
}

// Fee computes amount * pct / 100 in minor units. A zero or unset percentage
// yields a zero fee.
func Fee(amount decimal.Decimal, pct decimal.Decimal, currency Currency) decimal.Decimal {
	if pct.IsZero() {
		return decimal.Zero
	}
	return Normalize(amount.Mul(pct).Shift(-2), currency)
}

// Total is the amount plus its fee, normalized.
func Total(amount decimal.Decimal, pct decimal.Decimal, currency Currency) decimal.Decimal {
	return Normalize(amount, currency).Add(Fee(amount, pct, currency))
}

// ParseAmount parses a positive amount and normalizes it. Amounts carrying more
// precision than the currency's minor unit are rejected rather than silently
// rounded.
func ParseAmount(s string, currency Currency) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %s", s)
	}
	if d.Exponent() < -currency.Exponent() && !d.Equal(Normalize(d, currency)) {
		return decimal.Zero, fmt.Errorf("amount %s has sub-unit precision for %s", s, currency)
	}
	return Normalize(d, currency), nil
}
