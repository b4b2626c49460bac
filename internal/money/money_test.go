package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestFee(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		pct      string
		currency Currency
		want     string
	}{
		{"zero percentage", "100000", "0", IRR, "0"},
		{"ten percent rial", "100000", "10", IRR, "10000"},
		{"fractional percentage rial rounds to unit", "100001", "2.5", IRR, "2500"},
		{"ten percent usd", "99.99", "10", USD, "10"},
		{"small usd fee keeps cents", "10", "2.5", USD, "0.25"},
		{"full percentage", "500", "100", IRR, "500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fee(dec(tt.amount), dec(tt.pct), tt.currency)
			assert.True(t, got.Equal(dec(tt.want)), "fee = %s, want %s", got, tt.want)
		})
	}
}

func TestTotal(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		pct      string
		currency Currency
		want     string
	}{
		{"no fee", "100000", "0", IRR, "100000"},
		{"ten percent rial", "100000", "10", IRR, "110000"},
		{"usd with cents", "19.99", "5", USD, "20.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Total(dec(tt.amount), dec(tt.pct), tt.currency)
			assert.True(t, got.Equal(dec(tt.want)), "total = %s, want %s", got, tt.want)
		})
	}
}

func TestTotalEqualsAmountPlusFee(t *testing.T) {
	amounts := []string{"1", "99", "100000", "123457", "19.99"}
	pcts := []string{"0", "1", "2.5", "10", "100"}

	for _, a := range amounts {
		for _, p := range pcts {
			amount, pct := dec(a), dec(p)
			for _, cur := range []Currency{IRR, USD} {
				total := Total(amount, pct, cur)
				sum := Normalize(amount, cur).Add(Fee(amount, pct, cur))
				assert.True(t, total.Equal(sum), "amount=%s pct=%s cur=%s", a, p, cur)
			}
		}
	}
}

func TestNoDriftAcrossRepeatedCalls(t *testing.T) {
	amount, pct := dec("333333"), dec("3.33")

	first := Fee(amount, pct, IRR)
	for i := 0; i < 1000; i++ {
		assert.True(t, first.Equal(Fee(amount, pct, IRR)))
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		currency Currency
		want     string
		wantErr  bool
	}{
		{"plain rial", "100000", IRR, "100000", false},
		{"usd cents", "19.99", USD, "19.99", false},
		{"zero rejected", "0", IRR, "", true},
		{"negative rejected", "-5", USD, "", true},
		{"garbage rejected", "abc", IRR, "", true},
		{"sub-unit rial rejected", "100.5", IRR, "", true},
		{"sub-cent usd rejected", "19.999", USD, "", true},
		{"trailing zeros fine", "19.990", USD, "19.99", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in, tt.currency)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestCurrencyValid(t *testing.T) {
	assert.True(t, IRR.Valid())
	assert.True(t, USD.Valid())
	assert.False(t, Currency("EUR").Valid())
	assert.False(t, Currency("").Valid())
}
