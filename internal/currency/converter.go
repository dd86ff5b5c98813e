// Package currency converts foreign-currency amounts into the ledger
// currency and keeps the exchange-rate table fresh from the ČNB daily feed.
package currency

import (
	"github.com/shopspring/decimal"
)

// Ledger is the currency all balances and settlements are expressed in.
const Ledger = "CZK"

// Rates maps a currency code to units of ledger currency per one unit of
// that currency. Tables are replaced atomically and must not be mutated by
// readers.
type Rates map[string]decimal.Decimal

// Fallback returns the hardcoded rate table used until a live refresh
// succeeds.
func Fallback() Rates {
	return Rates{
		"CZK": decimal.NewFromInt(1),
		"EUR": decimal.NewFromFloat(25.0),
		"USD": decimal.NewFromFloat(23.0),
		"GBP": decimal.NewFromFloat(29.0),
		"THB": decimal.NewFromFloat(0.65),
		"PLN": decimal.NewFromFloat(5.8),
	}
}

// Convert converts an amount in the given currency to whole ledger units,
// rounding half-up at the point of conversion. Downstream balance math
// accumulates on the rounded values, so a round-trip is not loss-free; that
// is an accepted property of the ledger.
//
// A code missing from the table converts at rate 1. Callers that need to
// surface unknown currencies must check the table themselves; the converter
// degrades silently.
func Convert(amount decimal.Decimal, code string, rates Rates) int64 {
	if code == Ledger {
		return amount.Round(0).IntPart()
	}
	rate, ok := rates[code]
	if !ok {
		rate = decimal.NewFromInt(1)
	}
	return amount.Mul(rate).Round(0).IntPart()
}
