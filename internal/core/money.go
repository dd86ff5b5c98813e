// Package core defines the domain model shared by the engine packages:
// groups, the transaction sum type, settlements and the error taxonomy.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a positive monetary amount entered by a user.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. An
// explicit sign, zero, or anything unparsable is rejected with
// ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	// Only unsigned values allowed
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}
