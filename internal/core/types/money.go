// Package types provides value types shared by domain models.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MinPrice is the smallest accepted positive price.
var MinPrice = decimal.RequireFromString("0.01")

// MaxPrice is the largest value a NUMERIC(6,2) column can hold.
var MaxPrice = decimal.RequireFromString("9999.99")

// NewMoneyFromString parses a monetary value.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney parses a monetary value and panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

// RoundPrice rounds half away from zero to cents.
func RoundPrice(m Money) Money {
	return m.Round(2)
}
