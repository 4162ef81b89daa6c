package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point monetary amount in the valuation currency.
// All internal arithmetic keeps full precision; rounding (half-even, 2 decimal
// places) happens exactly once, at the serialization boundary.
type Money struct {
	amount decimal.Decimal
}

// NewMoney wraps a decimal amount as Money.
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// MoneyFromInt creates a Money value from a whole number of currency units.
func MoneyFromInt(units int64) Money {
	return Money{amount: decimal.NewFromInt(units)}
}

// MoneyFromString parses a decimal string (e.g. "1234.56") into Money.
func MoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return Money{amount: d}, nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg()}
}

// Mul scales the amount by a rational factor (e.g. a share count or a
// discount rate). No rounding is applied.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor)}
}

// Div divides the amount by a rational divisor (e.g. for averaging).
func (m Money) Div(divisor decimal.Decimal) Money {
	return Money{amount: m.amount.Div(divisor)}
}

// RatioTo returns m / other as a plain decimal ratio (e.g. for a P&L
// percentage). The caller must guarantee other is non-zero.
func (m Money) RatioTo(other Money) decimal.Decimal {
	return m.amount.Div(other.amount)
}

// Decimal exposes the underlying full-precision amount.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive reports whether the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative reports whether the amount is less than zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Equal reports whether two amounts are numerically equal.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// GreaterThan reports whether m > other.
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// String renders the amount rounded half-even to 2 decimal places.
// This is the single rounding point for external display.
func (m Money) String() string {
	return m.amount.RoundBank(2).StringFixed(2)
}

// MarshalJSON serializes the amount as a numeric string rounded half-even to
// 2 decimal places, so it round-trips exactly through MoneyFromString.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Not a string, try a bare number.
		s = string(data)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	m.amount = d
	return nil
}
