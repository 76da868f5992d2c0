package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for every persisted amount.
const Scale int32 = 2

// Money is an immutable monetary amount in the single operating currency.
// Every constructor rounds to two fractional digits, so arithmetic between
// two Money values never accumulates sub-cent drift.
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a decimal, rounded half-up to two places
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount.Round(Scale)}
}

// NewMoneyFromInt creates Money from a whole amount
func NewMoneyFromInt(amount int64) Money {
	return NewMoney(decimal.NewFromInt(amount))
}

// NewMoneyFromString parses a decimal string such as "1250.50"
func NewMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d), nil
}

// MustMoney parses amount and panics on malformed input. Intended for tests and constants.
func MustMoney(amount string) Money {
	m, err := NewMoneyFromString(amount)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Add returns m + other
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns m - other
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// MulInt returns m multiplied by a whole quantity
func (m Money) MulInt(factor int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor))}
}

// Neg returns -m
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg()}
}

func (m Money) Equal(other Money) bool              { return m.amount.Equal(other.amount) }
func (m Money) LessThan(other Money) bool           { return m.amount.LessThan(other.amount) }
func (m Money) GreaterThan(other Money) bool        { return m.amount.GreaterThan(other.amount) }
func (m Money) GreaterThanOrEqual(other Money) bool { return m.amount.GreaterThanOrEqual(other.amount) }

// Cmp compares m and other and returns -1, 0 or +1
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// String renders the amount with exactly two fractional digits, e.g. "700.00"
func (m Money) String() string {
	return m.amount.StringFixed(Scale)
}

// Sum adds up a list of amounts
func Sum(values ...Money) Money {
	total := Zero()
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// MarshalJSON renders the amount as a decimal string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both "12.50" and 12.5
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*m = Zero()
		return nil
	}
	parsed, err := NewMoneyFromString(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner. Drivers return NUMERIC as string, []byte or float64.
func (m *Money) Scan(value any) error {
	if value == nil {
		*m = Zero()
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("cannot scan %T into Money: %w", value, err)
	}
	*m = NewMoney(d)
	return nil
}
