package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-negative currency amount kept at cent precision.
// It encodes to JSON as a plain number with two decimal places.
type Money struct {
	decimal.Decimal
}

// ZeroMoney is the zero amount.
var ZeroMoney = Money{decimal.Zero.Round(2)}

// NewMoney rounds d to cents, clamping negative amounts to zero.
func NewMoney(d decimal.Decimal) Money {
	if d.IsNegative() {
		return ZeroMoney
	}
	return Money{d.Round(2)}
}

// MoneyFromFloat converts a float amount to Money.
func MoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

// ParseMoney coerces free-form input into Money. Currency symbols, thousands
// separators and surrounding whitespace are ignored; anything that still does
// not parse as a number becomes zero.
func ParseMoney(s string) Money {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return ZeroMoney
	}
	return NewMoney(d)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return NewMoney(m.Decimal.Add(o.Decimal))
}

// Equal reports whether m and o represent the same amount.
func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

// String renders the amount with two decimal places.
func (m Money) String() string {
	return m.StringFixed(2)
}

// MarshalJSON encodes the amount as an unquoted number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

// UnmarshalJSON accepts numbers, numeric strings, null and garbage. Values
// that cannot be read as a number decode to zero instead of failing.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = ZeroMoney
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*m = ZeroMoney
			return nil
		}
		*m = ParseMoney(s)
		return nil
	}

	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		*m = ZeroMoney
		return nil
	}
	*m = ParseMoney(string(data))
	return nil
}
