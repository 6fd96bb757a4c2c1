// Package money implements the fixed-point currency amount used throughout the
// ledger. Every Money value carries exactly two fractional digits (kobo); any
// operation that could produce more rounds half away from zero, which equals
// round-half-up for the non-negative amounts the ledger stores.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	apperrors "chowvest/internal/errors"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept, matching the naira's minor unit.
const Scale = 2

// Symbol prefixes amounts rendered for people.
const Symbol = "₦"

var plainDecimal = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// Money is an exact currency amount. The zero value is ₦0.00.
type Money struct {
	d decimal.Decimal
}

// Zero is ₦0.00.
var Zero = Money{d: decimal.New(0, -Scale)}

// New rounds d to two fractional digits.
func New(d decimal.Decimal) Money {
	return Money{d: d.Round(Scale)}
}

// FromInt returns a whole-naira amount.
func FromInt(v int64) Money {
	return Money{d: decimal.New(v, 0)}
}

// FromMinorUnits converts kobo into Money.
func FromMinorUnits(v int64) Money {
	return Money{d: decimal.New(v, -Scale)}
}

// Parse reads a plain decimal string such as "5000" or "49.50". Exponent
// notation, NaN/Inf spellings, and more than two fractional digits are
// rejected with INVALID_AMOUNT.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if !plainDecimal.MatchString(s) {
		return Money{}, apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("invalid amount %q", s))
	}
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > Scale {
		return Money{}, apperrors.WithMessage(apperrors.ErrInvalidAmount, fmt.Sprintf("amount %q has more than %d decimal places", s, Scale))
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, apperrors.Wrap(apperrors.ErrInvalidAmount, err)
	}
	return Money{d: d}, nil
}

// MustParse is Parse for constants and tests; it panics on bad input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

// Mul scales m by factor, rounding the product to two fractional digits.
func (m Money) Mul(factor decimal.Decimal) Money { return New(m.d.Mul(factor)) }

// MulInt scales m by an integer factor. The result is exact.
func (m Money) MulInt(n int64) Money { return Money{d: m.d.Mul(decimal.NewFromInt(n))} }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }
func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }
func (m Money) GreaterThanOrEqual(o Money) bool { return m.d.GreaterThanOrEqual(o.d) }
func (m Money) LessThanOrEqual(o Money) bool { return m.d.LessThanOrEqual(o.d) }
func (m Money) IsZero() bool { return m.d.IsZero() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// Max returns the larger of a and b.
func Max(a, b Money) Money {
	if a.LessThan(b) {
		return b
	}
	return a
}

// MinorUnits converts m into kobo for the payment gateway.
func (m Money) MinorUnits() int64 {
	return m.d.Shift(Scale).Round(0).IntPart()
}

// String returns the canonical serialization, e.g. "10000.00".
func (m Money) String() string {
	return m.d.StringFixed(Scale)
}

// Float64 is for display and metrics only; never feed it back into the ledger.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// Format renders m for people, e.g. "₦10,000.00".
func (m Money) Format() string {
	s := m.String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + Symbol + b.String() + "." + frac
}

// Value implements driver.Valuer. Amounts are stored as text so no driver
// ever routes them through float64.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Zero
	case int64:
		*m = FromInt(v)
	case float64:
		*m = New(decimal.NewFromFloat(v))
	case string:
		return m.scanString(v)
	case []byte:
		return m.scanString(string(v))
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
	return nil
}

func (m *Money) scanString(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*m = New(d)
	return nil
}

// MarshalJSON encodes m as a JSON string so clients never parse it as a float.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either "49.50" or 49.50.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*m = Zero
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return apperrors.Wrap(apperrors.ErrInvalidAmount, err)
		}
		raw = s
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
