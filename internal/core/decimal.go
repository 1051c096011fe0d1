// Package core holds the tracker's domain types.
//
// This file contains the fixed-point Decimal used for every hour, mile, and
// rate quantity. Values are kept as integer hundredths for arithmetic and
// rendered as two-decimal strings only at serialization boundaries.
package core

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Decimal is a non-lossy two-decimal quantity stored as integer hundredths.
//
// Examples:
//
//	ParseDecimal("9")      -> {900}
//	ParseDecimal("12.5")   -> {1250}
//	ParseDecimal("12,346") -> {1235} (half-up on the third decimal)
type Decimal struct {
	Hundredths int64
}

var ErrInvalidDecimal = errors.New("invalid decimal")

// ParseDecimal converts a decimal string to hundredths with half-up rounding
// on the third decimal place. Both dot and comma separators are accepted.
// Signed input is rejected; quantities in this system are never entered
// negative.
func ParseDecimal(s string) (Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Decimal{}, ErrInvalidDecimal
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Decimal{}, ErrInvalidDecimal
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Decimal{}, ErrInvalidDecimal
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return Decimal{}, ErrInvalidDecimal
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Decimal{}, ErrInvalidDecimal
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Decimal{}, ErrInvalidDecimal
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return Decimal{}, ErrInvalidDecimal
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	return Decimal{Hundredths: iv*100 + frac}, nil
}

// DecimalFromFloat rounds f half-up to two decimals.
func DecimalFromFloat(f float64) Decimal {
	return Decimal{Hundredths: int64(math.Round(f * 100))}
}

func (d Decimal) Add(o Decimal) Decimal {
	return Decimal{Hundredths: d.Hundredths + o.Hundredths}
}

func (d Decimal) IsZero() bool     { return d.Hundredths == 0 }
func (d Decimal) IsNegative() bool { return d.Hundredths < 0 }

// Float64 returns the value for display math only; keep hundredths for sums.
func (d Decimal) Float64() float64 {
	return float64(d.Hundredths) / 100.0
}

// String renders the value with exactly two decimals, e.g. "9.00".
func (d Decimal) String() string {
	h := d.Hundredths
	sign := ""
	if h < 0 {
		sign = "-"
		h = -h
	}
	return fmt.Sprintf("%s%d.%02d", sign, h/100, h%100)
}

// MarshalJSON emits the two-decimal form as a JSON number literal so clients
// see 9.00 rather than an integer of hundredths.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (d *Decimal) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := ParseDecimal(s)
	if err != nil {
		return fmt.Errorf("decimal %q: %w", s, err)
	}
	*d = v
	return nil
}
