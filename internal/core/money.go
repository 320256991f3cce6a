// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and display representations. All monetary
// arithmetic in the application happens on int64 cents.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in minor currency units (cents).
type Money struct {
	Cents int64
}

// Percent is a percentage in basis points: 100% == 10000.
// Keeping percentages integral avoids floating-point drift when
// applying them to Money.
type Percent int64

// FullPercent is 100% expressed in basis points.
const FullPercent Percent = 10000

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1234, nil (rounds down)
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
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
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64 = 0
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 {
				if fracPart[2] >= '5' {
					fracCents++
				}
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseMoney is ParseDecimalToCents wrapped in a Money value.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// ParsePercent converts a decimal percentage string ("10", "12.5") to basis
// points with half-up rounding on the third decimal place. Zero is allowed;
// negatives and values above 100 are not.
func ParsePercent(s string) (Percent, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidPercent
	}
	// ParseDecimalToCents rejects zero, but "0%" is a legal percentage.
	if allZeroDecimal(s) {
		return 0, nil
	}
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return 0, ErrInvalidPercent
	}
	if cents > int64(FullPercent) {
		return 0, ErrInvalidPercent
	}
	return Percent(cents), nil
}

func allZeroDecimal(s string) bool {
	s = strings.ReplaceAll(s, ",", ".")
	for _, r := range s {
		if r != '0' && r != '.' {
			return false
		}
	}
	return strings.Count(s, ".") <= 1
}

// Of applies the percentage to an amount, truncating toward zero.
// Callers that need total preservation compute the final share as a
// remainder instead of applying Of to every part.
func (p Percent) Of(m Money) Money {
	return Money{Cents: m.Cents * int64(p) / int64(FullPercent)}
}

// Float returns the percentage as a plain number (10.5 for 1050 bp),
// for display only.
func (p Percent) Float() float64 {
	return float64(p) / 100.0
}

// Validate rejects percentages outside [0, 100].
func (p Percent) Validate() error {
	if p < 0 || p > FullPercent {
		return ErrInvalidPercent
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns the difference of two amounts.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// Decimal renders the amount as a plain decimal string ("1234.56") for
// JSON payloads and logs. Calculations always use cents.
func (m Money) Decimal() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if neg {
		return "-" + s
	}
	return s
}

// Validate rejects non-positive amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
