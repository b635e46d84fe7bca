package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// AmountScale is the number of fraction digits kept for an amount.
	AmountScale = 2

	// MaxCategoryLength bounds the free-text category label.
	MaxCategoryLength = 100
)

const (
	// maxAmountText bounds the accepted input before it is parsed.
	maxAmountText = 32
	// maxIntegerDigits mirrors a DECIMAL(10,2) column.
	maxIntegerDigits = 8
	// minExponent bounds fraction digits so rounding stays cheap.
	minExponent = -maxAmountText
	// maxCoefficientBits admits any coefficient that fits maxAmountText digits.
	maxCoefficientBits = 128
)

// maxAmount mirrors a DECIMAL(10,2) column: eight integer digits.
var maxAmount = decimal.New(1, maxIntegerDigits)

// ParseAmount converts a decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half away from zero to two fraction digits. Exponent notation is
// rejected.
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrMissingFields
	}
	if len(s) > maxAmountText || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return NormalizeAmount(d)
}

// NormalizeAmount rounds to AmountScale and rejects values that do not fit.
// The exponent and coefficient are bounded first: rounding and comparison
// rescale the coefficient, which costs time proportional to the exponent.
func NormalizeAmount(d decimal.Decimal) (decimal.Decimal, error) {
	exp := d.Exponent()
	if exp > maxIntegerDigits || exp < minExponent || d.Coefficient().BitLen() > maxCoefficientBits {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(AmountScale)
	if d.Abs().GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two fraction digits.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}
