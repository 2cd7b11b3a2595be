package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Shared money/rounding helpers. All monetary arithmetic in this codebase goes
// through shopspring/decimal; float64 never touches an amount.

var (
	DecimalZero       = decimal.NewFromInt(0)
	DecimalOne        = decimal.NewFromInt(1)
	DecimalOneHundred = decimal.NewFromInt(100)
)

// MinorUnitPlaces is the precision totals are rounded to before they leave the
// engine. Intermediate per-line values keep full precision (divisions use
// IntermediatePlaces) so rounding error does not compound across lines.
const (
	MinorUnitPlaces    int32 = 2
	IntermediatePlaces int32 = 4
)

// RoundMoney rounds to the currency's minor-unit precision. Only final output
// fields are rounded; never round before summing.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MinorUnitPlaces)
}

// ClampPercent corrects a percentage into [0, 100]. Out-of-range input from a
// live-editing form is corrected, not rejected.
func ClampPercent(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return DecimalZero
	}
	if d.GreaterThan(DecimalOneHundred) {
		return DecimalOneHundred
	}
	return d
}

// ClampFraction corrects a rate into [0, 1].
func ClampFraction(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return DecimalZero
	}
	if d.GreaterThan(DecimalOne) {
		return DecimalOne
	}
	return d
}

// SanitizeAmount coerces a negative amount to zero. Blank and unparsable form
// fields arrive here as zero already (see ParseDecimal), so after this call an
// amount is always usable in a sum.
func SanitizeAmount(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return DecimalZero
	}
	return d
}

// CalculateDiscountAmount computes the discount portion of a subtotal from a
// percentage already clamped to [0, 100].
func CalculateDiscountAmount(subTotal decimal.Decimal, discountPercent decimal.Decimal) decimal.Decimal {
	if !discountPercent.GreaterThan(DecimalZero) {
		return DecimalZero
	}
	return subTotal.Mul(discountPercent).DivRound(DecimalOneHundred, IntermediatePlaces)
}

// CalculateTaxAmount computes the tax carried by lineAmount for a fractional
// rate (0.15 for 15%).
//
// Tax-inclusive: lineAmount already contains tax, back it out as
// lineAmount * rate / (1 + rate).
// Tax-exclusive: tax is additive, lineAmount * rate.
func CalculateTaxAmount(lineAmount decimal.Decimal, taxRate decimal.Decimal, isTaxInclusive bool) decimal.Decimal {
	if !taxRate.GreaterThan(DecimalZero) {
		return DecimalZero
	}
	if isTaxInclusive {
		return lineAmount.Mul(taxRate).DivRound(DecimalOne.Add(taxRate), IntermediatePlaces)
	}
	return lineAmount.Mul(taxRate)
}

// ParseDecimal parses a user-entered amount string.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, ErrEmptyDecimalString
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}
