package models

import (
	"bitbucket.org/mmdatafocus/doctotals_backend/utils"
	"github.com/shopspring/decimal"
)

// TaxSpec is the tagged tax representation of a line. Screens that model tax
// as a percentage build it with TaxRate; screens that carry a precomputed
// amount use TaxFixedAmount. The two are never mixed on one line.
type TaxSpec struct {
	Kind   TaxSpecKind     `json:"kind"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

func TaxRate(rate decimal.Decimal) TaxSpec {
	return TaxSpec{Kind: TaxSpecKindRate, Rate: rate}
}

func TaxFixedAmount(amount decimal.Decimal) TaxSpec {
	return TaxSpec{Kind: TaxSpecKindFixedAmount, Amount: amount}
}

func NoTax() TaxSpec {
	return TaxSpec{Kind: TaxSpecKindNone}
}

// LineItem is one priced row on a commercial document. LineTotal and
// TaxAmount are derived; the engine owns them and refreshes both on every
// recalculation. LineTotal always excludes tax, so tax can be reported
// independently of the subtotal.
type LineItem struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Qty          decimal.Decimal `json:"qty"`
	UnitRate     decimal.Decimal `json:"unit_rate"`
	Tax          TaxSpec         `json:"tax"`
	TaxInclusive bool            `json:"tax_inclusive"`
	LineTotal    decimal.Decimal `json:"line_total"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
}

// RecalculateLine refreshes the derived fields after any single-field edit.
// Permissive: negative quantity/rate is coerced to zero and a rate outside
// [0,1] is clamped, so a half-typed form never errors. Pure; the input is not
// mutated.
func RecalculateLine(item LineItem) LineItem {
	qty := utils.SanitizeAmount(item.Qty)
	unitRate := utils.SanitizeAmount(item.UnitRate)
	gross := qty.Mul(unitRate)

	var taxAmount decimal.Decimal
	switch item.Tax.Kind {
	case TaxSpecKindRate:
		rate := utils.ClampFraction(item.Tax.Rate)
		taxAmount = utils.CalculateTaxAmount(gross, rate, item.TaxInclusive)
	case TaxSpecKindFixedAmount:
		taxAmount = utils.SanitizeAmount(item.Tax.Amount)
	default:
		taxAmount = utils.DecimalZero
	}

	item.Qty = qty
	item.UnitRate = unitRate
	if item.TaxInclusive {
		item.LineTotal = gross.Sub(taxAmount)
	} else {
		item.LineTotal = gross
	}
	item.TaxAmount = taxAmount
	return item
}

// RecalculateLineStrict is the submission-time variant. It refuses the input
// RecalculateLine would silently correct.
func RecalculateLineStrict(item LineItem) (LineItem, error) {
	if err := validateLineItem(item); err != nil {
		return LineItem{}, err
	}
	return RecalculateLine(item), nil
}

func validateLineItem(item LineItem) error {
	if item.Qty.IsNegative() {
		return newValidationError(ErrInvalidLineItem, "qty %s is negative", item.Qty)
	}
	if item.UnitRate.IsNegative() {
		return newValidationError(ErrInvalidLineItem, "unit rate %s is negative", item.UnitRate)
	}
	switch item.Tax.Kind {
	case TaxSpecKindRate:
		if item.Tax.Rate.IsNegative() || item.Tax.Rate.GreaterThan(utils.DecimalOne) {
			return newValidationError(ErrInvalidLineItem, "tax rate %s is outside [0,1]", item.Tax.Rate)
		}
	case TaxSpecKindFixedAmount:
		if item.Tax.Amount.IsNegative() {
			return newValidationError(ErrInvalidLineItem, "tax amount %s is negative", item.Tax.Amount)
		}
	}
	return nil
}
