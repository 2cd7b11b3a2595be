package models

import (
	"bitbucket.org/mmdatafocus/doctotals_backend/utils"
	"github.com/shopspring/decimal"
)

// DocumentTotals is a derived snapshot over a line-item collection. It has no
// identity of its own and is recomputed in full from the current lines and
// discount percent on every edit. Nothing here is cached between calls, so
// totals can never drift from the lines they were computed from.
type DocumentTotals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TotalTax        decimal.Decimal `json:"total_tax"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
}

// ComputeDocumentTotals computes subtotal, discount, tax, net and grand total
// for the given lines. Permissive: discountPercent is clamped to [0,100] and
// each line is recalculated with the same coercions as RecalculateLine, so
// derived fields on the inputs may be stale or missing.
//
// Lines are summed in insertion order at full precision; only the output
// fields are rounded to the minor unit. NetAmount and TotalTax are rounded
// first and GrandTotal is their exact sum, so grand = net + tax holds on the
// rounded figures too.
func ComputeDocumentTotals(items []LineItem, discountPercent decimal.Decimal) DocumentTotals {
	discountPercent = utils.ClampPercent(discountPercent)

	subtotal := utils.DecimalZero
	totalTax := utils.DecimalZero
	for _, item := range items {
		line := RecalculateLine(item)
		subtotal = subtotal.Add(line.LineTotal)
		totalTax = totalTax.Add(line.TaxAmount)
	}

	discountAmount := utils.CalculateDiscountAmount(subtotal, discountPercent)

	subtotalR := utils.RoundMoney(subtotal)
	discountR := utils.RoundMoney(discountAmount)
	taxR := utils.RoundMoney(totalTax)
	netR := subtotalR.Sub(discountR)

	return DocumentTotals{
		Subtotal:        subtotalR,
		DiscountPercent: discountPercent,
		DiscountAmount:  discountR,
		TotalTax:        taxR,
		NetAmount:       netR,
		GrandTotal:      netR.Add(taxR),
	}
}

// ComputeDocumentTotalsStrict is the submission-time variant: instead of
// correcting bad input it fails with ErrInvalidDiscount or ErrInvalidLineItem.
func ComputeDocumentTotalsStrict(items []LineItem, discountPercent decimal.Decimal) (DocumentTotals, error) {
	if discountPercent.IsNegative() || discountPercent.GreaterThan(utils.DecimalOneHundred) {
		return DocumentTotals{}, newValidationError(ErrInvalidDiscount, "discount percent %s is outside [0,100]", discountPercent)
	}
	for i, item := range items {
		if err := validateLineItem(item); err != nil {
			return DocumentTotals{}, newValidationError(ErrInvalidLineItem, "line %d: %v", i+1, err)
		}
	}
	return ComputeDocumentTotals(items, discountPercent), nil
}
