package models_test

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/doctotals_backend/models"
	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestRecalculateLine_TaxExclusiveRate(t *testing.T) {
	item := models.LineItem{
		Qty:      dec(t, "2"),
		UnitRate: dec(t, "50"),
		Tax:      models.TaxRate(dec(t, "0.15")),
	}

	got := models.RecalculateLine(item)

	if !got.LineTotal.Equal(dec(t, "100")) {
		t.Fatalf("LineTotal expected 100, got %s", got.LineTotal)
	}
	if !got.TaxAmount.Equal(dec(t, "15")) {
		t.Fatalf("TaxAmount expected 15, got %s", got.TaxAmount)
	}
}

func TestRecalculateLine_TaxInclusiveBacksOutTax(t *testing.T) {
	// 230 gross at 15% inclusive carries 30 of tax; the line total excludes it.
	item := models.LineItem{
		Qty:          dec(t, "1"),
		UnitRate:     dec(t, "230"),
		Tax:          models.TaxRate(dec(t, "0.15")),
		TaxInclusive: true,
	}

	got := models.RecalculateLine(item)

	if !got.TaxAmount.Equal(dec(t, "30")) {
		t.Fatalf("TaxAmount expected 30, got %s", got.TaxAmount)
	}
	if !got.LineTotal.Equal(dec(t, "200")) {
		t.Fatalf("LineTotal expected 200, got %s", got.LineTotal)
	}
}

func TestRecalculateLine_FixedTaxAmount(t *testing.T) {
	item := models.LineItem{
		Qty:      dec(t, "3"),
		UnitRate: dec(t, "10"),
		Tax:      models.TaxFixedAmount(dec(t, "2.5")),
	}

	got := models.RecalculateLine(item)

	if !got.LineTotal.Equal(dec(t, "30")) {
		t.Fatalf("LineTotal expected 30, got %s", got.LineTotal)
	}
	if !got.TaxAmount.Equal(dec(t, "2.5")) {
		t.Fatalf("TaxAmount expected 2.5, got %s", got.TaxAmount)
	}
}

func TestRecalculateLine_PermissiveCoercion(t *testing.T) {
	cases := []struct {
		name     string
		item     models.LineItem
		expTotal string
		expTax   string
	}{
		{
			name:     "negative qty coerced to zero",
			item:     models.LineItem{Qty: dec(t, "-1"), UnitRate: dec(t, "50"), Tax: models.NoTax()},
			expTotal: "0",
			expTax:   "0",
		},
		{
			name:     "negative unit rate coerced to zero",
			item:     models.LineItem{Qty: dec(t, "2"), UnitRate: dec(t, "-9.99"), Tax: models.NoTax()},
			expTotal: "0",
			expTax:   "0",
		},
		{
			name:     "negative fixed tax coerced to zero",
			item:     models.LineItem{Qty: dec(t, "1"), UnitRate: dec(t, "10"), Tax: models.TaxFixedAmount(dec(t, "-3"))},
			expTotal: "10",
			expTax:   "0",
		},
		{
			name:     "tax rate above one clamped",
			item:     models.LineItem{Qty: dec(t, "1"), UnitRate: dec(t, "10"), Tax: models.TaxRate(dec(t, "1.5"))},
			expTotal: "10",
			expTax:   "10",
		},
	}

	for _, tc := range cases {
		got := models.RecalculateLine(tc.item)
		if !got.LineTotal.Equal(dec(t, tc.expTotal)) {
			t.Fatalf("%s: LineTotal expected %s, got %s", tc.name, tc.expTotal, got.LineTotal)
		}
		if !got.TaxAmount.Equal(dec(t, tc.expTax)) {
			t.Fatalf("%s: TaxAmount expected %s, got %s", tc.name, tc.expTax, got.TaxAmount)
		}
	}
}

func TestRecalculateLine_DoesNotMutateInput(t *testing.T) {
	item := models.LineItem{Qty: dec(t, "2"), UnitRate: dec(t, "50"), Tax: models.TaxRate(dec(t, "0.15"))}

	_ = models.RecalculateLine(item)

	if !item.LineTotal.IsZero() || !item.TaxAmount.IsZero() {
		t.Fatalf("input mutated: LineTotal=%s TaxAmount=%s", item.LineTotal, item.TaxAmount)
	}
}

func TestRecalculateLineStrict_RejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		item models.LineItem
	}{
		{"negative qty", models.LineItem{Qty: dec(t, "-1"), UnitRate: dec(t, "50"), Tax: models.NoTax()}},
		{"negative unit rate", models.LineItem{Qty: dec(t, "1"), UnitRate: dec(t, "-50"), Tax: models.NoTax()}},
		{"tax rate above one", models.LineItem{Qty: dec(t, "1"), UnitRate: dec(t, "50"), Tax: models.TaxRate(dec(t, "1.01"))}},
		{"negative tax rate", models.LineItem{Qty: dec(t, "1"), UnitRate: dec(t, "50"), Tax: models.TaxRate(dec(t, "-0.1"))}},
		{"negative fixed tax", models.LineItem{Qty: dec(t, "1"), UnitRate: dec(t, "50"), Tax: models.TaxFixedAmount(dec(t, "-1"))}},
	}

	for _, tc := range cases {
		_, err := models.RecalculateLineStrict(tc.item)
		if !errors.Is(err, models.ErrInvalidLineItem) {
			t.Fatalf("%s: expected ErrInvalidLineItem, got %v", tc.name, err)
		}
	}
}
