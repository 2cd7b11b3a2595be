package models_test

import (
	"errors"
	"reflect"
	"testing"

	"bitbucket.org/mmdatafocus/doctotals_backend/models"
)

func TestComputeDocumentTotals_TaxExclusive(t *testing.T) {
	items := []models.LineItem{
		{Qty: dec(t, "2"), UnitRate: dec(t, "50"), Tax: models.TaxRate(dec(t, "0.15"))},
	}

	got := models.ComputeDocumentTotals(items, dec(t, "10"))

	checkTotals(t, got, "100", "10", "15", "90", "105")
}

func TestComputeDocumentTotals_EmptyItems(t *testing.T) {
	got := models.ComputeDocumentTotals(nil, dec(t, "25"))

	checkTotals(t, got, "0", "0", "0", "0", "0")
}

func TestComputeDocumentTotals_TaxInclusive(t *testing.T) {
	items := []models.LineItem{
		{Qty: dec(t, "1"), UnitRate: dec(t, "230"), Tax: models.TaxRate(dec(t, "0.15")), TaxInclusive: true},
	}

	got := models.ComputeDocumentTotals(items, dec(t, "0"))

	checkTotals(t, got, "200", "0", "30", "200", "230")
}

func TestComputeDocumentTotals_MixedTaxSpecs(t *testing.T) {
	items := []models.LineItem{
		{Qty: dec(t, "3"), UnitRate: dec(t, "10"), Tax: models.TaxFixedAmount(dec(t, "2.5"))},
		{Qty: dec(t, "2"), UnitRate: dec(t, "24.99"), Tax: models.TaxRate(dec(t, "0.075"))},
	}

	got := models.ComputeDocumentTotals(items, dec(t, "5"))

	// subtotal 79.98, discount 3.999 -> 4.00, tax 2.5 + 3.7485 -> 6.25
	checkTotals(t, got, "79.98", "4.00", "6.25", "75.98", "82.23")
}

func TestComputeDocumentTotals_DiscountClamped(t *testing.T) {
	items := []models.LineItem{
		{Qty: dec(t, "1"), UnitRate: dec(t, "100"), Tax: models.NoTax()},
	}

	over := models.ComputeDocumentTotals(items, dec(t, "150"))
	if !over.DiscountPercent.Equal(dec(t, "100")) || !over.NetAmount.Equal(dec(t, "0")) {
		t.Fatalf("over-range discount: expected percent 100 net 0, got percent %s net %s", over.DiscountPercent, over.NetAmount)
	}

	under := models.ComputeDocumentTotals(items, dec(t, "-5"))
	if !under.DiscountPercent.Equal(dec(t, "0")) || !under.NetAmount.Equal(dec(t, "100")) {
		t.Fatalf("negative discount: expected percent 0 net 100, got percent %s net %s", under.DiscountPercent, under.NetAmount)
	}
}

func TestComputeDocumentTotals_Idempotent(t *testing.T) {
	items := []models.LineItem{
		{Qty: dec(t, "2"), UnitRate: dec(t, "50"), Tax: models.TaxRate(dec(t, "0.15"))},
		{Qty: dec(t, "1"), UnitRate: dec(t, "19.99"), Tax: models.TaxFixedAmount(dec(t, "1.2"))},
	}

	first := models.ComputeDocumentTotals(items, dec(t, "7.5"))
	second := models.ComputeDocumentTotals(items, dec(t, "7.5"))

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical input produced different totals:\n%+v\n%+v", first, second)
	}
}

func TestComputeDocumentTotals_TaxAdditivity(t *testing.T) {
	cases := [][]models.LineItem{
		{{Qty: dec(t, "2"), UnitRate: dec(t, "50"), Tax: models.TaxRate(dec(t, "0.15"))}},
		{{Qty: dec(t, "7"), UnitRate: dec(t, "3.33"), Tax: models.TaxRate(dec(t, "0.07"))}},
		{
			{Qty: dec(t, "1"), UnitRate: dec(t, "115"), Tax: models.TaxRate(dec(t, "0.15")), TaxInclusive: true},
			{Qty: dec(t, "4"), UnitRate: dec(t, "0.99"), Tax: models.TaxFixedAmount(dec(t, "0.33"))},
		},
	}

	for i, items := range cases {
		for _, d := range []string{"0", "10", "33.33", "100"} {
			got := models.ComputeDocumentTotals(items, dec(t, d))
			if !got.GrandTotal.Equal(got.NetAmount.Add(got.TotalTax)) {
				t.Fatalf("case %d discount %s: grand %s != net %s + tax %s", i, d, got.GrandTotal, got.NetAmount, got.TotalTax)
			}
			if !got.NetAmount.Equal(got.Subtotal.Sub(got.DiscountAmount)) {
				t.Fatalf("case %d discount %s: net %s != subtotal %s - discount %s", i, d, got.NetAmount, got.Subtotal, got.DiscountAmount)
			}
		}
	}
}

func TestComputeDocumentTotalsStrict_Errors(t *testing.T) {
	valid := []models.LineItem{{Qty: dec(t, "1"), UnitRate: dec(t, "10"), Tax: models.NoTax()}}

	_, err := models.ComputeDocumentTotalsStrict(valid, dec(t, "120"))
	if !errors.Is(err, models.ErrInvalidDiscount) {
		t.Fatalf("expected ErrInvalidDiscount, got %v", err)
	}
	if code := models.ValidationCode(err); code != "InvalidDiscount" {
		t.Fatalf("expected code InvalidDiscount, got %q", code)
	}

	invalid := []models.LineItem{{Qty: dec(t, "-1"), UnitRate: dec(t, "10"), Tax: models.NoTax()}}
	_, err = models.ComputeDocumentTotalsStrict(invalid, dec(t, "0"))
	if !errors.Is(err, models.ErrInvalidLineItem) {
		t.Fatalf("expected ErrInvalidLineItem, got %v", err)
	}
	if code := models.ValidationCode(err); code != "InvalidLineItem" {
		t.Fatalf("expected code InvalidLineItem, got %q", code)
	}
}

func TestComputeDocumentTotalsStrict_ValidInput(t *testing.T) {
	items := []models.LineItem{
		{Qty: dec(t, "2"), UnitRate: dec(t, "50"), Tax: models.TaxRate(dec(t, "0.15"))},
	}

	strict, err := models.ComputeDocumentTotalsStrict(items, dec(t, "10"))
	if err != nil {
		t.Fatalf("strict compute failed: %v", err)
	}
	permissive := models.ComputeDocumentTotals(items, dec(t, "10"))
	if !reflect.DeepEqual(strict, permissive) {
		t.Fatalf("strict and permissive disagree on valid input:\n%+v\n%+v", strict, permissive)
	}
}

func checkTotals(t *testing.T, got models.DocumentTotals, subtotal, discount, tax, net, grand string) {
	t.Helper()
	if !got.Subtotal.Equal(dec(t, subtotal)) {
		t.Fatalf("Subtotal expected %s, got %s", subtotal, got.Subtotal)
	}
	if !got.DiscountAmount.Equal(dec(t, discount)) {
		t.Fatalf("DiscountAmount expected %s, got %s", discount, got.DiscountAmount)
	}
	if !got.TotalTax.Equal(dec(t, tax)) {
		t.Fatalf("TotalTax expected %s, got %s", tax, got.TotalTax)
	}
	if !got.NetAmount.Equal(dec(t, net)) {
		t.Fatalf("NetAmount expected %s, got %s", net, got.NetAmount)
	}
	if !got.GrandTotal.Equal(dec(t, grand)) {
		t.Fatalf("GrandTotal expected %s, got %s", grand, got.GrandTotal)
	}
}
