package models_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"bitbucket.org/mmdatafocus/doctotals_backend/models"
	"github.com/shopspring/decimal"
)

// Totals regression harness.
//
// Fixtures under models/testdata capture payloads from the screens that used
// to carry their own (inconsistent) totals arithmetic. Any change to the
// engine's rounding or tax handling must keep these verdicts intact.

type totalsCase struct {
	Name            string                `json:"name"`
	DiscountPercent decimal.Decimal       `json:"discount_percent"`
	Items           []models.LineItem     `json:"items"`
	Expected        models.DocumentTotals `json:"expected"`
}

type totalsFixture struct {
	Cases []totalsCase `json:"cases"`
}

func TestDocumentTotalsRegression(t *testing.T) {
	b, err := os.ReadFile(filepath.Join("testdata", "totals_cases.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	var fixture totalsFixture
	if err := json.Unmarshal(b, &fixture); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	if len(fixture.Cases) == 0 {
		t.Fatal("fixture has no cases")
	}

	for _, tc := range fixture.Cases {
		got := models.ComputeDocumentTotals(tc.Items, tc.DiscountPercent)

		assertDecimal(t, tc.Name, "subtotal", tc.Expected.Subtotal, got.Subtotal)
		assertDecimal(t, tc.Name, "discount_amount", tc.Expected.DiscountAmount, got.DiscountAmount)
		assertDecimal(t, tc.Name, "total_tax", tc.Expected.TotalTax, got.TotalTax)
		assertDecimal(t, tc.Name, "net_amount", tc.Expected.NetAmount, got.NetAmount)
		assertDecimal(t, tc.Name, "grand_total", tc.Expected.GrandTotal, got.GrandTotal)
	}
}

func assertDecimal(t *testing.T, caseName string, field string, expected decimal.Decimal, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(expected) {
		t.Fatalf("%s: %s expected %s, got %s", caseName, field, expected, got)
	}
}
