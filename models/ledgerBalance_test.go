package models_test

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/doctotals_backend/models"
	"github.com/shopspring/decimal"
)

func creditEntry(t *testing.T, amount string) models.LedgerEntry {
	t.Helper()
	return models.LedgerEntry{Side: models.EntrySideCredit, AccountId: 1, Amount: dec(t, amount)}
}

func debitEntry(t *testing.T, amount string) models.LedgerEntry {
	t.Helper()
	return models.LedgerEntry{Side: models.EntrySideDebit, AccountId: 2, Amount: dec(t, amount)}
}

func TestCheckTwoSided_Balanced(t *testing.T) {
	checker := models.NewLedgerBalanceChecker()

	result := checker.CheckTwoSided(
		[]models.LedgerEntry{creditEntry(t, "120")},
		[]models.LedgerEntry{debitEntry(t, "100"), debitEntry(t, "20")},
	)

	if !result.IsBalanced {
		t.Fatalf("expected balanced, got %+v", result)
	}
	if !result.Difference.IsZero() {
		t.Fatalf("expected zero difference, got %s", result.Difference)
	}
	if !result.TotalDebit.Equal(dec(t, "120")) || !result.TotalCredit.Equal(dec(t, "120")) {
		t.Fatalf("expected 120/120, got %s/%s", result.TotalDebit, result.TotalCredit)
	}
}

func TestCheckTwoSided_Unbalanced(t *testing.T) {
	checker := models.NewLedgerBalanceChecker()

	result := checker.CheckTwoSided(
		[]models.LedgerEntry{creditEntry(t, "120")},
		[]models.LedgerEntry{debitEntry(t, "100")},
	)

	if result.IsBalanced {
		t.Fatalf("expected unbalanced, got %+v", result)
	}
	if !result.Difference.Equal(dec(t, "20")) {
		t.Fatalf("expected difference 20, got %s", result.Difference)
	}
}

func TestCheckTwoSided_Symmetric(t *testing.T) {
	checker := models.NewLedgerBalanceChecker()
	credits := []models.LedgerEntry{creditEntry(t, "75.25"), creditEntry(t, "24.75")}
	debits := []models.LedgerEntry{debitEntry(t, "100")}

	forward := checker.CheckTwoSided(credits, debits)
	swapped := checker.CheckTwoSided(debits, credits)

	if forward.IsBalanced != swapped.IsBalanced || !forward.Difference.Equal(swapped.Difference) {
		t.Fatalf("role swap changed the verdict: %+v vs %+v", forward, swapped)
	}
	if !forward.IsBalanced {
		t.Fatalf("expected balanced, got %+v", forward)
	}
}

func TestCheckTwoSided_ToleranceBoundary(t *testing.T) {
	checker := models.NewLedgerBalanceChecker()

	cases := []struct {
		debit    string
		balanced bool
	}{
		{"100.009", true},
		{"100.01", false}, // difference == tolerance is a fail; comparison is strict
		{"100.011", false},
	}

	for _, tc := range cases {
		result := checker.CheckTwoSided(
			[]models.LedgerEntry{creditEntry(t, "100")},
			[]models.LedgerEntry{debitEntry(t, tc.debit)},
		)
		if result.IsBalanced != tc.balanced {
			t.Fatalf("debit %s: expected balanced=%v, got %+v", tc.debit, tc.balanced, result)
		}
	}
}

func TestCheckTwoSided_EmptySideNeverBalanced(t *testing.T) {
	checker := models.NewLedgerBalanceChecker()

	cases := []struct {
		name    string
		credits []models.LedgerEntry
		debits  []models.LedgerEntry
	}{
		{"empty credit side", nil, []models.LedgerEntry{debitEntry(t, "100")}},
		{"empty debit side", []models.LedgerEntry{creditEntry(t, "100")}, nil},
		{"both sides empty", nil, nil},
		{"only zero-amount entries", []models.LedgerEntry{creditEntry(t, "0")}, []models.LedgerEntry{debitEntry(t, "0")}},
	}

	for _, tc := range cases {
		result := checker.CheckTwoSided(tc.credits, tc.debits)
		if result.IsBalanced {
			t.Fatalf("%s: expected unbalanced, got %+v", tc.name, result)
		}
	}
}

func TestCheckTwoSided_NegativeAmountsCountAsZero(t *testing.T) {
	checker := models.NewLedgerBalanceChecker()

	result := checker.CheckTwoSided(
		[]models.LedgerEntry{creditEntry(t, "-50"), creditEntry(t, "120")},
		[]models.LedgerEntry{debitEntry(t, "120")},
	)

	if !result.IsBalanced {
		t.Fatalf("expected balanced after coercing -50 to 0, got %+v", result)
	}
}

func TestCheckTwoSided_CustomTolerance(t *testing.T) {
	checker := models.LedgerBalanceChecker{Tolerance: dec(t, "0.5")}

	result := checker.CheckTwoSided(
		[]models.LedgerEntry{creditEntry(t, "100")},
		[]models.LedgerEntry{debitEntry(t, "100.49")},
	)

	if !result.IsBalanced {
		t.Fatalf("expected balanced within widened tolerance, got %+v", result)
	}
}

func TestCheckTwoSidedStrict_Errors(t *testing.T) {
	checker := models.NewLedgerBalanceChecker()

	_, err := checker.CheckTwoSidedStrict(nil, []models.LedgerEntry{debitEntry(t, "100")})
	if !errors.Is(err, models.ErrEmptyLedgerSide) {
		t.Fatalf("expected ErrEmptyLedgerSide, got %v", err)
	}

	_, err = checker.CheckTwoSidedStrict(
		[]models.LedgerEntry{creditEntry(t, "-10"), creditEntry(t, "100")},
		[]models.LedgerEntry{debitEntry(t, "100")},
	)
	if !errors.Is(err, models.ErrInvalidLedgerEntry) {
		t.Fatalf("expected ErrInvalidLedgerEntry, got %v", err)
	}

	result, err := checker.CheckTwoSidedStrict(
		[]models.LedgerEntry{creditEntry(t, "120")},
		[]models.LedgerEntry{debitEntry(t, "100")},
	)
	if !errors.Is(err, models.ErrUnbalancedVoucher) {
		t.Fatalf("expected ErrUnbalancedVoucher, got %v", err)
	}
	// The result still carries the imbalance for the error message.
	if !result.Difference.Equal(dec(t, "20")) {
		t.Fatalf("expected difference 20 alongside error, got %s", result.Difference)
	}
}

func TestCheckPrincipalDistribution_DisabledIsAlwaysBalanced(t *testing.T) {
	checker := models.NewLedgerBalanceChecker()

	result := checker.CheckPrincipalDistribution(dec(t, "500"), nil, false)

	if !result.IsBalanced {
		t.Fatalf("expected unconditional balance with distribution disabled, got %+v", result)
	}
	if !result.Difference.IsZero() {
		t.Fatalf("expected zero difference, got %s", result.Difference)
	}

	// Sub-entries are ignored entirely while disabled.
	withEntries := checker.CheckPrincipalDistribution(dec(t, "500"), []models.LedgerEntry{debitEntry(t, "9999")}, false)
	if !withEntries.IsBalanced {
		t.Fatalf("expected sub-entries to be ignored, got %+v", withEntries)
	}
}

func TestCheckPrincipalDistribution_Enabled(t *testing.T) {
	checker := models.NewLedgerBalanceChecker()

	balanced := checker.CheckPrincipalDistribution(
		dec(t, "500"),
		[]models.LedgerEntry{creditEntry(t, "200"), creditEntry(t, "300")},
		true,
	)
	if !balanced.IsBalanced || !balanced.Difference.IsZero() {
		t.Fatalf("expected balanced distribution, got %+v", balanced)
	}

	short := checker.CheckPrincipalDistribution(
		dec(t, "500"),
		[]models.LedgerEntry{creditEntry(t, "200")},
		true,
	)
	if short.IsBalanced {
		t.Fatalf("expected unbalanced distribution, got %+v", short)
	}
	if !short.Difference.Equal(dec(t, "300")) {
		t.Fatalf("expected difference 300, got %s", short.Difference)
	}
}

func TestCheckPrincipalDistributionStrict_Errors(t *testing.T) {
	checker := models.NewLedgerBalanceChecker()

	_, err := checker.CheckPrincipalDistributionStrict(dec(t, "-1"), nil, false)
	if !errors.Is(err, models.ErrInvalidLedgerEntry) {
		t.Fatalf("expected ErrInvalidLedgerEntry for negative principal, got %v", err)
	}

	_, err = checker.CheckPrincipalDistributionStrict(
		dec(t, "500"),
		[]models.LedgerEntry{creditEntry(t, "200")},
		true,
	)
	if !errors.Is(err, models.ErrUnbalancedVoucher) {
		t.Fatalf("expected ErrUnbalancedVoucher, got %v", err)
	}

	result, err := checker.CheckPrincipalDistributionStrict(dec(t, "500"), nil, false)
	if err != nil {
		t.Fatalf("disabled distribution should pass strict mode, got %v", err)
	}
	if !result.IsBalanced {
		t.Fatalf("expected balanced, got %+v", result)
	}
}

func TestDefaultBalanceTolerance(t *testing.T) {
	if !models.DefaultBalanceTolerance.Equal(decimal.New(1, -2)) {
		t.Fatalf("default tolerance expected 0.01, got %s", models.DefaultBalanceTolerance)
	}
}
