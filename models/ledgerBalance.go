package models

import (
	"bitbucket.org/mmdatafocus/doctotals_backend/utils"
	"github.com/shopspring/decimal"
)

// LedgerEntry is one side of a voucher's double entry. AccountId is opaque
// here; account existence is the caller's concern. Description and Reference
// are carried for display only and never enter the arithmetic.
type LedgerEntry struct {
	Side        EntrySide       `json:"side"`
	AccountId   int             `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

// BalanceResult reports both totals and the running imbalance. Difference is
// populated even when the voucher balances, so the form can render a live
// imbalance indicator during editing rather than just a pass/fail flag.
type BalanceResult struct {
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Difference  decimal.Decimal `json:"difference"`
	IsBalanced  bool            `json:"is_balanced"`
}

// DefaultBalanceTolerance is one unit of the currency's minor denomination.
var DefaultBalanceTolerance = decimal.New(1, -2)

// LedgerBalanceChecker evaluates whether a voucher's entries reconcile within
// Tolerance. Stateless; every check is a fresh evaluation over its arguments.
type LedgerBalanceChecker struct {
	Tolerance decimal.Decimal
}

func NewLedgerBalanceChecker() LedgerBalanceChecker {
	return LedgerBalanceChecker{Tolerance: DefaultBalanceTolerance}
}

// CheckTwoSided reconciles independent credit and debit entry lists (contra
// vouchers). Balanced requires difference < tolerance AND at least one
// positive entry on each side; an empty side is never vacuously balanced,
// because a voucher with no debit leg is not a valid accounting entry.
// Permissive: negative amounts count as zero.
func (c LedgerBalanceChecker) CheckTwoSided(creditEntries []LedgerEntry, debitEntries []LedgerEntry) BalanceResult {
	totalCredit, creditEligible := sumEntries(creditEntries)
	totalDebit, debitEligible := sumEntries(debitEntries)

	difference := totalDebit.Sub(totalCredit).Abs()
	return BalanceResult{
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Difference:  difference,
		IsBalanced:  creditEligible && debitEligible && difference.LessThan(c.Tolerance),
	}
}

// CheckTwoSidedStrict is the submission-time variant.
func (c LedgerBalanceChecker) CheckTwoSidedStrict(creditEntries []LedgerEntry, debitEntries []LedgerEntry) (BalanceResult, error) {
	if err := validateEntries("credit", creditEntries); err != nil {
		return BalanceResult{}, err
	}
	if err := validateEntries("debit", debitEntries); err != nil {
		return BalanceResult{}, err
	}

	result := c.CheckTwoSided(creditEntries, debitEntries)
	if _, eligible := sumEntries(creditEntries); !eligible {
		return result, newValidationError(ErrEmptyLedgerSide, "credit side has no positive entries")
	}
	if _, eligible := sumEntries(debitEntries); !eligible {
		return result, newValidationError(ErrEmptyLedgerSide, "debit side has no positive entries")
	}
	if !result.IsBalanced {
		return result, newValidationError(ErrUnbalancedVoucher, "difference %s exceeds tolerance %s", result.Difference, c.Tolerance)
	}
	return result, nil
}

// CheckPrincipalDistribution reconciles one principal amount against its
// distributed sub-entries (receipt/payment vouchers in on-account mode).
// When distribution is disabled the voucher is unconditionally balanced and
// subEntries are ignored: the single principal amount is both the implicit
// debit and credit.
func (c LedgerBalanceChecker) CheckPrincipalDistribution(principal decimal.Decimal, subEntries []LedgerEntry, distributionEnabled bool) BalanceResult {
	principal = utils.SanitizeAmount(principal)

	if !distributionEnabled {
		return BalanceResult{
			TotalDebit:  principal,
			TotalCredit: principal,
			Difference:  utils.DecimalZero,
			IsBalanced:  true,
		}
	}

	distributed, _ := sumEntries(subEntries)
	difference := principal.Sub(distributed).Abs()
	return BalanceResult{
		TotalDebit:  principal,
		TotalCredit: distributed,
		Difference:  difference,
		IsBalanced:  difference.LessThan(c.Tolerance),
	}
}

// CheckPrincipalDistributionStrict is the submission-time variant.
func (c LedgerBalanceChecker) CheckPrincipalDistributionStrict(principal decimal.Decimal, subEntries []LedgerEntry, distributionEnabled bool) (BalanceResult, error) {
	if principal.IsNegative() {
		return BalanceResult{}, newValidationError(ErrInvalidLedgerEntry, "principal %s is negative", principal)
	}
	if distributionEnabled {
		if err := validateEntries("distribution", subEntries); err != nil {
			return BalanceResult{}, err
		}
	}

	result := c.CheckPrincipalDistribution(principal, subEntries, distributionEnabled)
	if !result.IsBalanced {
		return result, newValidationError(ErrUnbalancedVoucher, "difference %s exceeds tolerance %s", result.Difference, c.Tolerance)
	}
	return result, nil
}

// sumEntries totals the usable amounts. A side is eligible for balanced status
// only when it has at least one positive entry; zero-amount entries are
// permitted but never make a side eligible.
func sumEntries(entries []LedgerEntry) (decimal.Decimal, bool) {
	total := utils.DecimalZero
	eligible := false
	for _, entry := range entries {
		amount := utils.SanitizeAmount(entry.Amount)
		if amount.GreaterThan(utils.DecimalZero) {
			eligible = true
		}
		total = total.Add(amount)
	}
	return total, eligible
}

func validateEntries(side string, entries []LedgerEntry) error {
	for i, entry := range entries {
		if entry.Amount.IsNegative() {
			return newValidationError(ErrInvalidLedgerEntry, "%s entry %d: amount %s is negative", side, i+1, entry.Amount)
		}
	}
	return nil
}
