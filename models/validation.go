package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for strict (submission) mode. Permissive (interactive) mode
// never returns these; it coerces bad input to zero so a half-edited form can
// still render running totals.
var (
	// ErrInvalidLineItem covers negative quantity/cost and a tax rate outside [0,1].
	ErrInvalidLineItem = errors.New("invalid line item")

	// ErrInvalidDiscount covers a discount percent outside [0,100].
	ErrInvalidDiscount = errors.New("invalid discount percent")

	// ErrInvalidLedgerEntry covers a negative ledger entry amount.
	ErrInvalidLedgerEntry = errors.New("invalid ledger entry")

	// ErrEmptyLedgerSide means a two-sided voucher has no usable entries on one side.
	// A voucher with no debit leg is not a valid accounting entry.
	ErrEmptyLedgerSide = errors.New("voucher side has no entries")

	// ErrUnbalancedVoucher means debit and credit totals differ by more than the tolerance.
	ErrUnbalancedVoucher = errors.New("voucher does not balance")
)

// ValidationError wraps a sentinel with enough detail for a field-level user
// message. Callers branch on errors.Is against the sentinels above.
type ValidationError struct {
	Err     error
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(sentinel error, format string, args ...interface{}) error {
	return &ValidationError{Err: sentinel, Details: fmt.Sprintf(format, args...)}
}

// FieldValidationError carries validator tag failures keyed by struct field.
// The transport layer renders Fields in the 422 body so the form can surface
// each failure next to its input.
type FieldValidationError struct {
	Fields map[string]string
}

func (e *FieldValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, tag := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, tag))
	}
	sort.Strings(parts)
	return "invalid input: " + strings.Join(parts, ", ")
}

// ValidationCode maps a strict-mode error to the stable code the form
// controller uses to pick a summary- or field-level message.
func ValidationCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidLineItem):
		return "InvalidLineItem"
	case errors.Is(err, ErrInvalidDiscount):
		return "InvalidDiscount"
	case errors.Is(err, ErrInvalidLedgerEntry):
		return "InvalidLedgerEntry"
	case errors.Is(err, ErrEmptyLedgerSide):
		return "EmptyLedgerSide"
	case errors.Is(err, ErrUnbalancedVoucher):
		return "UnbalancedVoucher"
	}
	return ""
}
