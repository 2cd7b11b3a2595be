package models

import "fmt"

// DocumentType covers every screen that feeds line items into the totals
// engine.
type DocumentType string

const (
	DocumentTypePurchaseOrder    DocumentType = "PurchaseOrder"
	DocumentTypeSalesOrder       DocumentType = "SalesOrder"
	DocumentTypeQuotation        DocumentType = "Quotation"
	DocumentTypeGoodsReceiptNote DocumentType = "GoodsReceiptNote"
)

func (e DocumentType) IsValid() bool {
	switch e {
	case DocumentTypePurchaseOrder, DocumentTypeSalesOrder, DocumentTypeQuotation, DocumentTypeGoodsReceiptNote:
		return true
	}
	return false
}

func (e DocumentType) String() string {
	return string(e)
}

// UnmarshalText lets gin/json bind the enum while rejecting unknown values.
func (e *DocumentType) UnmarshalText(b []byte) error {
	*e = DocumentType(b)
	if !e.IsValid() {
		return fmt.Errorf("%s is not a valid DocumentType", string(b))
	}
	return nil
}

// VoucherType covers the double-entry screens.
type VoucherType string

const (
	VoucherTypeContra  VoucherType = "Contra"
	VoucherTypeReceipt VoucherType = "Receipt"
	VoucherTypePayment VoucherType = "Payment"
)

func (e VoucherType) IsValid() bool {
	switch e {
	case VoucherTypeContra, VoucherTypeReceipt, VoucherTypePayment:
		return true
	}
	return false
}

func (e VoucherType) String() string {
	return string(e)
}

// VoucherMode selects how a voucher's entries reconcile. Contra vouchers are
// two-sided; receipt/payment vouchers post one principal amount distributed
// across sub-entries.
type VoucherMode string

const (
	VoucherModeTwoSided              VoucherMode = "TwoSided"
	VoucherModePrincipalDistribution VoucherMode = "PrincipalDistribution"
)

func (e VoucherMode) IsValid() bool {
	switch e {
	case VoucherModeTwoSided, VoucherModePrincipalDistribution:
		return true
	}
	return false
}

func (e VoucherMode) String() string {
	return string(e)
}

// EntrySide is the accounting position of a ledger entry.
type EntrySide string

const (
	EntrySideDebit  EntrySide = "D"
	EntrySideCredit EntrySide = "C"
)

func (e EntrySide) IsValid() bool {
	switch e {
	case EntrySideDebit, EntrySideCredit:
		return true
	}
	return false
}

func (e EntrySide) String() string {
	return string(e)
}

// TaxSpecKind tags how a line models its tax: a fractional rate, a precomputed
// amount, or no tax at all. Exactly one representation is authoritative per
// document type; the kind is resolved once at entry time, never re-interpreted
// at totals time.
type TaxSpecKind string

const (
	TaxSpecKindRate        TaxSpecKind = "R"
	TaxSpecKindFixedAmount TaxSpecKind = "A"
	TaxSpecKindNone        TaxSpecKind = "N"
)

func (e TaxSpecKind) IsValid() bool {
	switch e {
	case TaxSpecKindRate, TaxSpecKindFixedAmount, TaxSpecKindNone:
		return true
	}
	return false
}

func (e TaxSpecKind) String() string {
	return string(e)
}

// DraftStatus is the persisted lifecycle of a draft. The form-side state
// machine (Editing -> Balanced -> Submittable) lives in the client; the
// backend only records Draft and Submitted.
type DraftStatus string

const (
	DraftStatusDraft     DraftStatus = "Draft"
	DraftStatusSubmitted DraftStatus = "Submitted"
)

func (e DraftStatus) IsValid() bool {
	switch e {
	case DraftStatusDraft, DraftStatusSubmitted:
		return true
	}
	return false
}

func (e DraftStatus) String() string {
	return string(e)
}
