package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/doctotals_backend/config"
	"bitbucket.org/mmdatafocus/doctotals_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VoucherDraft is an in-progress accounting voucher. Contra vouchers carry
// two independently entered entry lists; receipt/payment vouchers carry one
// principal amount, optionally distributed across sub-entries when on-account
// mode is enabled. The balance columns are recomputed from the entries on
// every write.
type VoucherDraft struct {
	ID                  int                 `gorm:"primary_key" json:"id"`
	BusinessId          string              `gorm:"index;not null" json:"business_id"`
	VoucherType         VoucherType         `gorm:"type:enum('Contra','Receipt','Payment');not null" json:"voucher_type"`
	ReferenceNumber     string              `gorm:"size:255;default:null" json:"reference_number"`
	Notes               string              `gorm:"type:text;default:null" json:"notes"`
	VoucherDate         time.Time           `gorm:"not null" json:"voucher_date"`
	PrincipalAccountId  int                 `gorm:"default:null" json:"principal_account_id"`
	PrincipalAmount     decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"principal_amount"`
	DistributionEnabled *bool               `gorm:"not null;default:false" json:"distribution_enabled"`
	TotalDebit          decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"total_debit"`
	TotalCredit         decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"total_credit"`
	Difference          decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"difference"`
	IsBalanced          *bool               `gorm:"not null;default:false" json:"is_balanced"`
	CurrentStatus       DraftStatus         `gorm:"type:enum('Draft','Submitted');not null" json:"current_status"`
	Entries             []VoucherDraftEntry `json:"entries"`
	CreatedAt           time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type VoucherDraftEntry struct {
	ID             int             `gorm:"primary_key" json:"id"`
	VoucherDraftId int             `gorm:"index;not null" json:"voucher_draft_id"`
	Side           EntrySide       `gorm:"type:enum('D','C');not null" json:"side"`
	AccountId      int             `gorm:"index;not null" json:"account_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Description    string          `gorm:"size:255;default:null" json:"description"`
	Reference      string          `gorm:"size:255;default:null" json:"reference"`
}

type NewVoucherDraft struct {
	VoucherType         VoucherType            `json:"voucher_type" binding:"required" validate:"required"`
	ReferenceNumber     string                 `json:"reference_number" validate:"max=255"`
	Notes               string                 `json:"notes"`
	VoucherDate         time.Time              `json:"voucher_date" binding:"required" validate:"required"`
	PrincipalAccountId  int                    `json:"principal_account_id"`
	PrincipalAmount     decimal.Decimal        `json:"principal_amount"`
	DistributionEnabled *bool                  `json:"distribution_enabled"`
	Entries             []NewVoucherDraftEntry `json:"entries" validate:"dive"`
}

type NewVoucherDraftEntry struct {
	Side        EntrySide       `json:"side" validate:"required"`
	AccountId   int             `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=255"`
	Reference   string          `json:"reference" validate:"max=255"`
}

type VoucherDraftsConnection struct {
	Edges    []*Edge[VoucherDraft] `json:"edges"`
	PageInfo *PageInfo             `json:"pageInfo"`
}

func (v VoucherDraft) GetCursor() string {
	return v.CreatedAt.Format(time.RFC3339Nano)
}

// Mode derives the reconciliation shape from the voucher type: contra
// vouchers are two-sided, receipt/payment vouchers are principal +
// distribution.
func (v VoucherDraft) Mode() VoucherMode {
	if v.VoucherType == VoucherTypeContra {
		return VoucherModeTwoSided
	}
	return VoucherModePrincipalDistribution
}

func (v VoucherDraft) ledgerEntries(side EntrySide) []LedgerEntry {
	entries := make([]LedgerEntry, 0, len(v.Entries))
	for _, row := range v.Entries {
		if row.Side != side {
			continue
		}
		entries = append(entries, LedgerEntry{
			Side:        row.Side,
			AccountId:   row.AccountId,
			Amount:      row.Amount,
			Description: row.Description,
			Reference:   row.Reference,
		})
	}
	return entries
}

// Balance runs the checker over the current entries. Pure; persisted columns
// are a listing cache refreshed from this on every write.
func (v VoucherDraft) Balance() BalanceResult {
	checker := NewLedgerBalanceChecker()
	if v.Mode() == VoucherModeTwoSided {
		return checker.CheckTwoSided(v.ledgerEntries(EntrySideCredit), v.ledgerEntries(EntrySideDebit))
	}
	// Sub-entries sit on the side opposing the principal account; both stored
	// sides are merged because receipt and payment vouchers only ever key
	// entries to one side.
	return checker.CheckPrincipalDistribution(
		v.PrincipalAmount,
		v.allLedgerEntries(),
		utils.DereferencePtr(v.DistributionEnabled),
	)
}

func (v *VoucherDraft) applyBalance() {
	result := v.Balance()
	v.TotalDebit = utils.RoundMoney(result.TotalDebit)
	v.TotalCredit = utils.RoundMoney(result.TotalCredit)
	v.Difference = utils.RoundMoney(result.Difference)
	balanced := result.IsBalanced
	v.IsBalanced = &balanced
}

func (input NewVoucherDraft) validate() error {
	fields, err := utils.ValidateStruct(input)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &FieldValidationError{Fields: fields}
	}
	if !input.VoucherType.IsValid() {
		return errors.New("invalid voucher type")
	}
	for _, entry := range input.Entries {
		if !entry.Side.IsValid() {
			return errors.New("invalid entry side")
		}
	}
	return nil
}

// ValidateStrict rejects the inputs the permissive balance math would coerce
// to zero. Balance itself is still enforced only at submit; a draft may be
// saved unbalanced while the user works toward parity.
func (input NewVoucherDraft) ValidateStrict() error {
	if input.PrincipalAmount.IsNegative() {
		return newValidationError(ErrInvalidLedgerEntry, "principal %s is negative", input.PrincipalAmount)
	}
	for i, entry := range input.Entries {
		if entry.Amount.IsNegative() {
			return newValidationError(ErrInvalidLedgerEntry, "entry %d: amount %s is negative", i+1, entry.Amount)
		}
	}
	return nil
}

func (input NewVoucherDraft) draftEntries() []VoucherDraftEntry {
	entries := make([]VoucherDraftEntry, 0, len(input.Entries))
	for _, entry := range input.Entries {
		entries = append(entries, VoucherDraftEntry{
			Side:        entry.Side,
			AccountId:   entry.AccountId,
			Amount:      entry.Amount,
			Description: entry.Description,
			Reference:   entry.Reference,
		})
	}
	return entries
}

func CreateVoucherDraft(ctx context.Context, input *NewVoucherDraft) (*VoucherDraft, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}
	if config.StrictSubmitOnly() {
		if err := input.ValidateStrict(); err != nil {
			return nil, err
		}
	}

	distributionEnabled := input.DistributionEnabled
	if distributionEnabled == nil {
		distributionEnabled = utils.NewFalse()
	}

	voucher := VoucherDraft{
		BusinessId:          businessId,
		VoucherType:         input.VoucherType,
		ReferenceNumber:     input.ReferenceNumber,
		Notes:               input.Notes,
		VoucherDate:         input.VoucherDate,
		PrincipalAccountId:  input.PrincipalAccountId,
		PrincipalAmount:     input.PrincipalAmount,
		DistributionEnabled: distributionEnabled,
		CurrentStatus:       DraftStatusDraft,
		Entries:             input.draftEntries(),
	}
	voucher.applyBalance()

	if err := db.WithContext(ctx).Create(&voucher).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

func GetVoucherDraft(ctx context.Context, id int) (*VoucherDraft, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var voucher VoucherDraft
	err := db.WithContext(ctx).Preload("Entries").
		Where("business_id = ?", businessId).
		First(&voucher, id).Error
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

func ListVoucherDrafts(ctx context.Context, limit int, after *string) (*VoucherDraftsConnection, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if limit <= 0 {
		limit = config.SearchLimit
	}

	decodedCursor, err := DecodeCursor(after)
	if err != nil {
		return nil, err
	}

	query := db.WithContext(ctx).Preload("Entries").
		Where("business_id = ?", businessId).
		Order("created_at ASC").
		Limit(limit + 1)
	if decodedCursor != "" {
		query = query.Where("created_at > ?", decodedCursor)
	}

	var vouchers []VoucherDraft
	if err := query.Find(&vouchers).Error; err != nil {
		return nil, err
	}

	hasNextPage := len(vouchers) > limit
	if hasNextPage {
		vouchers = vouchers[:limit]
	}

	edges := make([]*Edge[VoucherDraft], 0, len(vouchers))
	for i := range vouchers {
		edges = append(edges, &Edge[VoucherDraft]{
			Cursor: EncodeCursor(vouchers[i].GetCursor()),
			Node:   &vouchers[i],
		})
	}

	pageInfo := &PageInfo{HasNextPage: &hasNextPage}
	if len(edges) > 0 {
		pageInfo.StartCursor = edges[0].Cursor
		pageInfo.EndCursor = edges[len(edges)-1].Cursor
	}

	return &VoucherDraftsConnection{Edges: edges, PageInfo: pageInfo}, nil
}

func UpdateVoucherDraft(ctx context.Context, id int, input *NewVoucherDraft) (*VoucherDraft, error) {
	db := config.GetDB()

	voucher, err := GetVoucherDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	if voucher.CurrentStatus == DraftStatusSubmitted {
		return nil, errors.New("submitted vouchers cannot be edited")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}
	if config.StrictSubmitOnly() {
		if err := input.ValidateStrict(); err != nil {
			return nil, err
		}
	}

	distributionEnabled := input.DistributionEnabled
	if distributionEnabled == nil {
		distributionEnabled = utils.NewFalse()
	}

	voucher.VoucherType = input.VoucherType
	voucher.ReferenceNumber = input.ReferenceNumber
	voucher.Notes = input.Notes
	voucher.VoucherDate = input.VoucherDate
	voucher.PrincipalAccountId = input.PrincipalAccountId
	voucher.PrincipalAmount = input.PrincipalAmount
	voucher.DistributionEnabled = distributionEnabled
	voucher.Entries = input.draftEntries()
	for i := range voucher.Entries {
		voucher.Entries[i].VoucherDraftId = voucher.ID
	}
	voucher.applyBalance()

	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).
		Where("voucher_draft_id = ?", voucher.ID).
		Delete(&VoucherDraftEntry{}).Error; err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(voucher).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return voucher, nil
}

func DeleteVoucherDraft(ctx context.Context, id int) error {
	db := config.GetDB()

	voucher, err := GetVoucherDraft(ctx, id)
	if err != nil {
		return err
	}

	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).
		Where("voucher_draft_id = ?", voucher.ID).
		Delete(&VoucherDraftEntry{}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Delete(&VoucherDraft{}, voucher.ID).Error; err != nil {
		return err
	}
	return tx.Commit().Error
}

// SubmitVoucherDraft runs the strict checker and marks the voucher Submitted.
func SubmitVoucherDraft(ctx context.Context, id int) (*VoucherDraft, error) {
	db := config.GetDB()

	voucher, err := GetVoucherDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	if voucher.CurrentStatus == DraftStatusSubmitted {
		return voucher, nil
	}

	checker := NewLedgerBalanceChecker()
	var result BalanceResult
	if voucher.Mode() == VoucherModeTwoSided {
		result, err = checker.CheckTwoSidedStrict(voucher.ledgerEntries(EntrySideCredit), voucher.ledgerEntries(EntrySideDebit))
	} else {
		result, err = checker.CheckPrincipalDistributionStrict(voucher.PrincipalAmount, voucher.allLedgerEntries(), utils.DereferencePtr(voucher.DistributionEnabled))
	}
	if err != nil {
		return nil, err
	}

	voucher.TotalDebit = utils.RoundMoney(result.TotalDebit)
	voucher.TotalCredit = utils.RoundMoney(result.TotalCredit)
	voucher.Difference = utils.RoundMoney(result.Difference)
	balanced := result.IsBalanced
	voucher.IsBalanced = &balanced
	voucher.CurrentStatus = DraftStatusSubmitted

	if err := db.WithContext(ctx).Save(voucher).Error; err != nil {
		return nil, err
	}
	return voucher, nil
}

func (v VoucherDraft) allLedgerEntries() []LedgerEntry {
	entries := make([]LedgerEntry, 0, len(v.Entries))
	for _, row := range v.Entries {
		entries = append(entries, LedgerEntry{
			Side:        row.Side,
			AccountId:   row.AccountId,
			Amount:      row.Amount,
			Description: row.Description,
			Reference:   row.Reference,
		})
	}
	return entries
}
