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

// DocumentDraft is an in-progress commercial document (order, quotation,
// receipt note). The totals columns are a derived cache for listing screens;
// they are recomputed in full from the items on every write and never patched
// incrementally.
type DocumentDraft struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BusinessId      string          `gorm:"index;not null" json:"business_id"`
	DocumentType    DocumentType    `gorm:"type:enum('PurchaseOrder','SalesOrder','Quotation','GoodsReceiptNote');not null" json:"document_type"`
	ReferenceNumber string          `gorm:"size:255;default:null" json:"reference_number"`
	PartyName       string          `gorm:"size:255;default:null" json:"party_name"`
	Notes           string          `gorm:"type:text;default:null" json:"notes"`
	CurrencyCode    string          `gorm:"size:3;default:null" json:"currency_code"`
	ExchangeRate    decimal.Decimal `gorm:"type:decimal(20,4);default:1" json:"exchange_rate"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_percent"`
	TaxInclusive    *bool           `gorm:"not null;default:false" json:"tax_inclusive"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	TotalTax        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_tax"`
	NetAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"net_amount"`
	GrandTotal      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"grand_total"`
	// GrandTotal converted into the base currency with the supplied rate.
	BaseGrandTotal decimal.Decimal     `gorm:"type:decimal(20,4);default:0" json:"base_grand_total"`
	CurrentStatus  DraftStatus         `gorm:"type:enum('Draft','Submitted');not null" json:"current_status"`
	Items          []DocumentDraftItem `json:"items"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type DocumentDraftItem struct {
	ID              int             `gorm:"primary_key" json:"id"`
	DocumentDraftId int             `gorm:"index;not null" json:"document_draft_id"`
	Name            string          `gorm:"size:100;not null" json:"name"`
	Description     string          `gorm:"size:255;default:null" json:"description"`
	Qty             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"qty"`
	UnitRate        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_rate"`
	TaxKind         TaxSpecKind     `gorm:"type:enum('R','A','N');default:'N'" json:"tax_kind"`
	TaxRate         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_rate"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_total"`
}

type NewDocumentDraft struct {
	DocumentType    DocumentType           `json:"document_type" binding:"required" validate:"required"`
	ReferenceNumber string                 `json:"reference_number" validate:"max=255"`
	PartyName       string                 `json:"party_name" validate:"max=255"`
	Notes           string                 `json:"notes"`
	CurrencyCode    string                 `json:"currency_code" validate:"omitempty,len=3"`
	ExchangeRate    decimal.Decimal        `json:"exchange_rate"`
	DiscountPercent decimal.Decimal        `json:"discount_percent"`
	TaxInclusive    *bool                  `json:"tax_inclusive" binding:"required" validate:"required"`
	Items           []NewDocumentDraftItem `json:"items" validate:"dive"`
}

type NewDocumentDraftItem struct {
	Name        string          `json:"name" binding:"required" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=255"`
	Qty         decimal.Decimal `json:"qty"`
	UnitRate    decimal.Decimal `json:"unit_rate"`
	TaxKind     TaxSpecKind     `json:"tax_kind"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
}

type DocumentDraftsConnection struct {
	Edges    []*Edge[DocumentDraft] `json:"edges"`
	PageInfo *PageInfo              `json:"pageInfo"`
}

// GetCursor returns the creation timestamp cursor used by list pagination.
func (d DocumentDraft) GetCursor() string {
	return d.CreatedAt.Format(time.RFC3339Nano)
}

// LineItems maps the persisted items back into engine line items, resolving
// the stored tax columns through the tagged TaxSpec once.
func (d DocumentDraft) LineItems() []LineItem {
	items := make([]LineItem, 0, len(d.Items))
	taxInclusive := utils.DereferencePtr(d.TaxInclusive)
	for _, row := range d.Items {
		items = append(items, LineItem{
			Name:         row.Name,
			Description:  row.Description,
			Qty:          row.Qty,
			UnitRate:     row.UnitRate,
			Tax:          taxSpecFromColumns(row.TaxKind, row.TaxRate, row.TaxAmount),
			TaxInclusive: taxInclusive,
		})
	}
	return items
}

func taxSpecFromColumns(kind TaxSpecKind, rate decimal.Decimal, amount decimal.Decimal) TaxSpec {
	switch kind {
	case TaxSpecKindRate:
		return TaxRate(rate)
	case TaxSpecKindFixedAmount:
		return TaxFixedAmount(amount)
	}
	return NoTax()
}

// applyTotals recomputes every derived column from the current items. Called
// on every write path so stored totals can never go stale against edited
// items.
func (d *DocumentDraft) applyTotals() {
	items := d.LineItems()
	for i, item := range items {
		line := RecalculateLine(item)
		d.Items[i].Qty = line.Qty
		d.Items[i].UnitRate = line.UnitRate
		d.Items[i].TaxAmount = line.TaxAmount
		d.Items[i].LineTotal = line.LineTotal
	}

	totals := ComputeDocumentTotals(items, d.DiscountPercent)
	d.DiscountPercent = totals.DiscountPercent
	d.Subtotal = totals.Subtotal
	d.DiscountAmount = totals.DiscountAmount
	d.TotalTax = totals.TotalTax
	d.NetAmount = totals.NetAmount
	d.GrandTotal = totals.GrandTotal

	rate := d.ExchangeRate
	if !rate.GreaterThan(utils.DecimalZero) {
		rate = utils.DecimalOne
		d.ExchangeRate = rate
	}
	d.BaseGrandTotal = utils.RoundMoney(totals.GrandTotal.Mul(rate))
}

// Totals recomputes the snapshot from the stored items. Detail views call
// this instead of trusting the cached columns.
func (d DocumentDraft) Totals() DocumentTotals {
	return ComputeDocumentTotals(d.LineItems(), d.DiscountPercent)
}

// LineItems maps the raw input rows into engine line items. Strict-mode write
// checks run over these, not the persisted rows, so the coercion in
// applyTotals cannot hide a negative quantity or rate from the check.
func (input NewDocumentDraft) LineItems() []LineItem {
	taxInclusive := utils.DereferencePtr(input.TaxInclusive)
	items := make([]LineItem, 0, len(input.Items))
	for _, item := range input.Items {
		kind := item.TaxKind
		if kind == "" {
			kind = TaxSpecKindNone
		}
		items = append(items, LineItem{
			Name:         item.Name,
			Description:  item.Description,
			Qty:          item.Qty,
			UnitRate:     item.UnitRate,
			Tax:          taxSpecFromColumns(kind, item.TaxRate, item.TaxAmount),
			TaxInclusive: taxInclusive,
		})
	}
	return items
}

func (input NewDocumentDraft) validate() error {
	fields, err := utils.ValidateStruct(input)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &FieldValidationError{Fields: fields}
	}
	if !input.DocumentType.IsValid() {
		return errors.New("invalid document type")
	}
	for _, item := range input.Items {
		if item.TaxKind != "" && !item.TaxKind.IsValid() {
			return errors.New("invalid tax kind")
		}
	}
	return nil
}

func (input NewDocumentDraft) draftItems() []DocumentDraftItem {
	items := make([]DocumentDraftItem, 0, len(input.Items))
	for _, item := range input.Items {
		kind := item.TaxKind
		if kind == "" {
			kind = TaxSpecKindNone
		}
		items = append(items, DocumentDraftItem{
			Name:        item.Name,
			Description: item.Description,
			Qty:         item.Qty,
			UnitRate:    item.UnitRate,
			TaxKind:     kind,
			TaxRate:     item.TaxRate,
			TaxAmount:   item.TaxAmount,
		})
	}
	return items
}

func CreateDocumentDraft(ctx context.Context, input *NewDocumentDraft) (*DocumentDraft, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}
	// Strict-mode write checks must see the raw input; applyTotals rewrites
	// the rows with sanitized values and would mask a negative quantity.
	if config.StrictSubmitOnly() {
		if _, err := ComputeDocumentTotalsStrict(input.LineItems(), input.DiscountPercent); err != nil {
			return nil, err
		}
	}

	draft := DocumentDraft{
		BusinessId:      businessId,
		DocumentType:    input.DocumentType,
		ReferenceNumber: input.ReferenceNumber,
		PartyName:       input.PartyName,
		Notes:           input.Notes,
		CurrencyCode:    input.CurrencyCode,
		ExchangeRate:    input.ExchangeRate,
		DiscountPercent: input.DiscountPercent,
		TaxInclusive:    input.TaxInclusive,
		CurrentStatus:   DraftStatusDraft,
		Items:           input.draftItems(),
	}
	draft.applyTotals()

	if err := db.WithContext(ctx).Create(&draft).Error; err != nil {
		return nil, err
	}
	return &draft, nil
}

func GetDocumentDraft(ctx context.Context, id int) (*DocumentDraft, error) {
	db := config.GetDB()

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var draft DocumentDraft
	err := db.WithContext(ctx).Preload("Items").
		Where("business_id = ?", businessId).
		First(&draft, id).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func ListDocumentDrafts(ctx context.Context, limit int, after *string) (*DocumentDraftsConnection, error) {
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

	query := db.WithContext(ctx).Preload("Items").
		Where("business_id = ?", businessId).
		Order("created_at ASC").
		Limit(limit + 1)
	if decodedCursor != "" {
		query = query.Where("created_at > ?", decodedCursor)
	}

	var drafts []DocumentDraft
	if err := query.Find(&drafts).Error; err != nil {
		return nil, err
	}

	hasNextPage := len(drafts) > limit
	if hasNextPage {
		drafts = drafts[:limit]
	}

	edges := make([]*Edge[DocumentDraft], 0, len(drafts))
	for i := range drafts {
		edges = append(edges, &Edge[DocumentDraft]{
			Cursor: EncodeCursor(drafts[i].GetCursor()),
			Node:   &drafts[i],
		})
	}

	pageInfo := &PageInfo{HasNextPage: &hasNextPage}
	if len(edges) > 0 {
		pageInfo.StartCursor = edges[0].Cursor
		pageInfo.EndCursor = edges[len(edges)-1].Cursor
	}

	return &DocumentDraftsConnection{Edges: edges, PageInfo: pageInfo}, nil
}

func UpdateDocumentDraft(ctx context.Context, id int, input *NewDocumentDraft) (*DocumentDraft, error) {
	db := config.GetDB()

	draft, err := GetDocumentDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.CurrentStatus == DraftStatusSubmitted {
		return nil, errors.New("submitted drafts cannot be edited")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}
	if config.StrictSubmitOnly() {
		if _, err := ComputeDocumentTotalsStrict(input.LineItems(), input.DiscountPercent); err != nil {
			return nil, err
		}
	}

	draft.DocumentType = input.DocumentType
	draft.ReferenceNumber = input.ReferenceNumber
	draft.PartyName = input.PartyName
	draft.Notes = input.Notes
	draft.CurrencyCode = input.CurrencyCode
	draft.ExchangeRate = input.ExchangeRate
	draft.DiscountPercent = input.DiscountPercent
	draft.TaxInclusive = input.TaxInclusive
	draft.Items = input.draftItems()
	for i := range draft.Items {
		draft.Items[i].DocumentDraftId = draft.ID
	}
	draft.applyTotals()

	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	// Items are replaced wholesale; per-row diffing is where the source system
	// grew its stale-total bugs.
	if err := tx.WithContext(ctx).
		Where("document_draft_id = ?", draft.ID).
		Delete(&DocumentDraftItem{}).Error; err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(draft).Error; err != nil {
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return draft, nil
}

func DeleteDocumentDraft(ctx context.Context, id int) error {
	db := config.GetDB()

	draft, err := GetDocumentDraft(ctx, id)
	if err != nil {
		return err
	}

	tx := db.Begin()
	defer func() { _ = tx.Rollback().Error }()

	if err := tx.WithContext(ctx).
		Where("document_draft_id = ?", draft.ID).
		Delete(&DocumentDraftItem{}).Error; err != nil {
		return err
	}
	if err := tx.WithContext(ctx).Delete(&DocumentDraft{}, draft.ID).Error; err != nil {
		return err
	}
	return tx.Commit().Error
}

// SubmitDocumentDraft runs strict-mode validation and marks the draft
// Submitted. Strict failures surface as typed ValidationErrors the transport
// layer maps to field-level messages.
func SubmitDocumentDraft(ctx context.Context, id int) (*DocumentDraft, error) {
	db := config.GetDB()

	draft, err := GetDocumentDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft.CurrentStatus == DraftStatusSubmitted {
		return draft, nil
	}

	totals, err := ComputeDocumentTotalsStrict(draft.LineItems(), draft.DiscountPercent)
	if err != nil {
		return nil, err
	}

	draft.Subtotal = totals.Subtotal
	draft.DiscountAmount = totals.DiscountAmount
	draft.TotalTax = totals.TotalTax
	draft.NetAmount = totals.NetAmount
	draft.GrandTotal = totals.GrandTotal
	draft.CurrentStatus = DraftStatusSubmitted

	if err := db.WithContext(ctx).Save(draft).Error; err != nil {
		return nil, err
	}
	return draft, nil
}
