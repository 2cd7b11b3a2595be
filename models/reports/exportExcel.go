package reports

import (
	"context"
	"fmt"
	"io"

	"bitbucket.org/mmdatafocus/doctotals_backend/config"
	"bitbucket.org/mmdatafocus/doctotals_backend/models"
	"bitbucket.org/mmdatafocus/doctotals_backend/utils"
	"github.com/xuri/excelize/v2"
)

// ExportDocumentDraftTotals writes an xlsx snapshot of the business's draft
// totals to w. Totals are recomputed from the stored items, not read from the
// cached columns, so the export can never show a figure the engine would not.
func ExportDocumentDraftTotals(ctx context.Context, w io.Writer) error {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return fmt.Errorf("business id is required")
	}

	var drafts []models.DocumentDraft
	db := config.GetDB()
	if err := db.WithContext(ctx).Preload("Items").
		Where("business_id = ?", businessId).
		Order("created_at ASC").
		Find(&drafts).Error; err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	// Add headers
	f.SetCellValue(sheet, "A1", "DocumentType")
	f.SetCellValue(sheet, "B1", "ReferenceNumber")
	f.SetCellValue(sheet, "C1", "PartyName")
	f.SetCellValue(sheet, "D1", "Status")
	f.SetCellValue(sheet, "E1", "Subtotal")
	f.SetCellValue(sheet, "F1", "DiscountAmount")
	f.SetCellValue(sheet, "G1", "TotalTax")
	f.SetCellValue(sheet, "H1", "NetAmount")
	f.SetCellValue(sheet, "I1", "GrandTotal")

	// Add data
	for i, d := range drafts {
		totals := d.Totals()
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+row, d.DocumentType.String())
		f.SetCellValue(sheet, "B"+row, d.ReferenceNumber)
		f.SetCellValue(sheet, "C"+row, d.PartyName)
		f.SetCellValue(sheet, "D"+row, d.CurrentStatus.String())
		f.SetCellValue(sheet, "E"+row, totals.Subtotal.String())
		f.SetCellValue(sheet, "F"+row, totals.DiscountAmount.String())
		f.SetCellValue(sheet, "G"+row, totals.TotalTax.String())
		f.SetCellValue(sheet, "H"+row, totals.NetAmount.String())
		f.SetCellValue(sheet, "I"+row, totals.GrandTotal.String())
	}

	return f.Write(w)
}
