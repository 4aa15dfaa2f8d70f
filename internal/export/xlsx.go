// Package export writes the formatted bill list as a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/domain/entity"
)

// SheetName is the worksheet holding the bills
const SheetName = "Notes de frais"

var headers = map[string][]string{
	"fr": {"Type", "Nom", "Date", "Montant TTC (€)", "TVA (€)", "%", "Commentaire", "Statut", "Justificatif"},
	"en": {"Type", "Name", "Date", "Amount incl. VAT (€)", "VAT (€)", "%", "Commentary", "Status", "Receipt"},
}

var totalLabel = map[string]string{"fr": "Total", "en": "Total"}

// Exporter renders display bills into an xlsx workbook
type Exporter struct {
	locale string
	logger *zap.Logger
}

// NewExporter creates an exporter with column headers for locale (fr or en, fr otherwise)
func NewExporter(locale string, logger *zap.Logger) *Exporter {
	if _, ok := headers[locale]; !ok {
		locale = "fr"
	}
	return &Exporter{locale: locale, logger: logger}
}

// Totals are the sums written below the bill rows
type Totals struct {
	Amount decimal.Decimal
	VAT    decimal.Decimal
}

// Write renders bills in the given order followed by a totals row.
// A vat that is not numeric is written as text and left out of the total.
func (e *Exporter) Write(w io.Writer, bills []entity.DisplayBill) (Totals, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return Totals{}, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", toRow(headers[e.locale])); err != nil {
		return Totals{}, fmt.Errorf("failed to write header: %w", err)
	}

	var totals Totals
	for i, bill := range bills {
		amount := decimal.NewFromInt(int64(bill.Amount))
		totals.Amount = totals.Amount.Add(amount)

		var vatCell interface{} = bill.VAT.String()
		if vat, err := decimal.NewFromString(bill.VAT.String()); err == nil {
			totals.VAT = totals.VAT.Add(vat)
			vatCell = vat.InexactFloat64()
		}

		row := []interface{}{
			bill.Type,
			bill.Name,
			bill.Date,
			amount.IntPart(),
			vatCell,
			bill.Pct,
			bill.Commentary,
			bill.Status,
			bill.FileURL,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return Totals{}, fmt.Errorf("failed to write bill %s: %w", bill.ID, err)
		}
	}

	totalCell, _ := excelize.CoordinatesToCellName(1, len(bills)+2)
	totalRow := []interface{}{
		totalLabel[e.locale], nil, nil,
		totals.Amount.InexactFloat64(),
		totals.VAT.Round(2).InexactFloat64(),
	}
	if err := f.SetSheetRow(SheetName, totalCell, &totalRow); err != nil {
		return Totals{}, fmt.Errorf("failed to write totals: %w", err)
	}

	if err := f.SetColWidth(SheetName, "A", "I", 18); err != nil {
		e.logger.Warn("Failed to set column width", zap.Error(err))
	}

	if err := f.Write(w); err != nil {
		return Totals{}, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Bills exported",
		zap.Int("count", len(bills)),
		zap.String("total_amount", totals.Amount.String()))
	return totals, nil
}

func toRow(values []string) *[]interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return &row
}
