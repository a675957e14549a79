package consulta

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"exemplo.com.br/creditos/internal/core/credit"
	"exemplo.com.br/creditos/internal/core/format"
)

const (
	exportSheet       = "Créditos"
	exportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var exportHeaders = []string{
	"Número do Crédito", "Número da NFS-e", "CPF/CNPJ", "Razão Social",
	"Data de Vencimento", "Valor (R$)", "Situação", "Vencido",
	"Data de Constituição", "Tipo de Crédito", "Valor ISSQN (R$)", "Alíquota (%)", "Base de Cálculo (R$)",
}

// exportFilename stamps the download with the export instant.
func exportFilename(now time.Time) string {
	return fmt.Sprintf("creditos-%s.xlsx", now.Format("20060102-150405"))
}

// writeWorkbook writes records, in the given order, as a one-sheet XLSX.
// Amounts stay numeric so the spreadsheet can sum them.
func writeWorkbook(w io.Writer, records []credit.Record, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range records {
		row := i + 2
		values := []any{
			r.CreditNumber,
			r.InvoiceNumber,
			format.MaskDocument(r.TaxpayerDocument),
			r.TaxpayerName,
			format.Date(r.DueDate),
			r.Amount.InexactFloat64(),
			format.StatusLabel(r.Status),
			yesNo(format.IsOverdue(r.DueDate, now)),
		}
		if d := r.Detail; d != nil {
			values = append(values,
				format.Date(d.ConstitutedAt),
				d.CreditType,
				d.ISSQNAmount.InexactFloat64(),
				d.Rate.InexactFloat64(),
				d.CalculationBase.InexactFloat64(),
			)
		}

		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(exportSheet, start, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	if len(records) > 0 {
		lastRow := len(records) + 1
		for _, col := range []string{"F", "K", "M"} {
			if err := f.SetCellStyle(exportSheet, col+"2", fmt.Sprintf("%s%d", col, lastRow), moneyStyle); err != nil {
				return fmt.Errorf("style amounts: %w", err)
			}
		}
	}
	if err := f.SetColWidth(exportSheet, "A", "M", 20); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
