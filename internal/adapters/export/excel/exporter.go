package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dlopezav/recibos/internal/core/domain"
)

const sheetName = "Transactions"

var headers = []string{"ID", "Type", "Amount", "Description", "Category", "Date", "Receipt ID", "Confidence", "Reconciled"}

// Exporter renders transactions as an XLSX workbook with one row per
// transaction and a trailing totals row.
type Exporter struct{}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(w io.Writer, transactions []domain.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	var totalIncome, totalExpenses float64
	for i, tx := range transactions {
		row := i + 2
		confidence := any(nil)
		if tx.Confidence != nil {
			confidence = *tx.Confidence
		}
		values := []any{
			tx.ID,
			string(tx.Type),
			tx.Amount,
			tx.Description,
			string(tx.Category),
			tx.Date.Format("2006-01-02"),
			tx.ReceiptID,
			confidence,
			tx.Reconciled,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
		if tx.Type == domain.TypeIncome {
			totalIncome += tx.Amount
		} else {
			totalExpenses += tx.Amount
		}
	}

	totalsRow := len(transactions) + 3
	totals := map[string]any{
		"A": "Totals",
		"B": fmt.Sprintf("income %.2f / expenses %.2f", totalIncome, totalExpenses),
		"C": totalIncome - totalExpenses,
	}
	for col, value := range totals {
		if err := f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, totalsRow), value); err != nil {
			return fmt.Errorf("write totals: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
