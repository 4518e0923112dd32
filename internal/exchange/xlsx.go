package exchange

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"fintrack/internal/core"
)

const xlsxSheet = "Transactions"

// ExportXLSX writes the exchange table as a single-sheet workbook. Amount and
// cost are numeric cells.
func ExportXLSX(w io.Writer, txs []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for r, row := range Table(txs) {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			var value any = v
			if r > 0 && (c == colAmount || c == colCost) {
				if m, err := core.ParseMoney(v); err == nil {
					value = m.Float64()
				}
			}
			if err := f.SetCellValue(xlsxSheet, cell, value); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// ImportXLSX reads the first sheet of a workbook with the same rules as
// ImportCSV.
func ImportXLSX(r io.Reader, newID func() string) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{}, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return ImportResult{}, fmt.Errorf("reading sheet: %w", err)
	}
	return ParseRows(rows, newID), nil
}
