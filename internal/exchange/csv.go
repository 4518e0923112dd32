package exchange

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"fintrack/internal/core"
)

// bom makes spreadsheet applications read the file as UTF-8.
const bom = "\ufeff"

// ExportCSV writes a BOM, the header and one line per transaction. The
// description is always quoted; other cells only when they need it.
func ExportCSV(w io.Writer, txs []core.Transaction) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for i, row := range Table(txs) {
		cells := make([]string, len(row))
		for j, c := range row {
			if j == len(row)-1 && i > 0 {
				cells[j] = quote(c)
			} else {
				cells[j] = quoteIfNeeded(c)
			}
		}
		if _, err := bw.WriteString(strings.Join(cells, ",") + "\n"); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ImportCSV parses an exported file. The BOM is optional and CRLF and LF
// line endings are both accepted.
func ImportCSV(r io.Reader, newID func() string) (ImportResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte(bom))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return ImportResult{}, fmt.Errorf("parse csv: %w", err)
	}
	return ParseRows(rows, newID), nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteIfNeeded(s string) string {
	if s == "" || (!strings.ContainsAny(s, "\",\r\n") && s[0] != ' ' && s[0] != '\t') {
		return s
	}
	return quote(s)
}
