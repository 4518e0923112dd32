// Package exchange converts transactions to and from the flat six-column
// table used for CSV, XLSX and spreadsheet backups.
package exchange

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// Header is the canonical column order.
var Header = []string{"date", "type", "amount", "cost", "category", "description"}

// LocalizedHeader is the header written by older exports. It is recognised
// on import.
var LocalizedHeader = []string{"日期", "类型", "金额", "成本", "类别", "描述"}

const (
	colDate   = 0
	colType   = 1
	colAmount = 2
	colCost   = 3
)

// RowError records a row that was skipped during import. Line is 1-based and
// counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

type ImportResult struct {
	Transactions []core.Transaction
	Skipped      []RowError
	// LegacyFormat is set when the header has no cost column.
	LegacyFormat bool
}

// Table renders txs as rows of cells, header first. Cost is blank for
// expenses and for income without a cost.
func Table(txs []core.Transaction) [][]string {
	rows := make([][]string, 0, len(txs)+1)
	rows = append(rows, append([]string(nil), Header...))
	for _, tx := range txs {
		cost := ""
		if c, ok := tx.Cost(); ok {
			cost = c.Decimal().String()
		}
		rows = append(rows, []string{
			tx.Date.Key(),
			string(tx.Kind()),
			tx.Amount().Decimal().String(),
			cost,
			tx.Category,
			tx.Description,
		})
	}
	return rows
}

// ParseRows turns a header plus data rows into transactions, best effort.
//
// The cost column is present when the header names it ("cost" or "成本") or
// has more than five columns; otherwise the legacy five-column layout
// date,type,amount,category,description is assumed. An unparseable amount
// becomes 0. A row with a bad date or unknown type is skipped and reported.
// Every transaction gets a fresh ID from newID, or a UUID when newID is nil.
func ParseRows(rows [][]string, newID func() string) ImportResult {
	if newID == nil {
		newID = uuid.NewString
	}
	var res ImportResult
	if len(rows) == 0 {
		return res
	}

	costIdx, hasCost := costColumn(rows[0])
	res.LegacyFormat = !hasCost
	catIdx, descIdx := 3, 4
	if hasCost {
		catIdx, descIdx = 4, 5
	}

	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}

		date, err := core.ParseDate(cell(row, colDate))
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Err: err})
			continue
		}
		kind, err := core.ParseKind(cell(row, colType))
		if err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: line, Err: err})
			continue
		}

		amount, err := core.ParseMoney(cell(row, colAmount))
		if err != nil {
			amount = core.Money{}
		}
		category := cell(row, catIdx)
		description := cell(row, descIdx)

		var tx core.Transaction
		if kind == core.KindIncome {
			var cost *core.Money
			if hasCost {
				if c, err := core.ParseMoney(cell(row, costIdx)); err == nil {
					cost = &c
				}
			}
			tx = core.NewIncome(newID(), date, amount, cost, category, description)
		} else {
			tx = core.NewExpense(newID(), date, amount, category, description)
		}
		res.Transactions = append(res.Transactions, tx)
	}
	return res
}

func costColumn(header []string) (int, bool) {
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "cost", LocalizedHeader[colCost]:
			return i, true
		}
	}
	return colCost, len(header) > 5
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
