package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/exchange"
	"fintrack/internal/sheets"
)

var _ sheets.Sheet = (*Sheet)(nil)

// Sheet keeps the rows of one worksheet in memory.
type Sheet struct {
	mu    sync.Mutex
	name  string
	rows  [][]string
	newID func() string
}

func New(name string, rows [][]string) *Sheet {
	if name == "" {
		name = "Transactions"
	}
	return &Sheet{name: name, rows: copyRows(rows)}
}

// WithIDGenerator sets the ID source used when rows are pulled.
func (s *Sheet) WithIDGenerator(newID func() string) *Sheet {
	s.newID = newID
	return s
}

// Push replaces the sheet contents and returns the written range.
func (s *Sheet) Push(_ context.Context, txs []core.Transaction) (string, error) {
	rows := exchange.Table(txs)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	return fmt.Sprintf("%s!A1:F%d", s.name, len(rows)), nil
}

func (s *Sheet) Pull(_ context.Context) (exchange.ImportResult, error) {
	s.mu.Lock()
	rows := copyRows(s.rows)
	s.mu.Unlock()
	return exchange.ParseRows(rows, s.newID), nil
}

// Rows returns a copy of the current sheet contents.
func (s *Sheet) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRows(s.rows)
}

func copyRows(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = append([]string(nil), row...)
	}
	return out
}
