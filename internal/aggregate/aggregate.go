// Package aggregate folds a transaction snapshot into per-day buckets and
// period totals. Every function is pure: results depend only on the
// transactions and window passed in, and inputs are never mutated.
package aggregate

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/period"
)

// ProfitFormula selects how profit is derived from the folded totals.
type ProfitFormula int

const (
	// NetProfit is income − cost − expense.
	NetProfit ProfitFormula = iota
	// GrossProfit is income − cost. Expense is not subtracted; the legacy
	// summary path computed profit this way.
	GrossProfit
)

func (f ProfitFormula) String() string {
	switch f {
	case NetProfit:
		return "net"
	case GrossProfit:
		return "gross"
	}
	return fmt.Sprintf("ProfitFormula(%d)", int(f))
}

func (f ProfitFormula) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *ProfitFormula) UnmarshalText(b []byte) error {
	v, err := ParseProfitFormula(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseProfitFormula accepts "net" or "gross". The empty string means net.
func ParseProfitFormula(s string) (ProfitFormula, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "net":
		return NetProfit, nil
	case "gross":
		return GrossProfit, nil
	}
	return NetProfit, fmt.Errorf("unknown profit formula %q: must be net or gross", s)
}

// Totals accumulates the three folded amounts.
type Totals struct {
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Cost    core.Money `json:"cost"`
}

// Add folds one transaction into the totals.
func (t *Totals) Add(tx core.Transaction) {
	switch e := tx.Entry.(type) {
	case core.Income:
		t.Income = t.Income.Add(e.Amount)
		if e.Cost != nil {
			t.Cost = t.Cost.Add(*e.Cost)
		}
	case core.Expense:
		t.Expense = t.Expense.Add(e.Amount)
	}
}

// Merge adds o into t.
func (t *Totals) Merge(o Totals) {
	t.Income = t.Income.Add(o.Income)
	t.Expense = t.Expense.Add(o.Expense)
	t.Cost = t.Cost.Add(o.Cost)
}

// Outflow is expense plus cost.
func (t Totals) Outflow() core.Money {
	return t.Expense.Add(t.Cost)
}

// Profit applies the formula to the totals.
func (t Totals) Profit(f ProfitFormula) core.Money {
	p := t.Income.Sub(t.Cost)
	if f == NetProfit {
		p = p.Sub(t.Expense)
	}
	return p
}

// Bucket is the aggregate for one day of a window.
type Bucket struct {
	Date core.Date `json:"date"`
	Totals
	Profit core.Money `json:"profit"`
}

// Series holds one bucket per window day, in window order.
type Series struct {
	Buckets []Bucket      `json:"buckets"`
	Formula ProfitFormula `json:"formula"`
	index   map[string]int
}

// Get returns the bucket for a YYYY-MM-DD key.
func (s Series) Get(key string) (Bucket, bool) {
	i, ok := s.index[key]
	if !ok {
		return Bucket{}, false
	}
	return s.Buckets[i], true
}

func (s Series) Len() int { return len(s.Buckets) }

// Total folds all buckets into a single Totals.
func (s Series) Total() Totals {
	var t Totals
	for _, b := range s.Buckets {
		t.Merge(b.Totals)
	}
	return t
}

// Aggregate buckets txs over w using the canonical net profit formula.
func Aggregate(txs []core.Transaction, w period.Window) Series {
	return AggregateWith(txs, w, NetProfit)
}

// AggregateWith buckets txs over w. Every day of w appears exactly once,
// with zero totals when nothing happened that day; repeated days in w are
// collapsed to their first position. Transactions outside w are ignored.
func AggregateWith(txs []core.Transaction, w period.Window, f ProfitFormula) Series {
	s := Series{
		Buckets: make([]Bucket, 0, len(w)),
		Formula: f,
		index:   make(map[string]int, len(w)),
	}
	for _, d := range w {
		key := d.Key()
		if _, dup := s.index[key]; dup {
			continue
		}
		s.index[key] = len(s.Buckets)
		s.Buckets = append(s.Buckets, Bucket{Date: d})
	}

	for _, tx := range txs {
		i, ok := s.index[tx.Date.Key()]
		if !ok {
			continue
		}
		s.Buckets[i].Add(tx)
	}

	for i := range s.Buckets {
		s.Buckets[i].Profit = s.Buckets[i].Totals.Profit(f)
	}
	return s
}
