package core

import (
	"encoding/json"
	"fmt"
)

// Record is the flat wire form of a transaction, as stored in the persisted
// snapshot and served by the JSON API.
type Record struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Type        Kind   `json:"type"`
	Amount      Money  `json:"amount"`
	Cost        *Money `json:"cost,omitempty"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Record flattens t into its wire form.
func (t Transaction) Record() Record {
	r := Record{
		ID:          t.ID,
		Date:        t.Date.Key(),
		Type:        t.Kind(),
		Amount:      t.Amount(),
		Category:    t.Category,
		Description: t.Description,
	}
	if c, ok := t.Cost(); ok {
		r.Cost = &c
	}
	return r
}

// Transaction rebuilds the tagged transaction from a record. A cost found on
// an expense record is dropped.
func (r Record) Transaction() (Transaction, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return Transaction{}, err
	}
	kind, err := ParseKind(string(r.Type))
	if err != nil {
		return Transaction{}, err
	}
	if kind == KindExpense {
		return NewExpense(r.ID, date, r.Amount, r.Category, r.Description), nil
	}
	var cost *Money
	if r.Cost != nil {
		c := *r.Cost
		cost = &c
	}
	return NewIncome(r.ID, date, r.Amount, cost, r.Category, r.Description), nil
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Record())
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	tx, err := r.Transaction()
	if err != nil {
		return fmt.Errorf("transaction %q: %w", r.ID, err)
	}
	*t = tx
	return nil
}
