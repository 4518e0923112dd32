// Package store holds the in-memory transaction collection.
package store

import (
	"errors"

	"fintrack/internal/core"
)

var (
	ErrNotFound    = errors.New("transaction not found")
	ErrDuplicateID = errors.New("duplicate transaction id")
)

// Ports used by the services layer.
type (
	TransactionWriter interface {
		Add(tx core.Transaction) error
		Update(tx core.Transaction) error
		Delete(id string) error
	}

	TransactionReader interface {
		Get(id string) (core.Transaction, bool)
		// List returns a copy of the collection in insertion order.
		List() []core.Transaction
		Len() int
	}
)

var (
	_ TransactionWriter = (*Store)(nil)
	_ TransactionReader = (*Store)(nil)
)
