// Package sheets mirrors the ledger to and from a spreadsheet.
package sheets

import (
	"context"

	"fintrack/internal/core"
	"fintrack/internal/exchange"
)

// Ports for outbound adapters.
type (
	// Pusher overwrites the sheet with the given transactions.
	Pusher interface {
		Push(ctx context.Context, txs []core.Transaction) (rangeRef string, err error)
	}

	// Puller reads the sheet back as importable rows.
	Puller interface {
		Pull(ctx context.Context) (exchange.ImportResult, error)
	}

	Sheet interface {
		Pusher
		Puller
	}
)
