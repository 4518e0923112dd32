package services

import (
	"context"
	"fmt"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// PushSheet overwrites the sheet with the current ledger.
func (s *LedgerService) PushSheet(ctx context.Context, p sheets.Pusher) (string, error) {
	ref, err := p.Push(ctx, s.store.List())
	if err != nil {
		return "", fmt.Errorf("push sheet: %w", err)
	}
	return ref, nil
}

// PullSheet imports the sheet rows the ledger does not already hold and
// returns how many transactions were added. Sheet rows carry no ID, so a row
// matches a ledger transaction when every column is equal. Each ledger
// transaction absorbs at most one matching row, so repeated rows beyond the
// ledger's copies are still added.
func (s *LedgerService) PullSheet(ctx context.Context, p sheets.Puller) (int, error) {
	res, err := p.Pull(ctx)
	if err != nil {
		return 0, fmt.Errorf("pull sheet: %w", err)
	}

	held := make(map[string]int)
	for _, tx := range s.store.List() {
		held[rowKey(tx)]++
	}
	fresh := res.Transactions[:0:0]
	for _, tx := range res.Transactions {
		k := rowKey(tx)
		if held[k] > 0 {
			held[k]--
			continue
		}
		fresh = append(fresh, tx)
	}
	if n := len(res.Transactions) - len(fresh); n > 0 {
		s.logger.InfoContext(ctx, "Sheet rows already in ledger", log.FieldSkipped, n)
	}
	res.Transactions = fresh
	return s.Import(ctx, res), nil
}

// rowKey is the sheet-visible identity of a transaction.
func rowKey(tx core.Transaction) string {
	cost := ""
	if c, ok := tx.Cost(); ok {
		cost = c.String()
	}
	return fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%s\x00%s",
		tx.Date.Key(), tx.Kind(), tx.Amount(), cost, tx.Category, tx.Description)
}
