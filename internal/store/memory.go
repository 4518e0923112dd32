package store

import (
	"fmt"
	"sync"

	"fintrack/internal/core"
)

// Store is an ordered, mutex-guarded collection keyed by transaction ID.
// It does not persist anything. The zero value is an empty store.
type Store struct {
	mu    sync.Mutex
	items []core.Transaction
	index map[string]int
}

func New() *Store {
	return &Store{index: map[string]int{}}
}

// Add validates tx and appends it.
func (s *Store) Add(tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[tx.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, tx.ID)
	}
	if s.index == nil {
		s.index = map[string]int{}
	}
	s.index[tx.ID] = len(s.items)
	s.items = append(s.items, tx)
	return nil
}

// Update replaces every field of the transaction with the same ID, keeping
// its position.
func (s *Store) Update(tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[tx.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, tx.ID)
	}
	s.items[i] = tx
	return nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindex()
	return nil
}

func (s *Store) Get(id string) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return core.Transaction{}, false
	}
	return s.items[i], true
}

func (s *Store) List() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Replace discards the current contents and bulk-loads txs. Invalid or
// duplicate entries are skipped; the number kept is returned.
func (s *Store) Replace(txs []core.Transaction) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]core.Transaction, 0, len(txs))
	s.index = make(map[string]int, len(txs))
	for _, tx := range txs {
		if tx.Validate() != nil {
			continue
		}
		if _, dup := s.index[tx.ID]; dup {
			continue
		}
		s.index[tx.ID] = len(s.items)
		s.items = append(s.items, tx)
	}
	return len(s.items)
}

func (s *Store) reindex() {
	clear(s.index)
	for i, tx := range s.items {
		s.index[tx.ID] = i
	}
}
