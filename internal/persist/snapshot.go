package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

// DefaultKey is the key the transaction array is stored under.
const DefaultKey = "fintrack_transactions"

// Snapshot encodes the whole transaction collection as one JSON array under
// a single key.
type Snapshot struct {
	kv  KV
	key string
}

func NewSnapshot(kv KV, key string) *Snapshot {
	if key == "" {
		key = DefaultKey
	}
	return &Snapshot{kv: kv, key: key}
}

func (s *Snapshot) Key() string { return s.key }

// RecordError describes one stored record that could not be decoded.
type RecordError struct {
	Index int
	ID    string
	Err   error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d (%q): %v", e.Index, e.ID, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

type LoadResult struct {
	Transactions []core.Transaction
	Skipped      []RecordError
}

// Load reads and decodes the snapshot. A missing key is an empty collection.
// A value that is not a JSON array yields an empty collection and
// ErrMalformedSnapshot. Records that fail to decode are skipped and listed in
// Skipped.
func (s *Snapshot) Load(ctx context.Context) (LoadResult, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrKeyNotFound) {
		return LoadResult{}, nil
	}
	if err != nil {
		return LoadResult{}, fmt.Errorf("load snapshot: %w", err)
	}
	return Decode(data)
}

// Decode parses a snapshot payload.
func Decode(data []byte) (LoadResult, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return LoadResult{}, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return LoadResult{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	res := LoadResult{Transactions: make([]core.Transaction, 0, len(raws))}
	for i, raw := range raws {
		var rec core.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			res.Skipped = append(res.Skipped, RecordError{Index: i, Err: err})
			continue
		}
		tx, err := rec.Transaction()
		if err == nil {
			err = tx.Validate()
		}
		if err != nil {
			res.Skipped = append(res.Skipped, RecordError{Index: i, ID: rec.ID, Err: err})
			continue
		}
		res.Transactions = append(res.Transactions, tx)
	}
	return res, nil
}

// Encode serialises txs as a JSON array of records.
func Encode(txs []core.Transaction) ([]byte, error) {
	recs := make([]core.Record, len(txs))
	for i, tx := range txs {
		recs[i] = tx.Record()
	}
	return json.Marshal(recs)
}

// Save overwrites the snapshot with txs.
func (s *Snapshot) Save(ctx context.Context, txs []core.Transaction) error {
	data, err := Encode(txs)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
