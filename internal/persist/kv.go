// Package persist stores the transaction snapshot in a key-value byte store.
package persist

import (
	"context"
	"errors"
)

var (
	ErrKeyNotFound       = errors.New("key not found")
	ErrInvalidKey        = errors.New("invalid key")
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// KV is a byte store addressed by string keys. A Put is visible to every
// Get that starts after it returns.
//
//go:generate mockgen -destination=mocks/mock_kv.go -source=kv.go KV
type KV interface {
	// Get returns ErrKeyNotFound when key was never written.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
