package storage

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore persists string values under fixed keys.
type KeyValueStore interface {
	// Get returns the value stored under key or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Put creates or replaces the value stored under key.
	Put(ctx context.Context, key string, value string) error
}
