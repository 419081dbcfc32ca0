// Package keystore persists per-subject key/value state written by
// `save key` operators and read by `require key` / `ignore key` conditions.
package keystore

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persisted key/value interface. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the value for the subject's key and whether it exists.
	Get(ctx context.Context, subject uuid.UUID, key string) (string, bool, error)

	// Set writes the value for the subject's key, overwriting any previous
	// value.
	Set(ctx context.Context, subject uuid.UUID, key, value string) error

	// Delete removes the subject's key. Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, subject uuid.UUID, key string) error

	// Close releases any resources held by the store.
	Close() error
}
