// Package store persists manual-capture values as a flat key/value map.
package store

import "context"

// Store is the capture key/value store. Keys are opaque to the store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// SetMany writes every entry, replacing existing values.
	SetMany(ctx context.Context, entries map[string]string) error
	// Delete removes the keys. Absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// List returns every entry whose key starts with prefix.
	List(ctx context.Context, prefix string) (map[string]string, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
