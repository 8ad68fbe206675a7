// Package storage provides the key-value backends that the credential
// directory and the vault persist into. A backend stores opaque byte values
// under string keys; records are always replaced wholesale, never patched
// in place.
package storage

import "context"

// KV is the injected storage backend interface.
//
// CompareAndSwap is the optimistic-concurrency primitive: callers read a
// record, compute its replacement and swap it back only if the stored value
// is still the one they read. A lost race surfaces as common.ErrConflict so
// the caller can rerun its read-modify-write cycle.
type KV interface {
	// Get returns the value stored under key, or common.ErrNotFound when
	// the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set unconditionally replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// CompareAndSwap replaces the value under key only if the currently
	// stored value equals old. A nil old means the key must not exist yet.
	// On mismatch nothing is written and common.ErrConflict is returned.
	CompareAndSwap(ctx context.Context, key string, old, new []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
