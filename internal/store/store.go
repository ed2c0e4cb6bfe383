// Package store is the key-value adapter over Postgres. Records carry a
// version so concurrent writers to the same key can detect each other
// instead of overwriting; a put only returns after the write is committed,
// which is what lets the router publish dependent events without any
// settle delay.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means the key has never been written.
	ErrNotFound = errors.New("store: key not found")
	// ErrVersionMismatch means another writer got there first; re-read
	// and retry.
	ErrVersionMismatch = errors.New("store: version mismatch")
)

// KV is the record store contract the repositories are written against.
type KV interface {
	// Get returns the current value and its version.
	Get(ctx context.Context, key string) (value []byte, version int64, err error)
	// PutVersioned writes value if the stored version still equals expect.
	// expect 0 means the key must not exist yet.
	PutVersioned(ctx context.Context, key string, value []byte, expect int64) error
}
