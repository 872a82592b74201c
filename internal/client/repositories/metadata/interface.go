// Package metadata is a small key-value table in the client's local SQLite
// database. It backs the durable session state.
package metadata

import (
	"context"
)

// Repository stores opaque values under string keys.
//
// Get returns common.ErrorNotFound when the key is absent. Delete and Clear
// succeed when nothing matches.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
