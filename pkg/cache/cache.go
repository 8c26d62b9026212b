// Package cache stores simulation grids between runs.
//
// The engine is deterministic for a given engine identity, seed and
// parameter set, so a finished scatter grid can be reused instead of
// re-running the engine. Caching is opt-in: the default backend is
// [NullCache], which stores nothing.
//
// Backends:
//   - [NullCache]: no-op, the default
//   - [FileCache]: one file per entry under a local directory
//   - [RedisCache]: a shared Redis instance
//
// Keys come from a [Keyer] so callers never hand-build them.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// TTLGrid is the default lifetime of a cached grid.
const TTLGrid = 7 * 24 * time.Hour
