// Package cache stores serialized distance indexes and query results.
//
// Building an index is the expensive step; loading one is a single pass
// over a varint stream. The CLI keeps built indexes in a [FileCache] under
// the XDG cache directory, a deployed server can share them through a
// [RedisCache], and [NullCache] disables caching.
//
// Keys come from a [Keyer] so that the same inputs always map to the same
// entry regardless of backend.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind.
const (
	// TTLIndex keeps serialized indexes for a week. Keys are content
	// hashes, so entries never go stale; the TTL only bounds disk use.
	TTLIndex = 7 * 24 * time.Hour

	// TTLQuery keeps cached query answers for an hour.
	TTLQuery = time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. Expired and
	// unreadable entries are misses, not errors.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero or less never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry and returns how many were removed.
	Clear(ctx context.Context) (int, error)

	// Close releases the backend.
	Close() error
}
