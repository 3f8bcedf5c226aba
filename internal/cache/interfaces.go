package cache

import (
	"context"
	"time"
)

// Cache defines the byte-level storage behind the snapshot cache.
// The memory implementation serves a single process; Redis lets several
// processes sharing one SQL ledger reuse each other's snapshots.
type Cache interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries from the cache.
	Clear(ctx context.Context) error

	// Close releases resources held by the cache.
	Close() error
}

// Common cache errors
type CacheError string

func (e CacheError) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss CacheError = "cache miss"

	// ErrCorruptEntry indicates a stored value could not be decoded.
	ErrCorruptEntry CacheError = "corrupt cache entry"
)
