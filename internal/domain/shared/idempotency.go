package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so that a retried write is not applied twice
type IdempotencyStore interface {
	// MarkProcessed marks key with a TTL.
	// Returns true if the key was newly marked, false if it is already held.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if key is held
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget releases key, for example after the guarded write failed
	Forget(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
