package queue

import (
	"context"
	"time"
)

// Locker grants single-flight locks. A lock expires after its ttl so a crashed holder cannot wedge an entity.
type Locker interface {
	// Acquire returns a token if the lock was free. The token is needed to release it again.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	// Extend renews the lock for another ttl if it is still held with token.
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	// Release frees the lock if it is still held with token.
	Release(ctx context.Context, key, token string) error
}
