package ports

import (
	"context"
	"time"
)

// RunLease excludes overlapping runs for the same key across processes.
// Acquire returns false without error when another holder owns a live lease.
type RunLease interface {
	Acquire(ctx context.Context, key string, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string, holder string) error
}
