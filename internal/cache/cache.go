// Package cache is the read-through TTL cache used by the analysis and
// expansion stages. Implementations never fail: a broken backend reads as a
// miss and drops writes.
package cache

import (
	"context"
	"time"
)

// Cache maps string keys to values with a per-entry expiry.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
}

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// Observer is notified about lookups; metrics implement it.
type Observer interface {
	Observe(cache string, hit bool)
}

type nopObserver struct{}

func (nopObserver) Observe(string, bool) {}
