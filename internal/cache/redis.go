package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/db"
	"github.com/kailas-cloud/askdex/internal/domain"
)

// kvStore is the consumer interface for the shared cache.
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Redis is a Cache shared between service instances. Values are stored as
// JSON under askdex:cache:<name>:<sha256(key)>.
type Redis[V any] struct {
	name     string
	store    kvStore
	observer Observer
	logger   *zap.Logger
}

// NewRedis creates a shared cache. observer may be nil.
func NewRedis[V any](name string, store kvStore, observer Observer, logger *zap.Logger) *Redis[V] {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Redis[V]{name: name, store: store, observer: observer, logger: logger}
}

// Get returns the value stored under key. Backend errors read as a miss.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	k := r.key(key)

	data, err := r.store.Get(ctx, k)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("Cache read failed", zap.String("cache", r.name), zap.Error(err))
		}
		r.observer.Observe(r.name, false)
		return zero, false
	}

	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		r.logger.Warn("Cached value is unreadable", zap.String("cache", r.name), zap.Error(err))
		r.observer.Observe(r.name, false)
		return zero, false
	}
	r.observer.Observe(r.name, true)
	return v, true
}

// Set stores value under key for ttl. Backend errors are logged and dropped.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("Cache value not encodable", zap.String("cache", r.name), zap.Error(err))
		return
	}
	if err := r.store.SetWithTTL(ctx, r.key(key), data, ttl); err != nil {
		r.logger.Warn("Cache write failed", zap.String("cache", r.name), zap.Error(err))
	}
}

func (r *Redis[V]) key(key string) string {
	h := sha256.Sum256([]byte(key))
	return domain.KeyPrefix + "cache:" + r.name + ":" + hex.EncodeToString(h[:])
}
