package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a Memory cache when no limit is given.
const DefaultMaxEntries = 10_000

type entry[V any] struct {
	value   V
	expires time.Time
}

// Memory is an in-process Cache. Expired entries are dropped lazily on read
// and in bulk when the size bound is reached.
type Memory[V any] struct {
	name       string
	mu         sync.Mutex
	items      map[string]entry[V]
	now        Clock
	maxEntries int
	observer   Observer
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now        Clock
	maxEntries int
	observer   Observer
}

// WithClock overrides time.Now.
func WithClock(now Clock) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

// WithMaxEntries bounds the number of stored entries.
func WithMaxEntries(n int) MemoryOption {
	return func(o *memoryOptions) { o.maxEntries = n }
}

// WithObserver reports hits and misses.
func WithObserver(obs Observer) MemoryOption {
	return func(o *memoryOptions) { o.observer = obs }
}

// NewMemory creates an empty in-memory cache. name labels observations.
func NewMemory[V any](name string, opts ...MemoryOption) *Memory[V] {
	o := memoryOptions{now: time.Now, maxEntries: DefaultMaxEntries, observer: nopObserver{}}
	for _, fn := range opts {
		fn(&o)
	}
	return &Memory[V]{
		name:       name,
		items:      make(map[string]entry[V]),
		now:        o.now,
		maxEntries: o.maxEntries,
		observer:   o.observer,
	}
}

// Get returns the live value stored under key.
func (m *Memory[V]) Get(_ context.Context, key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if ok && !m.now().Before(e.expires) {
		delete(m.items, key)
		ok = false
	}
	m.observer.Observe(m.name, ok)
	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key until now+ttl. A non-positive ttl is a no-op.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, exists := m.items[key]; !exists && len(m.items) >= m.maxEntries {
		m.evict(now)
	}
	m.items[key] = entry[V]{value: value, expires: now.Add(ttl)}
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// evict drops expired entries, then the soonest-expiring one if still full.
func (m *Memory[V]) evict(now time.Time) {
	for k, e := range m.items {
		if !now.Before(e.expires) {
			delete(m.items, k)
		}
	}
	if len(m.items) < m.maxEntries {
		return
	}
	var (
		victim string
		first  time.Time
	)
	for k, e := range m.items {
		if victim == "" || e.expires.Before(first) {
			victim, first = k, e.expires
		}
	}
	delete(m.items, victim)
}
