package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/db"
)

type mockKVStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

type payload struct {
	Terms []string `json:"terms"`
}

func TestRedis_RoundTrip(t *testing.T) {
	store := newMockKVStore()
	obs := &countingObserver{}
	c := NewRedis[payload]("expansion", store, obs, zap.NewNop())
	ctx := context.Background()

	if _, ok := c.Get(ctx, "pricing"); ok {
		t.Fatal("expected miss")
	}
	c.Set(ctx, "pricing", payload{Terms: []string{"pricing plans"}}, 10*time.Minute)

	got, ok := c.Get(ctx, "pricing")
	if !ok || len(got.Terms) != 1 || got.Terms[0] != "pricing plans" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	if obs.hits != 1 || obs.misses != 1 {
		t.Errorf("hits=%d misses=%d", obs.hits, obs.misses)
	}

	for k, ttl := range store.ttls {
		if !strings.HasPrefix(k, "askdex:cache:expansion:") {
			t.Errorf("unexpected key %q", k)
		}
		if ttl != 10*time.Minute {
			t.Errorf("ttl = %v", ttl)
		}
	}
}

func TestRedis_BackendErrorsReadAsMiss(t *testing.T) {
	store := newMockKVStore()
	store.getErr = errors.New("connection refused")
	store.setErr = errors.New("connection refused")
	c := NewRedis[payload]("analysis", store, nil, zap.NewNop())
	ctx := context.Background()

	c.Set(ctx, "k", payload{}, time.Minute)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("backend error must read as a miss")
	}
}

func TestRedis_CorruptValueReadsAsMiss(t *testing.T) {
	store := newMockKVStore()
	c := NewRedis[payload]("analysis", store, nil, zap.NewNop())
	store.data[c.key("k")] = []byte("{not json")

	if _, ok := c.Get(context.Background(), "k"); ok {
		t.Fatal("corrupt value must read as a miss")
	}
}
