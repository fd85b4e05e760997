package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockProvider struct {
	err error
}

func (m *mockProvider) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, map[string]ProviderChecker{
		"embedding": &mockProvider{},
		"llm":       &mockProvider{},
	})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{"database", "embedding", "llm"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_DatabaseDown(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("connection refused")}, map[string]ProviderChecker{
		"llm": &mockProvider{err: errors.New("401")},
	})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
}

func TestCheck_ProviderDownDegrades(t *testing.T) {
	svc := New(&mockDBPinger{}, map[string]ProviderChecker{
		"embedding": &mockProvider{},
		"llm":       &mockProvider{err: errors.New("timeout")},
	})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["llm"] != CheckError || r.Checks["embedding"] != CheckOK {
		t.Errorf("unexpected checks %v", r.Checks)
	}
}

func TestCheck_NilProviderSkipped(t *testing.T) {
	svc := New(&mockDBPinger{}, map[string]ProviderChecker{"embedding": nil})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["embedding"]; ok {
		t.Error("nil provider should not be checked")
	}
}
