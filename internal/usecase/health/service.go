package health

import (
	"context"
	"maps"
	"slices"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a provider is failing; answers fall back.
	Degraded Status = "degraded"
	// Unhealthy indicates the search index is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	providers map[string]ProviderChecker
}

// New creates a Service. Nil providers are skipped.
func New(db DBPinger, providers map[string]ProviderChecker) *Service {
	ps := make(map[string]ProviderChecker, len(providers))
	for name, p := range providers {
		if p != nil {
			ps[name] = p
		}
	}
	return &Service{db: db, providers: ps}
}

// Check runs health checks against all components. Without the database
// nothing can be retrieved, so its failure is Unhealthy; a provider
// failure only degrades.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.providers)+1)
	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	for _, name := range slices.Sorted(maps.Keys(s.providers)) {
		if err := s.providers[name].HealthCheck(ctx); err != nil {
			checks[name] = CheckError
			if status == Healthy {
				status = Degraded
			}
			continue
		}
		checks[name] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}
