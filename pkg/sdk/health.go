package askdex

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/askdex/internal/usecase/health"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Healthy reports whether answers can be produced at all. A degraded
// status still answers, on fallback paths.
func (h HealthStatus) Healthy() bool {
	return h.Status != string(healthuc.Unhealthy)
}

// Health checks the index and the providers.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	status := HealthStatus{Status: string(report.Status), Checks: checks}

	var degraded []string
	if report.Status != healthuc.Healthy {
		degraded = []string{status.Status}
	}
	c.obs.observe("health", start, nil, degraded...)
	return status
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
