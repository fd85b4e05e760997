// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "askdex"

var registerOnce sync.Once

// Register registers every collector on the default registry. Must be called
// once from main; later calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequestDuration, httpRequestsTotal, httpInFlight)
		prometheus.MustRegister(embeddingCollectors()...)
		prometheus.MustRegister(llmCollectors()...)
		prometheus.MustRegister(pipelineCollectors()...)
	})
}
