// Package chi is the HTTP transport: routes, middleware and JSON mapping.
package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/askdex/internal/domain/query"
	"github.com/kailas-cloud/askdex/internal/metrics"
	healthuc "github.com/kailas-cloud/askdex/internal/usecase/health"
	"github.com/kailas-cloud/askdex/internal/usecase/pipeline"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Pipeline answers and analyzes queries.
type Pipeline interface {
	Ask(ctx context.Context, req pipeline.Request) (pipeline.Response, error)
	Analyze(ctx context.Context, text string, filters query.Filters) (pipeline.AnalyzeResult, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	pipeline      Pipeline
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(p Pipeline, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{
		pipeline:      p,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// RouterConfig holds the middleware settings of the router.
type RouterConfig struct {
	APIKeys   []string
	RateRPS   float64
	RateBurst int
}

// Router builds the chi router. ctx bounds background work of the
// middleware (limiter cleanup).
func (s *Server) Router(ctx context.Context, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	if cfg.RateRPS > 0 {
		r.Use(RateLimiter(ctx, cfg.RateRPS, cfg.RateBurst, s.logger))
	}
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", s.Ask)
		r.Post("/analyze", s.Analyze)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// Ask handles POST /v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := s.pipeline.Ask(r.Context(), pipeline.Request{
		Query:   req.Query,
		History: historyFromDTO(req.History),
		Filters: filtersFromDTO(req.Filters),
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("X-Askdex-Request-ID", resp.Diagnostics.RequestID)
	writeJSON(w, http.StatusOK, askResponseFrom(resp))
}

// Analyze handles POST /v1/analyze.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := s.pipeline.Analyze(r.Context(), req.Query, filtersFromDTO(req.Filters))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Analysis: res.Analysis,
		Params:   res.Params,
		Filter:   res.Filter,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
