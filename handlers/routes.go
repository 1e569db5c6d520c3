// ABOUTME: Declarative route table for API endpoints
// ABOUTME: Defines all routes with their HTTP methods, handlers and rate limit tier

package handlers

import (
	"net/http"
	"time"

	"github.com/obgclub/capacity-planner/middleware"
)

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // URL path (e.g., "/api/v1/health")
	Handler http.HandlerFunc // Handler function
	Write   bool             // Solves and config changes use the tighter rate limit
}

// Routes returns all API routes for registration.
func (h *Handler) Routes() []Route {
	return []Route{
		// Health
		{Method: http.MethodGet, Path: "/api/v1/health", Handler: h.Health},

		// Configuration
		{Method: http.MethodGet, Path: "/api/v1/config", Handler: h.GetConfig},
		{Method: http.MethodPut, Path: "/api/v1/config", Handler: h.PutConfig, Write: true},
		{Method: http.MethodGet, Path: "/api/v1/scenarios", Handler: h.ListScenarios},
		{Method: http.MethodGet, Path: "/api/v1/scenarios/{name}", Handler: h.GetScenario},
		{Method: http.MethodPost, Path: "/api/v1/scenarios/{name}/activate", Handler: h.ActivateScenario, Write: true},

		// Analysis
		{Method: http.MethodPost, Path: "/api/v1/demand", Handler: h.ComputeDemand},
		{Method: http.MethodPost, Path: "/api/v1/solve", Handler: h.Solve, Write: true},
		{Method: http.MethodPost, Path: "/api/v1/capacity/sweep", Handler: h.Sweep, Write: true},
		{Method: http.MethodGet, Path: "/api/v1/capacity", Handler: h.GetCapacity},
		{Method: http.MethodGet, Path: "/api/v1/runs", Handler: h.ListRuns},
		{Method: http.MethodGet, Path: "/api/v1/runs/{id}", Handler: h.GetRun},

		// Valuation
		{Method: http.MethodGet, Path: "/api/v1/plans", Handler: h.GetPlans},
		{Method: http.MethodGet, Path: "/api/v1/personas", Handler: h.GetPersonas},
		{Method: http.MethodGet, Path: "/api/v1/revenue", Handler: h.GetRevenue},
	}
}

// NewMux registers every route behind logging, CORS, metrics and rate limiting, plus
// /metrics when a recorder is configured.
func (h *Handler) NewMux() *http.ServeMux {
	var writeLimiter, defaultLimiter *middleware.RateLimiter
	if h.cfg.RateLimitEnabled {
		writeLimiter = middleware.NewRateLimiter(h.cfg.RateLimitWrite, time.Minute)
		defaultLimiter = middleware.NewRateLimiter(h.cfg.RateLimitDefault, time.Minute)
	}
	cors := middleware.CORS(h.cfg.CORSAllowedOrigins)

	var observer middleware.RequestObserver
	if h.metrics != nil {
		observer = h.metrics
	}

	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		limiter := defaultLimiter
		if route.Write {
			limiter = writeLimiter
		}
		mux.HandleFunc(route.Method+" "+route.Path, middleware.Chain(route.Handler,
			middleware.LogRequest,
			cors,
			middleware.Metrics(observer, route.Path),
			middleware.RateLimit(limiter, middleware.ClientIP),
		))
	}

	// Preflight requests match no method-specific pattern.
	mux.HandleFunc("OPTIONS /api/v1/", cors(func(w http.ResponseWriter, r *http.Request) {}))

	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
	return mux
}
