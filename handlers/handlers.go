// ABOUTME: HTTP handlers for the capacity planner API
// ABOUTME: Holds the active scenario and the optional cache, store and metrics backends

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/obgclub/capacity-planner/cache"
	"github.com/obgclub/capacity-planner/config"
	"github.com/obgclub/capacity-planner/metrics"
	"github.com/obgclub/capacity-planner/models"
	"github.com/obgclub/capacity-planner/services"
	"github.com/obgclub/capacity-planner/store"
)

// maxRequestBodySize limits JSON request bodies to 1MB to prevent DOS attacks
const maxRequestBodySize = 1 << 20 // 1MB

type Handler struct {
	cfg     *config.Config
	cache   cache.Store
	store   store.Store
	metrics *metrics.Recorder

	scenarioMutex sync.RWMutex
	scenario      models.Scenario

	sweeps singleflight.Group
}

// Option configures optional Handler backends.
type Option func(*Handler)

// WithCache caches sweep results in c.
func WithCache(c cache.Store) Option {
	return func(h *Handler) { h.cache = c }
}

// WithStore persists scenarios and analysis runs in s.
func WithStore(s store.Store) Option {
	return func(h *Handler) { h.store = s }
}

// WithMetrics records solver, sweep and request metrics in m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler serves the given scenario. A nil cfg uses the service defaults.
func NewHandler(cfg *config.Config, scenario models.Scenario, opts ...Option) *Handler {
	if cfg == nil {
		cfg = &config.Config{
			CacheTTL:         300,
			SolverTimeoutMS:  int(services.DefaultSolverTimeout / time.Millisecond),
			MaxCandidates:    50,
			RateLimitWrite:   10,
			RateLimitDefault: 100,
		}
	}
	h := &Handler{cfg: cfg, scenario: scenario}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// activeScenario returns a snapshot of the scenario being served.
func (h *Handler) activeScenario() models.Scenario {
	h.scenarioMutex.RLock()
	defer h.scenarioMutex.RUnlock()
	return h.scenario
}

func (h *Handler) setScenario(s models.Scenario) {
	h.scenarioMutex.Lock()
	h.scenario = s
	h.scenarioMutex.Unlock()
}

// solver builds a solver for the scenario with the service's time limit.
func (h *Handler) solver(scenario models.Scenario) *services.Solver {
	opts := []services.SolverOption{services.WithTimeout(h.cfg.SolverTimeout())}
	if h.metrics != nil {
		opts = append(opts, services.WithObserver(h.metrics))
	}
	return services.NewSolver(scenario.Solver, opts...)
}

// analyzer builds an analyzer for the scenario wired to the service's solver settings.
func (h *Handler) analyzer(scenario models.Scenario) (*services.Analyzer, error) {
	opts := []services.AnalyzerOption{services.WithSolver(h.solver(scenario))}
	if h.metrics != nil {
		opts = append(opts, services.WithSweepObserver(h.metrics))
	}
	if h.cfg.SweepWorkers > 0 {
		opts = append(opts, services.WithWorkers(h.cfg.SweepWorkers))
	}
	return services.NewAnalyzer(scenario, opts...)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeErrorWithDetails(w, message, "", code)
}

func (h *Handler) writeErrorWithDetails(w http.ResponseWriter, message, details string, code int) {
	h.writeJSON(w, code, models.ErrorResponse{
		Error:   message,
		Details: details,
		Code:    code,
	})
}

// writeServiceError maps configuration errors to 400 and everything else to 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	var cfgErr *models.ConfigurationError
	if errors.As(err, &cfgErr) {
		h.writeErrorWithDetails(w, message, cfgErr.Error(), http.StatusBadRequest)
		return
	}
	slog.Error(message, "error", err)
	h.writeError(w, message, http.StatusInternalServerError)
}

// decodeJSON reads a size-limited JSON body into dest. An empty body leaves dest untouched.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return true
		case errors.As(err, &maxBytesErr):
			h.writeError(w, "Request body too large", http.StatusBadRequest)
		default:
			h.writeErrorWithDetails(w, "Invalid JSON", err.Error(), http.StatusBadRequest)
		}
		return false
	}
	return true
}
