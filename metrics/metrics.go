// ABOUTME: Prometheus metrics for solves, sweeps and HTTP requests
// ABOUTME: Recorder implements the solver and sweep observers and serves /metrics

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/obgclub/capacity-planner/models"
)

const namespace = "capacity_planner"

// Recorder owns a registry and the planner's collectors.
type Recorder struct {
	registry *prometheus.Registry

	solves        *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	solveNodes    prometheus.Histogram

	sweeps           *prometheus.CounterVec
	sweepDuration    prometheus.Histogram
	sweepCandidates  prometheus.Histogram
	requests         *prometheus.CounterVec
	requestDurations *prometheus.HistogramVec
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		solves: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solves_total",
			Help:      "Allocation solves by outcome status",
		}, []string{"status"}),
		solveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Wall time of a single allocation solve",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"status"}),
		solveNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_nodes",
			Help:      "Branch-and-bound nodes explored per solve",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		sweeps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "Capacity sweeps by whether any candidate was feasible",
		}, []string{"feasible"}),
		sweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of a capacity sweep",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
		sweepCandidates: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_candidates",
			Help:      "Candidate member counts per sweep",
			Buckets:   []float64{1, 5, 10, 20, 50, 100},
		}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		requestDurations: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveSolve records one solver outcome.
func (r *Recorder) ObserveSolve(status models.SolveStatus, nodes int, elapsed time.Duration) {
	r.solves.WithLabelValues(string(status)).Inc()
	r.solveDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
	r.solveNodes.Observe(float64(nodes))
}

// ObserveSweep records one sweep outcome.
func (r *Recorder) ObserveSweep(candidates int, feasible bool, elapsed time.Duration) {
	r.sweeps.WithLabelValues(strconv.FormatBool(feasible)).Inc()
	r.sweepDuration.Observe(elapsed.Seconds())
	r.sweepCandidates.Observe(float64(candidates))
}

// ObserveRequest records one HTTP request against its route pattern.
func (r *Recorder) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	r.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.requestDurations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
