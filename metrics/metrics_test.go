package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/obgclub/capacity-planner/models"
)

func TestRecorder_ObserveSolve(t *testing.T) {
	r := New()

	r.ObserveSolve(models.StatusOptimal, 12, 3*time.Millisecond)
	r.ObserveSolve(models.StatusOptimal, 4, time.Millisecond)
	r.ObserveSolve(models.StatusInfeasible, 30, 8*time.Millisecond)

	if got := testutil.ToFloat64(r.solves.WithLabelValues("optimal")); got != 2 {
		t.Errorf("Expected 2 optimal solves, got %g", got)
	}
	if got := testutil.ToFloat64(r.solves.WithLabelValues("infeasible")); got != 1 {
		t.Errorf("Expected 1 infeasible solve, got %g", got)
	}
}

func TestRecorder_ObserveSweep(t *testing.T) {
	r := New()

	r.ObserveSweep(5, true, time.Second)
	r.ObserveSweep(2, false, time.Second)
	r.ObserveSweep(3, true, time.Second)

	if got := testutil.ToFloat64(r.sweeps.WithLabelValues("true")); got != 2 {
		t.Errorf("Expected 2 feasible sweeps, got %g", got)
	}
	if got := testutil.ToFloat64(r.sweeps.WithLabelValues("false")); got != 1 {
		t.Errorf("Expected 1 infeasible sweep, got %g", got)
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ObserveRequest(http.MethodPost, "/api/v1/capacity/sweep", http.StatusOK, 20*time.Millisecond)
	r.ObserveSolve(models.StatusFeasible, 5000, time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`capacity_planner_http_requests_total{code="200",method="POST",route="/api/v1/capacity/sweep"} 1`,
		`capacity_planner_solves_total{status="feasible"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("Expected exposition to contain %q", want)
		}
	}
}
