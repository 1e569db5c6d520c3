// ABOUTME: Tests for the capacity planner API client
// ABOUTME: Uses httptest to mock backend responses

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/obgclub/capacity-planner/models"
)

func TestHealth_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			t.Errorf("expected path /api/v1/health, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.HealthResponse{Status: "ok", Scenario: "default"})
	}))
	defer server.Close()

	c := New(server.URL)
	resp, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %s", resp.Status)
	}
	if resp.Scenario != "default" {
		t.Errorf("expected scenario default, got %s", resp.Scenario)
	}
}

func TestHealth_ConnectionError(t *testing.T) {
	c := New("http://localhost:99999")
	_, err := c.Health(context.Background())
	if err == nil {
		t.Error("expected connection error, got nil")
	}
}

func TestHealth_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
	}))
	defer server.Close()

	c := New(server.URL)
	_, err := c.Health(context.Background())
	if err == nil || !strings.Contains(err.Error(), "internal error") {
		t.Errorf("expected backend error, got %v", err)
	}
}

func TestHealth_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode(models.HealthResponse{Status: "ok"})
	}))
	defer server.Close()

	c := New(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := c.Health(ctx)
	if err == nil || err.Error() != "request canceled" {
		t.Errorf("expected request canceled, got %v", err)
	}
}

func TestHealth_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode(models.HealthResponse{Status: "ok"})
	}))
	defer server.Close()

	c := New(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Health(ctx)
	if err == nil {
		t.Error("expected error for timed out context, got nil")
	}
}

func TestSweep_SendsCandidates(t *testing.T) {
	maxFeasible := 300
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/capacity/sweep" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var input models.SweepInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(input.Candidates) != 2 || input.Candidates[1] != 300 {
			t.Errorf("unexpected candidates %v", input.Candidates)
		}
		json.NewEncoder(w).Encode(models.SweepResult{Scenario: "default", MaxFeasible: &maxFeasible})
	}))
	defer server.Close()

	sweep, err := New(server.URL).Sweep(context.Background(), []int{200, 300})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sweep.MaxFeasible == nil || *sweep.MaxFeasible != 300 {
		t.Errorf("expected max feasible 300, got %v", sweep.MaxFeasible)
	}
}

func TestRevenue_MembersQuery(t *testing.T) {
	tests := []struct {
		members   int
		wantQuery string
	}{
		{members: 250, wantQuery: "members=250"},
		{members: -1, wantQuery: ""},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != tt.wantQuery {
				t.Errorf("expected query %q, got %q", tt.wantQuery, r.URL.RawQuery)
			}
			json.NewEncoder(w).Encode(models.RevenueProjection{Members: 250, Total: 1000})
		}))

		if _, err := New(server.URL).Revenue(context.Background(), tt.members); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		server.Close()
	}
}

func TestActivateScenario_ErrorDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/scenarios/big-room/activate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.ErrorResponse{
			Error:   "Stored scenario is invalid",
			Details: "configuration error: personas: population shares sum to 0.5000",
			Code:    http.StatusBadRequest,
		})
	}))
	defer server.Close()

	_, err := New(server.URL).ActivateScenario(context.Background(), "big-room")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "population shares") {
		t.Errorf("expected details in error, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("expected APIError with status 400, got %#v", err)
	}
}

func TestSolve_InvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := New(server.URL).Solve(context.Background(), 100)
	if err == nil || !strings.Contains(err.Error(), "invalid response") {
		t.Errorf("expected invalid response error, got %v", err)
	}
}
