// ABOUTME: Tests for the health command
// ABOUTME: Verifies health check output formatting and exit codes

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/obgclub/capacity-planner/models"
)

func TestFormatHealthHuman(t *testing.T) {
	resp := &models.HealthResponse{
		Status:   "ok",
		Scenario: "default",
		Store:    "ok",
		Cache:    "memory",
	}

	output := formatHealthHuman("http://localhost:8080", resp)

	if !bytes.Contains([]byte(output), []byte("http://localhost:8080")) {
		t.Error("expected output to contain backend URL")
	}
	if !bytes.Contains([]byte(output), []byte("Store:")) {
		t.Error("expected output to contain Store label")
	}
	if !bytes.Contains([]byte(output), []byte("memory")) {
		t.Error("expected output to contain cache backend")
	}
}

func TestFormatHealthJSON(t *testing.T) {
	resp := &models.HealthResponse{
		Status: "ok",
		Store:  "not_configured",
	}

	output := formatHealthJSON("http://localhost:8080", resp)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed["backend"] != "http://localhost:8080" {
		t.Errorf("expected backend URL in JSON, got %v", parsed["backend"])
	}
	if parsed["store"] != "not_configured" {
		t.Errorf("expected store status in JSON, got %v", parsed["store"])
	}
}

func TestHealthCommand(t *testing.T) {
	tests := []struct {
		status   string
		wantCode int
	}{
		{"ok", 0},
		{"degraded", 1},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(models.HealthResponse{Status: tt.status, Scenario: "default", Store: "ok", Cache: "memory"})
		}))

		apiURL = server.URL
		var buf bytes.Buffer
		exitCode := runHealth(context.Background(), &buf)
		apiURL = ""
		server.Close()

		if exitCode != tt.wantCode {
			t.Errorf("status %s: expected exit code %d, got %d", tt.status, tt.wantCode, exitCode)
		}
		if !bytes.Contains(buf.Bytes(), []byte(tt.status)) {
			t.Errorf("expected %s in output", tt.status)
		}
	}
}

func TestHealthCommand_ConnectionError(t *testing.T) {
	apiURL = "http://localhost:99999"
	defer func() { apiURL = "" }()

	var buf bytes.Buffer
	exitCode := runHealth(context.Background(), &buf)

	if exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Error:")) {
		t.Error("expected Error in output")
	}
}
