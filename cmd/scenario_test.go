// ABOUTME: Tests for scenario management commands
// ABOUTME: Validates list, activate and push against a mock server

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/obgclub/capacity-planner/internal/client"
	"github.com/obgclub/capacity-planner/models"
)

func TestScenarioList_HumanOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ScenarioList{Active: "big-room", Scenarios: []string{"big-room", "small-room"}})
	}))
	defer server.Close()

	var out bytes.Buffer
	if err := runScenarioList(context.Background(), client.New(server.URL), &out, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Contains(out.Bytes(), []byte("* big-room")) {
		t.Errorf("expected active marker, got:\n%s", out.String())
	}
	if !bytes.Contains(out.Bytes(), []byte("  small-room")) {
		t.Errorf("expected inactive scenario, got:\n%s", out.String())
	}
}

func TestScenarioList_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ScenarioList{Active: "default", Scenarios: []string{}})
	}))
	defer server.Close()

	var out bytes.Buffer
	if err := runScenarioList(context.Background(), client.New(server.URL), &out, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("No stored scenarios. Active: default")) {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestScenarioActivate_JSONOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/scenarios/small-room/activate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(testScenario())
	}))
	defer server.Close()

	var out bytes.Buffer
	if err := runScenarioActivate(context.Background(), client.New(server.URL), &out, "small-room", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result models.Scenario
	if err := json.Unmarshal(out.Bytes(), &result); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if result.Name != "small-room" || result.Inventory[8] != 3 {
		t.Errorf("unexpected scenario %s %v", result.Name, result.Inventory)
	}
}

func TestScenarioPush_HumanOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/config" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var s models.Scenario
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(s)
	}))
	defer server.Close()

	var out bytes.Buffer
	if err := runScenarioPush(context.Background(), client.New(server.URL), &out, testScenario(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Uploaded scenario small-room", "4x2-top, 6x4-top, 3x8-top", "82 per month", "regulars"} {
		if !bytes.Contains(out.Bytes(), []byte(want)) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out.String())
		}
	}
}

func TestScenarioActivate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Scenario not found", Code: 404})
	}))
	defer server.Close()

	var out bytes.Buffer
	err := runScenarioActivate(context.Background(), client.New(server.URL), &out, "missing", false)
	if err == nil {
		t.Fatal("expected error when server returns error")
	}
	if !bytes.Contains([]byte(err.Error()), []byte("Scenario not found")) {
		t.Errorf("expected error message from server, got: %v", err)
	}
}

func TestScenarioList_ConnectionError(t *testing.T) {
	c := client.New("http://localhost:99999")

	var out bytes.Buffer
	err := runScenarioList(context.Background(), c, &out, true)
	if err == nil {
		t.Fatal("expected error when server is unreachable")
	}
	if !bytes.Contains([]byte(err.Error()), []byte("cannot connect")) {
		t.Errorf("expected error to mention connection failure, got: %v", err)
	}
}
