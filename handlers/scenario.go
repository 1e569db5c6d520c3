// ABOUTME: HTTP handlers for the active scenario and the scenario store
// ABOUTME: Replacing the configuration validates it first and persists it when a store is configured

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/obgclub/capacity-planner/models"
	"github.com/obgclub/capacity-planner/store"
)

// GetConfig returns the active scenario.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.activeScenario())
}

// PutConfig replaces the active scenario. The body must be a complete scenario.
func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	var scenario models.Scenario
	if !h.decodeJSON(w, r, &scenario) {
		return
	}
	if scenario.Name == "" {
		scenario.Name = h.activeScenario().Name
	}

	if err := scenario.Validate(); err != nil {
		h.writeServiceError(w, "Invalid scenario", err)
		return
	}
	if h.store != nil {
		if err := h.store.PutScenario(r.Context(), scenario); err != nil {
			h.writeServiceError(w, "Failed to store scenario", err)
			return
		}
	}

	h.setScenario(scenario)
	slog.Info("Scenario replaced", "scenario", scenario.Name, "fingerprint", scenario.Fingerprint())

	h.writeJSON(w, http.StatusOK, scenario)
}

// ListScenarios returns the stored scenario names.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	resp := models.ScenarioList{Active: h.activeScenario().Name, Scenarios: []string{}}
	if h.store == nil {
		h.writeJSON(w, http.StatusOK, resp)
		return
	}

	names, err := h.store.ListScenarios(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to list scenarios", err)
		return
	}
	if names != nil {
		resp.Scenarios = names
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetScenario returns one stored scenario.
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	scenario, ok := h.lookupScenario(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, scenario)
}

// ActivateScenario makes a stored scenario the active one.
func (h *Handler) ActivateScenario(w http.ResponseWriter, r *http.Request) {
	scenario, ok := h.lookupScenario(w, r)
	if !ok {
		return
	}
	if err := scenario.Validate(); err != nil {
		h.writeServiceError(w, "Stored scenario is invalid", err)
		return
	}

	h.setScenario(scenario)
	slog.Info("Scenario activated", "scenario", scenario.Name, "fingerprint", scenario.Fingerprint())

	h.writeJSON(w, http.StatusOK, scenario)
}

func (h *Handler) lookupScenario(w http.ResponseWriter, r *http.Request) (models.Scenario, bool) {
	if h.store == nil {
		h.writeError(w, "Scenario store not configured. Set SCENARIO_DIR or DATABASE_URL.", http.StatusServiceUnavailable)
		return models.Scenario{}, false
	}

	name := r.PathValue("name")
	if err := store.ValidateName(name); err != nil {
		h.writeServiceError(w, "Invalid scenario name", err)
		return models.Scenario{}, false
	}

	scenario, err := h.store.GetScenario(r.Context(), name)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, "Scenario not found", http.StatusNotFound)
		return models.Scenario{}, false
	}
	if err != nil {
		h.writeServiceError(w, "Failed to load scenario", err)
		return models.Scenario{}, false
	}
	return scenario, true
}
