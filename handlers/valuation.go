// ABOUTME: HTTP handlers for plan valuation, personas and revenue projection
// ABOUTME: Revenue is projected at a requested member count or the sweep's largest feasible one

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/obgclub/capacity-planner/models"
	"github.com/obgclub/capacity-planner/services"
)

// GetPlans returns every plan's value ratio and which personas each plan suits.
func (h *Handler) GetPlans(w http.ResponseWriter, r *http.Request) {
	calc := services.NewValueCalculator(h.activeScenario())
	h.writeJSON(w, http.StatusOK, models.PlanCatalog{
		Plans: calc.PlanValues(),
		Fit:   calc.PlanFit(),
	})
}

// GetPersonas returns the personas with their best-value plan.
func (h *Handler) GetPersonas(w http.ResponseWriter, r *http.Request) {
	scenario := h.activeScenario()
	calc := services.NewValueCalculator(scenario)

	names := models.PersonaNames(scenario.Personas)
	resp := make([]models.PersonaSummary, 0, len(names))
	for _, name := range names {
		summary := models.PersonaSummary{Name: name, Profile: scenario.Personas[name]}
		if best, err := calc.BestPlanFor(name); err == nil {
			summary.BestPlan = best.Plan
			summary.Ratio = best.Ratio
		}
		resp = append(resp, summary)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetRevenue projects monthly revenue. With ?members=N it projects that count; otherwise
// it sweeps the scenario's candidates and uses the largest feasible one.
func (h *Handler) GetRevenue(w http.ResponseWriter, r *http.Request) {
	scenario := h.activeScenario()
	planner := services.NewRevenuePlanner(scenario)

	if v := r.URL.Query().Get("members"); v != "" {
		members, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, "members must be an integer", http.StatusBadRequest)
			return
		}
		projection, err := planner.Project(members)
		if err != nil {
			h.writeServiceError(w, "Failed to project revenue", err)
			return
		}
		h.writeJSON(w, http.StatusOK, projection)
		return
	}

	sweep, err := h.runSweep(r.Context(), scenario, nil)
	if err != nil {
		h.writeSweepError(w, err)
		return
	}
	projection, err := planner.ProjectSweep(sweep)
	if errors.Is(err, services.ErrNoFeasibleCapacity) {
		h.writeError(w, "No candidate member count is feasible", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		h.writeServiceError(w, "Failed to project revenue", err)
		return
	}
	h.writeJSON(w, http.StatusOK, projection)
}
