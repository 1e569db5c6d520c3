// ABOUTME: HTTP handlers for demand, solve and capacity sweep endpoints
// ABOUTME: Sweeps are cached by scenario fingerprint and recorded as analysis runs

package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/obgclub/capacity-planner/models"
	"github.com/obgclub/capacity-planner/services"
	"github.com/obgclub/capacity-planner/store"
)

// ComputeDemand returns the demand vector for a member count.
func (h *Handler) ComputeDemand(w http.ResponseWriter, r *http.Request) {
	var input models.MembersInput
	if !h.decodeJSON(w, r, &input) {
		return
	}

	demand, err := services.ComputeScenarioDemand(input.Members, h.activeScenario())
	if err != nil {
		h.writeServiceError(w, "Failed to compute demand", err)
		return
	}
	h.writeJSON(w, http.StatusOK, demand)
}

// Solve checks whether a demand vector fits the inventory. The demand is either given
// directly or computed from a member count.
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	var input models.SolveInput
	if !h.decodeJSON(w, r, &input) {
		return
	}
	if (input.Members == nil) == (input.Demand == nil) {
		h.writeError(w, "Provide exactly one of members or demand", http.StatusBadRequest)
		return
	}

	scenario := h.activeScenario()
	if input.Members != nil {
		analyzer, err := h.analyzer(scenario)
		if err != nil {
			h.writeServiceError(w, "Invalid scenario", err)
			return
		}
		result, err := analyzer.Evaluate(r.Context(), *input.Members)
		if err != nil {
			h.writeServiceError(w, "Failed to solve", err)
			return
		}
		h.writeJSON(w, http.StatusOK, result)
		return
	}

	demand := *input.Demand
	solver := h.solver(scenario)
	result, err := solver.Solve(r.Context(), demand, scenario.Inventory)
	if err != nil {
		h.writeServiceError(w, "Failed to solve", err)
		return
	}
	if !result.Feasible {
		bottleneck := services.DiagnoseBottleneck(demand, scenario.Inventory, solver.Policy())
		result.Bottleneck = &bottleneck
	}
	h.writeJSON(w, http.StatusOK, models.CandidateResult{Members: demand.Members, Demand: demand, Result: result})
}

// Sweep evaluates the requested member counts, or the scenario's candidates when none are given.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	var input models.SweepInput
	if !h.decodeJSON(w, r, &input) {
		return
	}

	sweep, err := h.runSweep(r.Context(), h.activeScenario(), input.Candidates)
	if err != nil {
		h.writeSweepError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sweep)
}

// GetCapacity returns the sweep over the scenario's candidates.
func (h *Handler) GetCapacity(w http.ResponseWriter, r *http.Request) {
	sweep, err := h.runSweep(r.Context(), h.activeScenario(), nil)
	if err != nil {
		h.writeSweepError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sweep)
}

// errTooManyCandidates is returned for sweeps larger than the configured maximum.
var errTooManyCandidates = errors.New("too many candidates")

// runSweep returns the cached sweep for the scenario and candidates, or runs and records it.
func (h *Handler) runSweep(ctx context.Context, scenario models.Scenario, candidates []int) (models.SweepResult, error) {
	if len(candidates) == 0 {
		candidates = scenario.Candidates
	}
	if len(candidates) == 0 {
		return models.SweepResult{}, &models.ConfigurationError{Field: "candidates", Reason: "no member counts to sweep"}
	}
	if len(candidates) > h.cfg.MaxCandidates {
		return models.SweepResult{}, fmt.Errorf("%w: %d exceeds the limit of %d", errTooManyCandidates, len(candidates), h.cfg.MaxCandidates)
	}

	key := sweepCacheKey(scenario.Fingerprint(), candidates)
	if h.cache != nil {
		var cached models.SweepResult
		found, err := h.cache.Get(ctx, key, &cached)
		if err != nil {
			slog.Warn("Sweep cache read failed", "key", key, "error", err)
		}
		if found {
			cached.Cached = true
			return cached, nil
		}
	}

	// Identical concurrent sweeps share one run; a caller hanging up must not fail the others.
	v, err, _ := h.sweeps.Do(key, func() (any, error) {
		return h.sweepAndRecord(context.WithoutCancel(ctx), scenario, candidates, key)
	})
	if err != nil {
		return models.SweepResult{}, err
	}
	return v.(models.SweepResult), nil
}

// sweepAndRecord runs the sweep, then stores it in the cache and the run history.
func (h *Handler) sweepAndRecord(ctx context.Context, scenario models.Scenario, candidates []int, key string) (models.SweepResult, error) {
	analyzer, err := h.analyzer(scenario)
	if err != nil {
		return models.SweepResult{}, err
	}
	sweep, err := analyzer.FindMaxFeasible(ctx, candidates)
	if err != nil {
		return models.SweepResult{}, err
	}

	// A timed-out candidate may solve on the next request, so that sweep is not cached.
	if h.cache != nil && !sweep.HasSolverFailure() {
		ttl := time.Duration(h.cfg.CacheTTL) * time.Second
		if err := h.cache.Set(ctx, key, sweep, ttl); err != nil {
			slog.Warn("Sweep cache write failed", "key", key, "error", err)
		}
	}
	if h.store != nil {
		if err := h.store.RecordRun(ctx, models.NewAnalysisRun(sweep, time.Now().UTC())); err != nil {
			slog.Warn("Failed to record analysis run", "run_id", sweep.RunID, "error", err)
		}
	}
	return sweep, nil
}

func (h *Handler) writeSweepError(w http.ResponseWriter, err error) {
	if errors.Is(err, errTooManyCandidates) {
		h.writeErrorWithDetails(w, "Too many candidates", err.Error(), http.StatusBadRequest)
		return
	}
	h.writeServiceError(w, "Capacity sweep failed", err)
}

// sweepCacheKey identifies a sweep by scenario fingerprint and sorted candidates.
func sweepCacheKey(fingerprint string, candidates []int) string {
	sorted := make([]int, len(candidates))
	copy(sorted, candidates)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = strconv.Itoa(c)
	}
	return "sweep:" + fingerprint + ":" + strings.Join(parts, ",")
}

// ListRuns returns recorded analysis runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, "Run history not configured. Set SCENARIO_DIR or DATABASE_URL.", http.StatusServiceUnavailable)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(r.Context(), r.URL.Query().Get("scenario"), limit)
	if err != nil {
		h.writeServiceError(w, "Failed to list runs", err)
		return
	}
	if runs == nil {
		runs = []models.AnalysisRun{}
	}
	h.writeJSON(w, http.StatusOK, runs)
}

// GetRun returns one recorded analysis run.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, "Run history not configured. Set SCENARIO_DIR or DATABASE_URL.", http.StatusServiceUnavailable)
		return
	}

	run, err := h.store.GetRun(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeServiceError(w, "Failed to load run", err)
		return
	}
	h.writeJSON(w, http.StatusOK, run)
}
