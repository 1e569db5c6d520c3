// ABOUTME: Capacity analysis reporter sweeping candidate member counts through demand and solve
// ABOUTME: Finds the largest feasible count and explains the bottleneck of infeasible ones

package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/obgclub/capacity-planner/models"
)

// MixedSeatingResource names the shared drop-in seating pool in bottleneck reports.
const MixedSeatingResource = "mixed seating"

// SweepObserver receives the outcome of every sweep.
type SweepObserver interface {
	ObserveSweep(candidates int, feasible bool, elapsed time.Duration)
}

// Analyzer runs demand and solve for member counts of one scenario.
type Analyzer struct {
	scenario models.Scenario
	solver   *Solver
	workers  int
	observer SweepObserver
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithWorkers bounds how many candidates are solved at once. Values below 1 mean one.
func WithWorkers(n int) AnalyzerOption {
	return func(a *Analyzer) { a.workers = n }
}

// WithSolver replaces the scenario's default solver.
func WithSolver(s *Solver) AnalyzerOption {
	return func(a *Analyzer) { a.solver = s }
}

// WithSweepObserver reports sweep outcomes to o.
func WithSweepObserver(o SweepObserver) AnalyzerOption {
	return func(a *Analyzer) { a.observer = o }
}

// NewAnalyzer creates an analyzer over a validated copy of the scenario.
func NewAnalyzer(scenario models.Scenario, opts ...AnalyzerOption) (*Analyzer, error) {
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	a := &Analyzer{
		scenario: scenario,
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.solver == nil {
		a.solver = NewSolver(scenario.Solver)
	}
	if a.workers < 1 {
		a.workers = 1
	}
	return a, nil
}

// Scenario returns the scenario under analysis.
func (a *Analyzer) Scenario() models.Scenario {
	return a.scenario
}

// Evaluate computes demand for a member count and solves it. Infeasible results carry
// a bottleneck analysis.
func (a *Analyzer) Evaluate(ctx context.Context, members int) (models.CandidateResult, error) {
	demand, err := ComputeScenarioDemand(members, a.scenario)
	if err != nil {
		return models.CandidateResult{}, err
	}

	result, err := a.solver.Solve(ctx, demand, a.scenario.Inventory)
	if err != nil {
		return models.CandidateResult{}, err
	}
	if !result.Feasible {
		bottleneck := DiagnoseBottleneck(demand, a.scenario.Inventory, a.solver.Policy())
		result.Bottleneck = &bottleneck
	}

	return models.CandidateResult{Members: members, Demand: demand, Result: result}, nil
}

// FindMaxFeasible evaluates every candidate in ascending order and reports the largest
// feasible one. A configuration error aborts the sweep; solver failures do not.
func (a *Analyzer) FindMaxFeasible(ctx context.Context, candidates []int) (models.SweepResult, error) {
	start := time.Now()

	ordered := make([]int, len(candidates))
	copy(ordered, candidates)
	sort.Ints(ordered)
	for _, c := range ordered {
		if c < 0 {
			return models.SweepResult{}, &models.ConfigurationError{Field: "candidates", Reason: fmt.Sprintf("member count %d is negative", c)}
		}
	}

	results := make([]models.CandidateResult, len(ordered))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, members := range ordered {
		g.Go(func() error {
			res, err := a.Evaluate(gctx, members)
			if err != nil {
				return fmt.Errorf("candidate %d: %w", members, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.SweepResult{}, err
	}

	sweep := models.SweepResult{
		RunID:              uuid.NewString(),
		Scenario:           a.scenario.Name,
		Fingerprint:        a.scenario.Fingerprint(),
		Candidates:         results,
		MonotonicityBreaks: MonotonicityBreaks(results),
		Duration:           time.Since(start),
	}
	for _, r := range results {
		if r.Result.Feasible {
			members := r.Members
			sweep.MaxFeasible = &members
		}
	}
	sweep.Warnings = sweepWarnings(sweep)

	if a.observer != nil {
		a.observer.ObserveSweep(len(results), sweep.MaxFeasible != nil, sweep.Duration)
	}
	slog.Info("Sweep completed",
		"scenario", a.scenario.Name,
		"run_id", sweep.RunID,
		"candidates", len(results),
		"max_feasible", maxFeasibleAttr(sweep.MaxFeasible),
		"duration", sweep.Duration)

	return sweep, nil
}

func maxFeasibleAttr(v *int) any {
	if v == nil {
		return "none"
	}
	return *v
}

// MonotonicityBreaks returns the member counts that are feasible although a smaller
// candidate was not. Results must be in ascending member order.
func MonotonicityBreaks(results []models.CandidateResult) []int {
	var breaks []int
	seenInfeasible := false
	for _, r := range results {
		if !r.Result.Feasible {
			seenInfeasible = true
			continue
		}
		if seenInfeasible {
			breaks = append(breaks, r.Members)
		}
	}
	return breaks
}

func sweepWarnings(sweep models.SweepResult) []models.ScenarioWarning {
	var warnings []models.ScenarioWarning
	if sweep.MaxFeasible == nil && len(sweep.Candidates) > 0 {
		warnings = append(warnings, models.ScenarioWarning{
			Severity: "critical",
			Message:  "No candidate member count fits the table inventory.",
		})
	}
	if len(sweep.MonotonicityBreaks) > 0 {
		warnings = append(warnings, models.ScenarioWarning{
			Severity: "warning",
			Message:  fmt.Sprintf("Feasibility is not monotonic: %v feasible after a smaller infeasible count.", sweep.MonotonicityBreaks),
		})
	}
	for _, c := range sweep.Candidates {
		if c.Result.Status == models.StatusSolverFailure || c.Result.Status == models.StatusNumericInconsistency {
			warnings = append(warnings, models.ScenarioWarning{
				Severity: "warning",
				Message:  fmt.Sprintf("%d members: %s", c.Members, c.Result.Diagnostic),
			})
		}
	}
	return warnings
}

// DiagnoseBottleneck ranks every table size and the mixed seating pool by demand over
// capacity and names the persona contributing most to each.
func DiagnoseBottleneck(demand models.DemandVector, inventory models.TableInventory, policy models.SolverPolicy) models.BottleneckAnalysis {
	sizes := inventory.Sizes()
	var resources []models.ResourceUtilization

	// Only reserved parties that can be seated take seats away from drop-in seating.
	seatedReserved := 0
	for _, b := range sizes {
		need := demand.Reserved[b]

		// Parties of size b a block can seat: its own tables plus every split larger table.
		capacity := inventory[b]
		for _, c := range sizes {
			capacity += policy.Yield(c, b) * inventory[c]
		}
		seatedReserved += min(need, capacity) * b
		if need == 0 && capacity == 0 {
			continue
		}

		r := models.ResourceUtilization{
			Name:          tableName(b),
			TotalCapacity: capacity,
			UsedCapacity:  need,
			Unit:          "tables",
		}
		if capacity == 0 {
			r.NoCapacity = true
		} else {
			r.UsedPercent = float64(need) / float64(capacity) * 100
		}
		r.TopPersona, r.TopPersonaShare = topContributor(demand.ByPersona, func(pd models.PersonaDemand) float64 {
			if pd.TableSize != b {
				return 0
			}
			return pd.ReservedTables
		})
		resources = append(resources, r)
	}

	// Seats left for drop-in seating once the seatable reserved parties are in.
	total := inventory.TotalSeats()
	free := max(total-seatedReserved, 0)
	if demand.MixedSeats > 0 || free > 0 {
		r := models.ResourceUtilization{
			Name:          MixedSeatingResource,
			TotalCapacity: free,
			UsedCapacity:  demand.MixedSeats,
			Unit:          "seats",
		}
		switch {
		case free > 0:
			r.UsedPercent = float64(demand.MixedSeats) / float64(free) * 100
		case total > 0:
			// Reserved parties fill the room; measure drop-ins against the whole room.
			r.UsedPercent = float64(seatedReserved+demand.MixedSeats) / float64(total) * 100
		default:
			r.NoCapacity = demand.MixedSeats > 0
		}
		r.TopPersona, r.TopPersonaShare = topContributor(demand.ByPersona, func(pd models.PersonaDemand) float64 {
			return pd.MixedSeats
		})
		resources = append(resources, r)
	}

	return models.AnalyzeBottleneck(resources)
}

// topContributor returns the persona with the largest share of a demand measure.
// Ties go to the alphabetically first persona.
func topContributor(byPersona map[string]models.PersonaDemand, measure func(models.PersonaDemand) float64) (string, float64) {
	names := make([]string, 0, len(byPersona))
	for name := range byPersona {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0.0
	best, bestValue := "", 0.0
	for _, name := range names {
		v := measure(byPersona[name])
		total += v
		if v > bestValue {
			best, bestValue = name, v
		}
	}
	if best == "" || total == 0 {
		return "", 0
	}
	return best, bestValue / total
}

func tableName(seats int) string {
	return fmt.Sprintf("%d-top", seats)
}
