// ABOUTME: Table allocation solver packing reserved and mixed demand into the inventory
// ABOUTME: Builds the mixed-integer model, solves it and re-verifies the rounded plan

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/obgclub/capacity-planner/models"
)

// DefaultSolverTimeout bounds a single solve.
const DefaultSolverTimeout = 5 * time.Second

// SolveObserver receives the outcome of every solve.
type SolveObserver interface {
	ObserveSolve(status models.SolveStatus, nodes int, elapsed time.Duration)
}

// Solver decides whether a demand vector fits a table inventory.
type Solver struct {
	policy   models.SolverPolicy
	timeout  time.Duration
	observer SolveObserver
}

// SolverOption configures a Solver.
type SolverOption func(*Solver)

// WithTimeout sets the per-solve time limit. Zero disables it.
func WithTimeout(d time.Duration) SolverOption {
	return func(s *Solver) { s.timeout = d }
}

// WithObserver reports solve outcomes to o.
func WithObserver(o SolveObserver) SolverOption {
	return func(s *Solver) { s.observer = o }
}

// NewSolver creates a solver for the given policy.
func NewSolver(policy models.SolverPolicy, opts ...SolverOption) *Solver {
	s := &Solver{policy: policy, timeout: DefaultSolverTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the solver's split and distribution policy.
func (s *Solver) Policy() models.SolverPolicy {
	return s.policy
}

// allocationModel keeps the column index of every decision variable.
type allocationModel struct {
	problem    *mipProblem
	full       map[int]int
	split      map[int]map[int]int
	mixedFull  map[int]int
	mixedSplit map[int]int
	overflow   map[int]int
}

// Solve packs the demand into the inventory. Malformed input returns a ConfigurationError;
// every solver-side failure is reported through the result.
func (s *Solver) Solve(ctx context.Context, demand models.DemandVector, inventory models.TableInventory) (models.FeasibilityResult, error) {
	if err := inventory.Validate(); err != nil {
		return models.FeasibilityResult{}, err
	}
	if err := demand.Validate(); err != nil {
		return models.FeasibilityResult{}, err
	}
	if err := s.policy.Validate(); err != nil {
		return models.FeasibilityResult{}, err
	}

	start := time.Now()
	result := s.solve(ctx, demand, inventory)
	elapsed := time.Since(start)

	if s.observer != nil {
		s.observer.ObserveSolve(result.Status, result.Nodes, elapsed)
	}
	slog.Debug("Allocation solved",
		"members", demand.Members,
		"status", result.Status,
		"nodes", result.Nodes,
		"duration", elapsed)

	return result, nil
}

func (s *Solver) solve(ctx context.Context, demand models.DemandVector, inventory models.TableInventory) models.FeasibilityResult {
	if demand.IsZero() {
		plan := emptyPlan(inventory)
		return models.FeasibilityResult{
			Feasible:    true,
			Status:      models.StatusOptimal,
			Plan:        &plan,
			Utilization: utilization(plan),
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	model := s.buildModel(demand, inventory)
	sol := solveMIP(ctx, model.problem, s.policy.NodeLimit)

	switch sol.status {
	case mipOptimal, mipFeasible:
	case mipInfeasible:
		return models.FeasibilityResult{
			Status:     models.StatusInfeasible,
			Diagnostic: "no allocation satisfies the demand within the table inventory",
			Nodes:      sol.nodes,
		}
	case mipTimeout:
		reason := "timed out"
		if errors.Is(sol.err, context.Canceled) {
			reason = "canceled"
		}
		return failure(sol.nodes, "%w: %s after %d nodes", models.ErrSolverFailure, reason, sol.nodes)
	case mipNodeLimit:
		return failure(sol.nodes, "%w: node budget of %d exhausted without a solution", models.ErrSolverFailure, s.policy.NodeLimit)
	case mipUnbounded:
		return failure(sol.nodes, "%w: relaxation is unbounded", models.ErrSolverFailure)
	default:
		return failure(sol.nodes, "%w: %v", models.ErrSolverFailure, sol.err)
	}

	plan, err := s.extractPlan(model, sol, demand, inventory)
	if err != nil {
		slog.Warn("Allocation failed verification",
			"members", demand.Members,
			"error", err)
		return models.FeasibilityResult{
			Status:     models.StatusNumericInconsistency,
			Diagnostic: err.Error(),
			Nodes:      sol.nodes,
		}
	}

	result := models.FeasibilityResult{
		Feasible:    true,
		Status:      models.StatusOptimal,
		Plan:        &plan,
		Utilization: utilization(plan),
		Nodes:       sol.nodes,
	}
	if sol.status == mipFeasible {
		result.Status = models.StatusFeasible
		result.Diagnostic = "node budget exhausted; the plan is feasible but may not be optimal"
		if sol.err != nil {
			result.Diagnostic = "search stopped early; the plan is feasible but may not be optimal"
		}
	}
	return result
}

func failure(nodes int, format string, args ...any) models.FeasibilityResult {
	return models.FeasibilityResult{
		Status:     models.StatusSolverFailure,
		Diagnostic: fmt.Errorf(format, args...).Error(),
		Nodes:      nodes,
	}
}

// buildModel formulates the allocation program. Only tables that exist and demand that is
// non-zero get variables.
func (s *Solver) buildModel(demand models.DemandVector, inventory models.TableInventory) *allocationModel {
	w := s.policy.Weights
	p := &mipProblem{}
	m := &allocationModel{
		problem:    p,
		full:       map[int]int{},
		split:      map[int]map[int]int{},
		mixedFull:  map[int]int{},
		mixedSplit: map[int]int{},
		overflow:   map[int]int{},
	}

	sizes := inventory.Sizes()
	mixed := float64(demand.MixedSeats)

	for rank, c := range sizes {
		n := inventory[c]
		if n == 0 {
			continue
		}
		weight := 1 + w.SizeStep*float64(rank)

		if demand.Reserved[c] > 0 {
			m.full[c] = p.addVar(fmt.Sprintf("full[%d]", c), weight*w.Reserved, true)
		}
		for _, b := range sizes {
			y := s.policy.Yield(c, b)
			if y == 0 || demand.Reserved[b] == 0 {
				continue
			}
			if m.split[c] == nil {
				m.split[c] = map[int]int{}
			}
			// Priced per party served so a dedicated smaller table always wins.
			m.split[c][b] = p.addVar(fmt.Sprintf("split[%d][%d]", c, b), weight*(w.Reserved+w.SplitPenalty)*float64(y), true)
		}
		if mixed > 0 {
			m.mixedFull[c] = p.addVar(fmt.Sprintf("mixed_full[%d]", c), weight*w.Mixed, true)
			if s.policy.SplitSeats(c) > 0 {
				m.mixedSplit[c] = p.addVar(fmt.Sprintf("mixed_split[%d]", c), weight*(w.Mixed+w.SplitPenalty), true)
			}
			m.overflow[c] = p.addVar(fmt.Sprintf("overflow[%d]", c), w.Overflow, false)
		}

		// Capacity: every use of the class fits its table count.
		var uses []term
		if col, ok := m.full[c]; ok {
			uses = append(uses, term{col, 1})
		}
		var splitUses []term
		for _, b := range sizes {
			if col, ok := m.split[c][b]; ok {
				splitUses = append(splitUses, term{col, 1})
			}
		}
		if col, ok := m.mixedSplit[c]; ok {
			splitUses = append(splitUses, term{col, 1})
		}
		uses = append(uses, splitUses...)
		if col, ok := m.mixedFull[c]; ok {
			uses = append(uses, term{col, 1})
		}
		if len(uses) > 0 {
			p.addRow(fmt.Sprintf("capacity[%d]", c), lessEq, float64(n), uses...)
		}

		// Whole before split: splitting c is allowed only when full[c] covers c's own demand.
		if len(splitUses) > 0 {
			y := p.addVar(fmt.Sprintf("split_allowed[%d]", c), 0, true)
			p.setUpper(y, 1)
			p.addRow(fmt.Sprintf("split_gate[%d]", c), lessEq, 0, append(splitUses, term{y, -float64(n)})...)
			if col, ok := m.full[c]; ok {
				p.addRow(fmt.Sprintf("whole_first[%d]", c), greaterEq, 0, term{col, 1}, term{y, -float64(demand.Reserved[c])})
			}
		}

		// Soft distribution ceiling for mixed seating.
		if mixed > 0 {
			row := []term{{m.mixedFull[c], float64(c)}, {m.overflow[c], -1}}
			if col, ok := m.mixedSplit[c]; ok {
				row = append(row, term{col, float64(s.policy.SplitSeats(c))})
			}
			p.addRow(fmt.Sprintf("mixed_ceiling[%d]", c), lessEq, s.policy.Ceiling(c)*mixed, row...)
		}
	}

	// Reserved coverage per bucket, fed by the bucket itself and larger split tables.
	for _, b := range demandBuckets(demand) {
		var cover []term
		if col, ok := m.full[b]; ok {
			cover = append(cover, term{col, 1})
		}
		for _, c := range sizes {
			if col, ok := m.split[c][b]; ok {
				cover = append(cover, term{col, float64(s.policy.Yield(c, b))})
			}
		}
		p.addRow(fmt.Sprintf("reserved_cover[%d]", b), greaterEq, float64(demand.Reserved[b]), cover...)
	}

	if mixed > 0 {
		var cover []term
		for _, c := range sizes {
			if col, ok := m.mixedFull[c]; ok {
				cover = append(cover, term{col, float64(c)})
			}
			if col, ok := m.mixedSplit[c]; ok {
				cover = append(cover, term{col, float64(s.policy.SplitSeats(c))})
			}
		}
		p.addRow("mixed_cover", greaterEq, mixed, cover...)
	}

	return m
}

// demandBuckets returns the sizes with non-zero reserved demand in ascending order.
func demandBuckets(demand models.DemandVector) []int {
	var buckets []int
	for size, n := range demand.Reserved {
		if n > 0 {
			buckets = append(buckets, size)
		}
	}
	sort.Ints(buckets)
	return buckets
}

// extractPlan rounds the solution and re-checks every constraint on whole numbers.
func (s *Solver) extractPlan(m *allocationModel, sol mipSolution, demand models.DemandVector, inventory models.TableInventory) (models.AllocationPlan, error) {
	value := func(col int, ok bool) (int, error) {
		if !ok {
			return 0, nil
		}
		v := sol.x[col]
		r := math.Round(v)
		if math.Abs(v-r) > integralTolerance || r < 0 {
			return 0, fmt.Errorf("%w: %s = %g is not a whole table count", models.ErrNumericInconsistency, m.problem.vars[col].name, v)
		}
		return int(r), nil
	}

	plan := models.AllocationPlan{Objective: sol.objective}
	coverage := map[int]int{}

	for _, c := range inventory.Sizes() {
		ca := models.ClassAllocation{Seats: c, Available: inventory[c]}
		var err error

		col, ok := m.full[c]
		if ca.ReservedFull, err = value(col, ok); err != nil {
			return plan, err
		}
		coverage[c] += ca.ReservedFull

		for b, col := range m.split[c] {
			n, err := value(col, true)
			if err != nil {
				return plan, err
			}
			if n == 0 {
				continue
			}
			if ca.SplitServes == nil {
				ca.SplitServes = map[int]int{}
			}
			ca.SplitServes[b] = n
			ca.ReservedSplit += n
			coverage[b] += n * s.policy.Yield(c, b)
		}

		col, ok = m.mixedFull[c]
		if ca.MixedFull, err = value(col, ok); err != nil {
			return plan, err
		}
		col, ok = m.mixedSplit[c]
		if ca.MixedSplit, err = value(col, ok); err != nil {
			return plan, err
		}
		ca.MixedSeats = ca.MixedFull*c + ca.MixedSplit*s.policy.SplitSeats(c)
		if col, ok := m.overflow[c]; ok && sol.x[col] > integralTolerance {
			ca.OverflowSeats = sol.x[col]
		}

		if ca.Used() > ca.Available {
			return plan, fmt.Errorf("%w: %d-top uses %d of %d tables", models.ErrNumericInconsistency, c, ca.Used(), ca.Available)
		}
		plan.Classes = append(plan.Classes, ca)
	}

	for b, need := range demand.Reserved {
		if coverage[b] < need {
			return plan, fmt.Errorf("%w: %d-top parties covered %d of %d", models.ErrNumericInconsistency, b, coverage[b], need)
		}
	}
	if got := plan.MixedSeats(); got < demand.MixedSeats {
		return plan, fmt.Errorf("%w: mixed seats covered %d of %d", models.ErrNumericInconsistency, got, demand.MixedSeats)
	}
	return plan, nil
}

func emptyPlan(inventory models.TableInventory) models.AllocationPlan {
	plan := models.AllocationPlan{}
	for _, c := range inventory.Sizes() {
		plan.Classes = append(plan.Classes, models.ClassAllocation{Seats: c, Available: inventory[c]})
	}
	return plan
}

// utilization returns used tables over available tables per size, in percent.
func utilization(plan models.AllocationPlan) map[int]float64 {
	util := make(map[int]float64, len(plan.Classes))
	for _, c := range plan.Classes {
		if c.Available == 0 {
			util[c.Seats] = 0
			continue
		}
		util[c.Seats] = float64(c.Used()) / float64(c.Available) * 100
	}
	return util
}
