// ABOUTME: Allocation plan, feasibility result and the solver policy knobs
// ABOUTME: Split yields and mixed-seating ceilings are configuration, not code

package models

import (
	"fmt"
	"math"
	"sort"
)

// SolveStatus tags how a solve ended.
type SolveStatus string

const (
	StatusOptimal              SolveStatus = "optimal"
	StatusFeasible             SolveStatus = "feasible"
	StatusInfeasible           SolveStatus = "infeasible"
	StatusSolverFailure        SolveStatus = "solver_failure"
	StatusNumericInconsistency SolveStatus = "numeric_inconsistency"
	StatusConfigurationError   SolveStatus = "configuration_error"
)

// ObjectiveWeights are the per-table weights of the allocation objective.
type ObjectiveWeights struct {
	Reserved     float64 `json:"reserved"`
	Mixed        float64 `json:"mixed"`
	SplitPenalty float64 `json:"split_penalty"`
	SizeStep     float64 `json:"size_step"`
	Overflow     float64 `json:"overflow"`
}

// SolverPolicy configures split eligibility, mixed-seating distribution and search limits.
type SolverPolicy struct {
	// SplitYields maps a host table size to the parties of each smaller size it can seat when split.
	SplitYields map[int]map[int]int `json:"split_yields"`
	// MixedSplitSeats is the seat count of a table split for mixed seating.
	// Sizes not listed lose two seats to the shared edges.
	MixedSplitSeats map[int]int `json:"mixed_split_seats"`
	// MixedCeilings caps the share of mixed seat demand one table size may carry.
	MixedCeilings  map[int]float64 `json:"mixed_ceilings"`
	DefaultCeiling float64         `json:"default_ceiling"`
	Weights        ObjectiveWeights `json:"weights"`
	NodeLimit      int              `json:"node_limit"`
}

// DefaultSolverPolicy returns the stock split and distribution policy.
func DefaultSolverPolicy() SolverPolicy {
	return SolverPolicy{
		SplitYields: map[int]map[int]int{
			4: {2: 2},
			6: {2: 3, 4: 1},
			8: {2: 4, 4: 2, 6: 1},
		},
		MixedSplitSeats: map[int]int{},
		MixedCeilings: map[int]float64{
			2: 0.45,
			4: 0.40,
			6: 0.30,
			8: 0.25,
		},
		DefaultCeiling: 0.40,
		Weights: ObjectiveWeights{
			Reserved:     1.0,
			Mixed:        0.5,
			SplitPenalty: 0.1,
			SizeStep:     0.05,
			Overflow:     10,
		},
		NodeLimit: 5000,
	}
}

// Yield returns how many parties of size bucket a split host table seats.
func (p SolverPolicy) Yield(host, bucket int) int {
	if bucket >= host {
		return 0
	}
	return p.SplitYields[host][bucket]
}

// SplitSeats returns the mixed seats offered by a split table of the given size.
func (p SolverPolicy) SplitSeats(size int) int {
	if seats, ok := p.MixedSplitSeats[size]; ok {
		return seats
	}
	if size <= 2 {
		return 0
	}
	return size - 2
}

// Ceiling returns the mixed-seating ceiling fraction for a table size.
func (p SolverPolicy) Ceiling(size int) float64 {
	if c, ok := p.MixedCeilings[size]; ok {
		return c
	}
	return p.DefaultCeiling
}

// Validate checks yields, ceilings and weights.
func (p SolverPolicy) Validate() error {
	for host, yields := range p.SplitYields {
		for bucket, n := range yields {
			if bucket <= 0 || bucket >= host {
				return &ConfigurationError{Field: fmt.Sprintf("solver.split_yields[%d]", host), Reason: fmt.Sprintf("bucket %d must be smaller than the host table", bucket)}
			}
			if n < 0 || n*bucket > host {
				return &ConfigurationError{Field: fmt.Sprintf("solver.split_yields[%d][%d]", host, bucket), Reason: fmt.Sprintf("%d parties do not fit", n)}
			}
		}
	}
	for size, seats := range p.MixedSplitSeats {
		if seats < 0 || seats > size {
			return &ConfigurationError{Field: fmt.Sprintf("solver.mixed_split_seats[%d]", size), Reason: fmt.Sprintf("%d seats out of range", seats)}
		}
	}
	for size, c := range p.MixedCeilings {
		if math.IsNaN(c) || c < 0 || c > 1 {
			return &ConfigurationError{Field: fmt.Sprintf("solver.mixed_ceilings[%d]", size), Reason: fmt.Sprintf("%g must be in [0, 1]", c)}
		}
	}
	if math.IsNaN(p.DefaultCeiling) || p.DefaultCeiling < 0 || p.DefaultCeiling > 1 {
		return &ConfigurationError{Field: "solver.default_ceiling", Reason: "must be in [0, 1]"}
	}
	w := p.Weights
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"reserved", w.Reserved}, {"mixed", w.Mixed}, {"split_penalty", w.SplitPenalty},
		{"size_step", w.SizeStep}, {"overflow", w.Overflow},
	} {
		if err := checkNonNegative("solver.weights."+f.name, f.value); err != nil {
			return err
		}
	}
	if p.NodeLimit < 0 {
		return &ConfigurationError{Field: "solver.node_limit", Reason: "is negative"}
	}
	return nil
}

// ClassAllocation is the solver's use of one table size during a block.
type ClassAllocation struct {
	Seats         int `json:"seats"`
	Available     int `json:"available"`
	ReservedFull  int `json:"reserved_full"`
	ReservedSplit int `json:"reserved_split"`
	// SplitServes breaks ReservedSplit down by the party size served.
	SplitServes   map[int]int `json:"split_serves,omitempty"`
	MixedFull     int         `json:"mixed_full"`
	MixedSplit    int         `json:"mixed_split"`
	MixedSeats    int         `json:"mixed_seats"`
	OverflowSeats float64     `json:"overflow_seats,omitempty"`
}

// Used returns the tables assigned across all four uses.
func (c ClassAllocation) Used() int {
	return c.ReservedFull + c.ReservedSplit + c.MixedFull + c.MixedSplit
}

// AllocationPlan is the per-size breakdown of a feasible solve.
type AllocationPlan struct {
	Classes   []ClassAllocation `json:"classes"`
	Objective float64           `json:"objective"`
}

// Class returns the allocation for a table size.
func (p AllocationPlan) Class(size int) (ClassAllocation, bool) {
	for _, c := range p.Classes {
		if c.Seats == size {
			return c, true
		}
	}
	return ClassAllocation{}, false
}

// MixedSeats returns the mixed seats provided across all sizes.
func (p AllocationPlan) MixedSeats() int {
	total := 0
	for _, c := range p.Classes {
		total += c.MixedSeats
	}
	return total
}

// FeasibilityResult is the verdict of one solve. Plan and Utilization are set only when feasible.
type FeasibilityResult struct {
	Feasible    bool                `json:"feasible"`
	Status      SolveStatus         `json:"status"`
	Plan        *AllocationPlan     `json:"plan,omitempty"`
	Utilization map[int]float64     `json:"utilization,omitempty"`
	Diagnostic  string              `json:"diagnostic,omitempty"`
	Bottleneck  *BottleneckAnalysis `json:"bottleneck,omitempty"`
	Nodes       int                 `json:"nodes"`
}

// MaxUtilization returns the highest per-size utilization.
func (r FeasibilityResult) MaxUtilization() float64 {
	maxPct := 0.0
	for _, pct := range r.Utilization {
		maxPct = math.Max(maxPct, pct)
	}
	return maxPct
}

// UtilizationSizes returns the sizes present in Utilization in ascending order.
func (r FeasibilityResult) UtilizationSizes() []int {
	sizes := make([]int, 0, len(r.Utilization))
	for size := range r.Utilization {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}
