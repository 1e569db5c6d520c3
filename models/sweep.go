// ABOUTME: Capacity sweep results across candidate member counts
// ABOUTME: MaxFeasible is nil only when no candidate was feasible

package models

import "time"

// CandidateResult pairs a member count with its demand and solver verdict.
type CandidateResult struct {
	Members int               `json:"members"`
	Demand  DemandVector      `json:"demand"`
	Result  FeasibilityResult `json:"result"`
}

// SweepResult is the outcome of evaluating every candidate.
type SweepResult struct {
	RunID       string            `json:"run_id"`
	Scenario    string            `json:"scenario"`
	Fingerprint string            `json:"fingerprint"`
	MaxFeasible *int              `json:"max_feasible"`
	Candidates  []CandidateResult `json:"candidates"`
	// MonotonicityBreaks lists candidates that were feasible after a smaller infeasible one.
	MonotonicityBreaks []int             `json:"monotonicity_breaks,omitempty"`
	Warnings           []ScenarioWarning `json:"warnings,omitempty"`
	Duration           time.Duration     `json:"duration_ns"`
	Cached             bool              `json:"cached"`
}

// HasSolverFailure reports whether any candidate stopped without a verdict.
func (s SweepResult) HasSolverFailure() bool {
	for _, c := range s.Candidates {
		if c.Result.Status == StatusSolverFailure {
			return true
		}
	}
	return false
}

// AnalysisRun is the stored summary of a sweep.
type AnalysisRun struct {
	ID          string           `json:"id"`
	Scenario    string           `json:"scenario"`
	Fingerprint string           `json:"fingerprint"`
	CreatedAt   time.Time        `json:"created_at"`
	MaxFeasible *int             `json:"max_feasible"`
	Outcomes    []CandidateBrief `json:"outcomes"`
}

// CandidateBrief is the short form of a candidate verdict.
type CandidateBrief struct {
	Members        int         `json:"members"`
	Feasible       bool        `json:"feasible"`
	Status         SolveStatus `json:"status"`
	MaxUtilization float64     `json:"max_utilization"`
	Constraint     string      `json:"constraint,omitempty"`
}

// NewAnalysisRun summarises a sweep for storage.
func NewAnalysisRun(sweep SweepResult, createdAt time.Time) AnalysisRun {
	run := AnalysisRun{
		ID:          sweep.RunID,
		Scenario:    sweep.Scenario,
		Fingerprint: sweep.Fingerprint,
		CreatedAt:   createdAt,
		MaxFeasible: sweep.MaxFeasible,
		Outcomes:    make([]CandidateBrief, 0, len(sweep.Candidates)),
	}
	for _, c := range sweep.Candidates {
		brief := CandidateBrief{
			Members:        c.Members,
			Feasible:       c.Result.Feasible,
			Status:         c.Result.Status,
			MaxUtilization: c.Result.MaxUtilization(),
		}
		if c.Result.Bottleneck != nil {
			brief.Constraint = c.Result.Bottleneck.ConstrainingResource
		}
		run.Outcomes = append(run.Outcomes, brief)
	}
	return run
}
