// ABOUTME: Demand vector produced for a member count and the policy that shapes it
// ABOUTME: Solver-facing totals are whole units; per-persona attribution keeps fractions

package models

import "fmt"

// PersonaDemand attributes per-block demand to a single persona.
type PersonaDemand struct {
	Members        float64 `json:"members"`
	ReservedVisits float64 `json:"reserved_visits"`
	MixedVisits    float64 `json:"mixed_visits"`
	TableSize      int     `json:"table_size"`
	ReservedTables float64 `json:"reserved_tables"`
	MixedSeats     float64 `json:"mixed_seats"`
}

// DemandVector is the per-block demand handed to the solver.
type DemandVector struct {
	Members        int                      `json:"members"`
	BlocksPerMonth int                      `json:"blocks_per_month"`
	Reserved       map[int]int              `json:"reserved"`
	MixedSeats     int                      `json:"mixed_seats"`
	ByPersona      map[string]PersonaDemand `json:"by_persona"`
}

// IsZero reports whether no tables or seats are demanded.
func (d DemandVector) IsZero() bool {
	if d.MixedSeats != 0 {
		return false
	}
	for _, n := range d.Reserved {
		if n != 0 {
			return false
		}
	}
	return true
}

// ReservedTotal returns the reserved tables demanded across all sizes.
func (d DemandVector) ReservedTotal() int {
	total := 0
	for _, n := range d.Reserved {
		total += n
	}
	return total
}

// Validate rejects negative components.
func (d DemandVector) Validate() error {
	for size, n := range d.Reserved {
		if n < 0 {
			return &ConfigurationError{Field: fmt.Sprintf("demand.reserved[%d]", size), Reason: "is negative"}
		}
	}
	if d.MixedSeats < 0 {
		return &ConfigurationError{Field: "demand.mixed_seats", Reason: "is negative"}
	}
	return nil
}

// DemandPolicy tunes the demand model.
type DemandPolicy struct {
	// MixedFillFactor is the realistic fill rate of mixed seating (0 < f <= 1).
	// Mixed seat demand is divided by it.
	MixedFillFactor float64 `json:"mixed_fill_factor"`
	ShareTolerance  float64 `json:"share_tolerance"`
}

// DefaultDemandPolicy returns the stock demand policy.
func DefaultDemandPolicy() DemandPolicy {
	return DemandPolicy{
		MixedFillFactor: 0.85,
		ShareTolerance:  0.01,
	}
}

// Validate checks the fill factor range.
func (p DemandPolicy) Validate() error {
	if err := checkNonNegative("demand.mixed_fill_factor", p.MixedFillFactor); err != nil {
		return err
	}
	if p.MixedFillFactor == 0 || p.MixedFillFactor > 1 {
		return &ConfigurationError{Field: "demand.mixed_fill_factor", Reason: fmt.Sprintf("%g must be in (0, 1]", p.MixedFillFactor)}
	}
	return checkNonNegative("demand.share_tolerance", p.ShareTolerance)
}
