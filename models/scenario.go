// ABOUTME: Scenario snapshot bundling inventory, schedule, personas and policies
// ABOUTME: Passed by value into every analysis; fingerprinted for result caching

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Scenario is the immutable configuration snapshot of one analysis run.
type Scenario struct {
	Name       string                    `json:"name"`
	Inventory  TableInventory            `json:"inventory"`
	Schedule   OperatingSchedule         `json:"schedule"`
	Personas   map[string]PersonaProfile `json:"personas"`
	Demand     DemandPolicy              `json:"demand"`
	Solver     SolverPolicy              `json:"solver"`
	Pricing    Pricing                   `json:"pricing"`
	Plans      []Plan                    `json:"plans"`
	Candidates []int                     `json:"candidates"`
}

// Validate checks every part of the scenario.
func (s Scenario) Validate() error {
	if err := s.Inventory.Validate(); err != nil {
		return err
	}
	if err := s.Schedule.Validate(); err != nil {
		return err
	}
	if err := s.Demand.Validate(); err != nil {
		return err
	}
	if err := ValidatePersonas(s.Personas, s.Demand.ShareTolerance); err != nil {
		return err
	}
	if err := s.Solver.Validate(); err != nil {
		return err
	}
	if err := s.Pricing.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(s.Plans))
	for _, p := range s.Plans {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return &ConfigurationError{Field: "plans", Reason: fmt.Sprintf("duplicate plan %q", p.Name)}
		}
		seen[p.Name] = true
	}
	for _, c := range s.Candidates {
		if c < 0 {
			return &ConfigurationError{Field: "candidates", Reason: fmt.Sprintf("member count %d is negative", c)}
		}
	}
	return nil
}

// Plan returns the named plan.
func (s Scenario) Plan(name string) (Plan, bool) {
	for _, p := range s.Plans {
		if p.Name == name {
			return p, true
		}
	}
	return Plan{}, false
}

// Fingerprint returns a short stable hash of the scenario contents.
func (s Scenario) Fingerprint() string {
	// encoding/json sorts map keys, so equal scenarios hash equally.
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// ScenarioWarning represents a notable finding alongside a result
type ScenarioWarning struct {
	Severity string `json:"severity"` // "info", "warning", "critical"
	Message  string `json:"message"`
}
