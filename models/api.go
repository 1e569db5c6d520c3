// ABOUTME: Request and response bodies of the HTTP API
// ABOUTME: Shared by the handlers and the CLI's JSON output

package models

// MembersInput asks for demand or feasibility at one member count.
type MembersInput struct {
	Members int `json:"members"`
}

// SolveInput solves either an explicit demand vector or the demand of a member count.
type SolveInput struct {
	Members *int          `json:"members,omitempty"`
	Demand  *DemandVector `json:"demand,omitempty"`
}

// SweepInput lists the member counts to sweep. Empty means the scenario's candidates.
type SweepInput struct {
	Candidates []int `json:"candidates"`
}

// HealthResponse reports the service and its optional backends.
type HealthResponse struct {
	Status      string `json:"status"`
	Scenario    string `json:"scenario"`
	Fingerprint string `json:"fingerprint"`
	Store       string `json:"store"`
	Cache       string `json:"cache"`
}

// PlanCatalog is the plan list with value ratios and persona fit.
type PlanCatalog struct {
	Plans []PlanValuation `json:"plans"`
	Fit   PlanFit         `json:"fit"`
}

// PersonaSummary is one persona with its best-value plan.
type PersonaSummary struct {
	Name     string         `json:"name"`
	Profile  PersonaProfile `json:"profile"`
	BestPlan string         `json:"best_plan,omitempty"`
	Ratio    float64        `json:"ratio"`
}

// ScenarioList names the stored scenarios and the active one.
type ScenarioList struct {
	Active    string   `json:"active"`
	Scenarios []string `json:"scenarios"`
}
