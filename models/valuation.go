// ABOUTME: Membership plan catalog, pricing constants and valuation results
// ABOUTME: Consumed by plan valuation and the monthly revenue projection

package models

import (
	"fmt"
	"math"
)

// PlanFeatures are the benefits bundled with a membership plan.
type PlanFeatures struct {
	GuestPasses       int     `json:"guest_passes"`
	RetailDiscount    float64 `json:"retail_discount"`
	SnackDiscount     float64 `json:"snack_discount"`
	MixedAccess       bool    `json:"mixed_access"`
	AdditionalMembers int     `json:"additional_members"`
	GameCheckouts     int     `json:"game_checkouts"`
}

// Plan is a membership tier.
type Plan struct {
	Name     string       `json:"name"`
	Price    float64      `json:"price"`
	Features PlanFeatures `json:"features"`
}

// FeatureList renders the plan's benefits as display strings.
func (p Plan) FeatureList() []string {
	f := p.Features
	var list []string
	if f.GuestPasses > 0 {
		list = append(list, plural(f.GuestPasses, "Guest Pass", "Guest Passes"))
	}
	if f.RetailDiscount > 0 {
		list = append(list, fmt.Sprintf("%.0f%% Retail Discount", f.RetailDiscount*100))
	}
	if f.MixedAccess {
		list = append(list, "Mixed Event Access")
	}
	if f.AdditionalMembers > 0 {
		list = append(list, plural(f.AdditionalMembers, "Additional Member", "Additional Members"))
	}
	if f.GameCheckouts > 0 {
		list = append(list, plural(f.GameCheckouts, "Game Checkout", "Game Checkouts"))
	}
	return list
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

// Validate checks plan price and features.
func (p Plan) Validate() error {
	if p.Name == "" {
		return &ConfigurationError{Field: "plans", Reason: "plan name is required"}
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0 {
		return &ConfigurationError{Field: "plans." + p.Name + ".price", Reason: "must be a positive number"}
	}
	f := p.Features
	if f.GuestPasses < 0 || f.AdditionalMembers < 0 || f.GameCheckouts < 0 {
		return &ConfigurationError{Field: "plans." + p.Name, Reason: "feature counts must not be negative"}
	}
	for _, d := range []float64{f.RetailDiscount, f.SnackDiscount} {
		if math.IsNaN(d) || d < 0 || d >= 1 {
			return &ConfigurationError{Field: "plans." + p.Name, Reason: "discounts must be in [0, 1)"}
		}
	}
	return nil
}

// Pricing holds the business constants used by valuation and revenue.
type Pricing struct {
	GuestPrice              float64 `json:"guest_price"`
	BaseVisitValue          float64 `json:"base_visit_value"`
	MixedValue              float64 `json:"mixed_value"`
	GameCheckoutValue       float64 `json:"game_checkout_value"`
	BaseValueCap            float64 `json:"base_value_cap"`
	GuestSpendingMultiplier float64 `json:"guest_spending_multiplier"`
}

// Validate checks the constants are finite and non-negative.
func (p Pricing) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"pricing.guest_price", p.GuestPrice},
		{"pricing.base_visit_value", p.BaseVisitValue},
		{"pricing.mixed_value", p.MixedValue},
		{"pricing.game_checkout_value", p.GameCheckoutValue},
		{"pricing.base_value_cap", p.BaseValueCap},
		{"pricing.guest_spending_multiplier", p.GuestSpendingMultiplier},
	} {
		if err := checkNonNegative(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// PlanValuation is the stand-alone value of a plan.
type PlanValuation struct {
	Plan     string   `json:"plan"`
	Price    float64  `json:"price"`
	Value    float64  `json:"value"`
	Ratio    float64  `json:"ratio"`
	Features []string `json:"features"`
}

// ValueBreakdown is what one plan is worth to one persona per month.
type ValueBreakdown struct {
	Visit      float64 `json:"visit"`
	Guest      float64 `json:"guest"`
	Retail     float64 `json:"retail"`
	Game       float64 `json:"game"`
	Additional float64 `json:"additional"`
	Event      float64 `json:"event"`
	Total      float64 `json:"total"`
}

// PersonaValuation is a persona's value ratio for one plan.
type PersonaValuation struct {
	Persona string         `json:"persona"`
	Plan    string         `json:"plan"`
	Value   ValueBreakdown `json:"value"`
	Ratio   float64        `json:"ratio"`
}

// PlanFit summarises which personas get good value from which plans.
type PlanFit struct {
	// ByPlan lists personas whose value ratio exceeds 1 for the plan.
	ByPlan map[string][]string `json:"by_plan"`
	// ByPersona lists plans with a value ratio above 1 for the persona.
	ByPersona map[string][]string `json:"by_persona"`
	// TopPlans holds each persona's two best plans by ratio.
	TopPlans map[string][]string `json:"top_plans"`
	// TopPicks lists, per plan, the personas that rank it among their two best.
	TopPicks map[string][]string `json:"top_picks"`
	Ratios   []PersonaValuation  `json:"ratios"`
}

// PersonaRevenue is the monthly revenue attributed to one persona. Component fields
// are per member; Total covers every member of the persona.
type PersonaRevenue struct {
	Persona    string  `json:"persona"`
	Plan       string  `json:"plan"`
	Members    float64 `json:"members"`
	Membership float64 `json:"membership"`
	Guest      float64 `json:"guest"`
	Mixed      float64 `json:"mixed"`
	Snacks     float64 `json:"snacks"`
	Retail     float64 `json:"retail"`
	PerMember  float64 `json:"per_member"`
	Total      float64 `json:"total"`
}

// Extras returns the per-member revenue beyond the membership fee.
func (r PersonaRevenue) Extras() float64 {
	return r.Guest + r.Mixed + r.Snacks + r.Retail
}

// RevenueProjection is the monthly revenue at a member count.
type RevenueProjection struct {
	Members    int              `json:"members"`
	Personas   []PersonaRevenue `json:"personas"`
	Membership float64          `json:"membership"`
	Guest      float64          `json:"guest"`
	Mixed      float64          `json:"mixed"`
	Snacks     float64          `json:"snacks"`
	Retail     float64          `json:"retail"`
	Total      float64          `json:"total"`
}
