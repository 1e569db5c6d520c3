// ABOUTME: Monthly revenue projection at the largest feasible member count
// ABOUTME: Each persona buys its best-value plan; extras come from guests, snacks and retail

package services

import (
	"errors"
	"fmt"

	"github.com/obgclub/capacity-planner/models"
)

// ErrNoFeasibleCapacity is returned when a sweep found no feasible member count.
var ErrNoFeasibleCapacity = errors.New("no feasible member capacity found")

// RevenuePlanner projects monthly revenue for a scenario.
type RevenuePlanner struct {
	scenario models.Scenario
	values   *ValueCalculator
}

// NewRevenuePlanner creates a revenue planner for the scenario.
func NewRevenuePlanner(scenario models.Scenario) *RevenuePlanner {
	return &RevenuePlanner{
		scenario: scenario,
		values:   NewValueCalculator(scenario),
	}
}

// ProjectSweep projects revenue at the sweep's largest feasible member count.
func (r *RevenuePlanner) ProjectSweep(sweep models.SweepResult) (models.RevenueProjection, error) {
	if sweep.MaxFeasible == nil {
		return models.RevenueProjection{}, ErrNoFeasibleCapacity
	}
	return r.Project(*sweep.MaxFeasible)
}

// Project returns the monthly revenue at the given member count.
func (r *RevenuePlanner) Project(members int) (models.RevenueProjection, error) {
	if members < 0 {
		return models.RevenueProjection{}, &models.ConfigurationError{Field: "members", Reason: fmt.Sprintf("%d is negative", members)}
	}
	pricing := r.scenario.Pricing
	projection := models.RevenueProjection{Members: members}

	for _, name := range models.PersonaNames(r.scenario.Personas) {
		persona := r.scenario.Personas[name]
		best, err := r.values.BestPlanFor(name)
		if err != nil {
			return models.RevenueProjection{}, err
		}
		plan, _ := r.scenario.Plan(best.Plan)
		f := plan.Features

		pr := models.PersonaRevenue{
			Persona:    name,
			Plan:       plan.Name,
			Members:    float64(members) * persona.Share,
			Membership: plan.Price,
			Guest:      persona.GuestsPerMonth * pricing.GuestPrice * pricing.GuestSpendingMultiplier,
			Snacks:     persona.TotalVisits() * persona.SnackPerVisit * (1 - f.SnackDiscount),
			Retail:     persona.RetailMonthly * (1 - f.RetailDiscount),
		}
		if f.MixedAccess {
			pr.Mixed = persona.MixedVisits * pricing.GuestPrice
		}
		pr.PerMember = pr.Membership + pr.Extras()
		pr.Total = pr.PerMember * pr.Members

		projection.Personas = append(projection.Personas, pr)
		projection.Membership += pr.Membership * pr.Members
		projection.Guest += pr.Guest * pr.Members
		projection.Mixed += pr.Mixed * pr.Members
		projection.Snacks += pr.Snacks * pr.Members
		projection.Retail += pr.Retail * pr.Members
	}

	projection.Total = projection.Membership + projection.Guest + projection.Mixed + projection.Snacks + projection.Retail
	return projection, nil
}
