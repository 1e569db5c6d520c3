// ABOUTME: Membership plan valuation: plan value, persona value and value ratios
// ABOUTME: Picks the best plan per persona and summarises plan fit

package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/obgclub/capacity-planner/models"
)

const (
	// Guest passes are worth a quarter less than the member's own visit.
	guestPassValueRate = 0.75
	// Plans with at least familyMemberThreshold extra members value each one higher.
	familyMemberThreshold = 3
	familyMemberRate      = 0.75
	memberRate            = 0.5
)

// ValueCalculator prices plans against personas for one scenario.
type ValueCalculator struct {
	pricing  models.Pricing
	plans    []models.Plan
	personas map[string]models.PersonaProfile
}

// NewValueCalculator creates a calculator over the scenario's plans and personas.
func NewValueCalculator(scenario models.Scenario) *ValueCalculator {
	return &ValueCalculator{
		pricing:  scenario.Pricing,
		plans:    scenario.Plans,
		personas: scenario.Personas,
	}
}

// PlanValue returns the capped stand-alone value of a plan.
func (c *ValueCalculator) PlanValue(plan models.Plan) models.PlanValuation {
	f := plan.Features
	value := c.pricing.BaseVisitValue
	value += float64(f.GuestPasses) * c.pricing.GuestPrice
	if f.MixedAccess {
		value += c.pricing.MixedValue
	}
	value += float64(f.GameCheckouts) * c.pricing.GameCheckoutValue
	value = math.Min(value, c.pricing.BaseValueCap)

	return models.PlanValuation{
		Plan:     plan.Name,
		Price:    plan.Price,
		Value:    value,
		Ratio:    value / plan.Price,
		Features: plan.FeatureList(),
	}
}

// PlanValues returns PlanValue for every plan in catalog order.
func (c *ValueCalculator) PlanValues() []models.PlanValuation {
	values := make([]models.PlanValuation, 0, len(c.plans))
	for _, p := range c.plans {
		values = append(values, c.PlanValue(p))
	}
	return values
}

// PersonaValue returns what a plan is worth to a persona per month.
func (c *ValueCalculator) PersonaValue(plan models.Plan, persona models.PersonaProfile) models.ValueBreakdown {
	f := plan.Features
	visits := persona.TotalVisits()

	var v models.ValueBreakdown
	v.Visit = visits * persona.PricePerVisit
	v.Guest = math.Min(float64(f.GuestPasses), persona.GuestsPerMonth) * persona.PricePerVisit * guestPassValueRate
	// Monthly retail spend is assumed to match the visit value.
	v.Retail = v.Visit * f.RetailDiscount
	v.Game = math.Min(float64(f.GameCheckouts), persona.GameCheckouts) * c.pricing.GameCheckoutValue

	rate := memberRate
	if f.AdditionalMembers >= familyMemberThreshold {
		rate = familyMemberRate
	}
	v.Additional = float64(f.AdditionalMembers) * v.Visit * rate
	if f.MixedAccess {
		v.Event = c.pricing.MixedValue
	}

	v.Total = v.Visit + v.Guest + v.Retail + v.Game + v.Additional + v.Event
	return v
}

// ValueRatio returns the persona's value for the plan divided by the plan price.
func (c *ValueCalculator) ValueRatio(personaName, planName string) (float64, error) {
	persona, plan, err := c.lookup(personaName, planName)
	if err != nil {
		return 0, err
	}
	return c.PersonaValue(plan, persona).Total / plan.Price, nil
}

// BestPlanFor returns the plan with the highest value ratio for the persona.
// Ties go to the plan listed first.
func (c *ValueCalculator) BestPlanFor(personaName string) (models.PersonaValuation, error) {
	persona, ok := c.personas[personaName]
	if !ok {
		return models.PersonaValuation{}, &models.ConfigurationError{Field: "persona", Reason: fmt.Sprintf("unknown persona %q", personaName)}
	}
	if len(c.plans) == 0 {
		return models.PersonaValuation{}, &models.ConfigurationError{Field: "plans", Reason: "no plans configured"}
	}

	var best models.PersonaValuation
	for i, plan := range c.plans {
		v := c.valuation(personaName, persona, plan)
		if i == 0 || v.Ratio > best.Ratio {
			best = v
		}
	}
	return best, nil
}

// PlanFit reports, for every persona and plan, the value ratio and the good matches.
func (c *ValueCalculator) PlanFit() models.PlanFit {
	fit := models.PlanFit{
		ByPlan:    map[string][]string{},
		ByPersona: map[string][]string{},
		TopPlans:  map[string][]string{},
		TopPicks:  map[string][]string{},
	}

	for _, name := range models.PersonaNames(c.personas) {
		persona := c.personas[name]
		ratios := make([]models.PersonaValuation, 0, len(c.plans))
		for _, plan := range c.plans {
			v := c.valuation(name, persona, plan)
			ratios = append(ratios, v)
			fit.Ratios = append(fit.Ratios, v)
			if v.Ratio > 1 {
				fit.ByPlan[plan.Name] = append(fit.ByPlan[plan.Name], name)
				fit.ByPersona[name] = append(fit.ByPersona[name], plan.Name)
			}
		}

		sort.SliceStable(ratios, func(i, j int) bool {
			return ratios[i].Ratio > ratios[j].Ratio
		})
		for i := 0; i < len(ratios) && i < 2; i++ {
			fit.TopPlans[name] = append(fit.TopPlans[name], ratios[i].Plan)
			fit.TopPicks[ratios[i].Plan] = append(fit.TopPicks[ratios[i].Plan], name)
		}
	}

	return fit
}

func (c *ValueCalculator) valuation(name string, persona models.PersonaProfile, plan models.Plan) models.PersonaValuation {
	value := c.PersonaValue(plan, persona)
	return models.PersonaValuation{
		Persona: name,
		Plan:    plan.Name,
		Value:   value,
		Ratio:   value.Total / plan.Price,
	}
}

func (c *ValueCalculator) lookup(personaName, planName string) (models.PersonaProfile, models.Plan, error) {
	persona, ok := c.personas[personaName]
	if !ok {
		return models.PersonaProfile{}, models.Plan{}, &models.ConfigurationError{Field: "persona", Reason: fmt.Sprintf("unknown persona %q", personaName)}
	}
	for _, p := range c.plans {
		if p.Name == planName {
			return persona, p, nil
		}
	}
	return models.PersonaProfile{}, models.Plan{}, &models.ConfigurationError{Field: "plan", Reason: fmt.Sprintf("unknown plan %q", planName)}
}
