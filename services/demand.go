// ABOUTME: Persona demand model converting a member count into per-block demand
// ABOUTME: Pure function: every total is local to one call and rounded up for the solver

package services

import (
	"fmt"
	"math"

	"github.com/obgclub/capacity-planner/models"
)

// roundingSlack absorbs float noise so an exact whole number is not pushed up a unit.
const roundingSlack = 1e-9

// ComputeDemand converts a member count into the per-block demand vector.
func ComputeDemand(members int, inventory models.TableInventory, schedule models.OperatingSchedule, personas map[string]models.PersonaProfile, policy models.DemandPolicy) (models.DemandVector, error) {
	if members < 0 {
		return models.DemandVector{}, &models.ConfigurationError{Field: "members", Reason: fmt.Sprintf("%d is negative", members)}
	}
	if err := inventory.Validate(); err != nil {
		return models.DemandVector{}, err
	}
	if err := schedule.Validate(); err != nil {
		return models.DemandVector{}, err
	}
	if err := policy.Validate(); err != nil {
		return models.DemandVector{}, err
	}
	if err := models.ValidatePersonas(personas, policy.ShareTolerance); err != nil {
		return models.DemandVector{}, err
	}

	sizes := inventory.Sizes()
	blocks := float64(schedule.BlocksPerMonth())

	reserved := make(map[int]float64, len(sizes))
	mixedSeats := 0.0
	byPersona := make(map[string]models.PersonaDemand, len(personas))

	for _, name := range models.PersonaNames(personas) {
		p := personas[name]
		population := float64(members) * p.Share

		pd := models.PersonaDemand{
			Members:        population,
			ReservedVisits: population * p.ReservedVisits,
			MixedVisits:    population * p.MixedVisits,
		}

		if p.ReservedVisits > 0 {
			size, err := RouteGroup(p.GroupSize, sizes)
			if err != nil {
				return models.DemandVector{}, fmt.Errorf("persona %s: %w", name, err)
			}
			pd.TableSize = size
			pd.ReservedTables = pd.ReservedVisits / blocks
			reserved[size] += pd.ReservedTables
		}

		// Reservations are commitments; only drop-in seating is inflated for fill inefficiency.
		pd.MixedSeats = pd.MixedVisits * p.GroupSize / blocks / policy.MixedFillFactor
		mixedSeats += pd.MixedSeats

		if !finite(pd.ReservedTables) || !finite(pd.MixedSeats) {
			return models.DemandVector{}, &models.ConfigurationError{
				Field:  "personas." + name,
				Reason: "demand is not a finite number",
			}
		}
		byPersona[name] = pd
	}

	demand := models.DemandVector{
		Members:        members,
		BlocksPerMonth: int(blocks),
		Reserved:       make(map[int]int, len(sizes)),
		MixedSeats:     wholeUnits(mixedSeats),
		ByPersona:      byPersona,
	}
	for _, size := range sizes {
		demand.Reserved[size] = wholeUnits(reserved[size])
	}

	return demand, nil
}

// ComputeScenarioDemand runs ComputeDemand with a scenario's inventory, schedule and personas.
func ComputeScenarioDemand(members int, scenario models.Scenario) (models.DemandVector, error) {
	return ComputeDemand(members, scenario.Inventory, scenario.Schedule, scenario.Personas, scenario.Demand)
}

// RouteGroup returns the table size that seats a party of the given average size.
// Parties of two or fewer go to the smallest table; larger parties go to the smallest
// table that seats them.
func RouteGroup(groupSize float64, sizes []int) (int, error) {
	if len(sizes) == 0 {
		return 0, &models.ConfigurationError{Field: "inventory", Reason: "no table sizes"}
	}
	if groupSize <= 2 {
		return sizes[0], nil
	}
	for _, size := range sizes {
		if float64(size) >= groupSize {
			return size, nil
		}
	}
	return 0, &models.ConfigurationError{
		Field:  "group_size",
		Reason: fmt.Sprintf("group of %g exceeds the largest table (%d seats)", groupSize, sizes[len(sizes)-1]),
	}
}

func wholeUnits(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(math.Ceil(v - roundingSlack))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
