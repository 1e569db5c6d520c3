// ABOUTME: Shared fixtures for services tests
// ABOUTME: Small schedules, inventories and persona sets with hand-checkable demand

package services

import (
	"testing"

	"github.com/obgclub/capacity-planner/models"
)

// schedule82 yields 82 blocks per month: 3 blocks on 21.65 weekdays, 2 on 8.66 weekend days.
func schedule82() models.OperatingSchedule {
	return models.OperatingSchedule{
		WeekdayHours:        9,
		WeekendHours:        6,
		WeekdaysPerMonth:    21.65,
		WeekendDaysPerMonth: 8.66,
		BlockHours:          3,
	}
}

func singlePersona(p models.PersonaProfile) map[string]models.PersonaProfile {
	p.Share = 1
	return map[string]models.PersonaProfile{"regulars": p}
}

func testScenario(inventory models.TableInventory, personas map[string]models.PersonaProfile) models.Scenario {
	return models.Scenario{
		Name:      "test",
		Inventory: inventory,
		Schedule:  schedule82(),
		Personas:  personas,
		Demand:    models.DefaultDemandPolicy(),
		Solver:    models.DefaultSolverPolicy(),
	}
}

func mustAnalyzer(t *testing.T, scenario models.Scenario, opts ...AnalyzerOption) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(scenario, opts...)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	return a
}

func classOf(t *testing.T, plan *models.AllocationPlan, size int) models.ClassAllocation {
	t.Helper()
	if plan == nil {
		t.Fatal("Expected an allocation plan")
	}
	c, ok := plan.Class(size)
	if !ok {
		t.Fatalf("Plan has no %d-top class", size)
	}
	return c
}
