package cmd

import (
	"path/filepath"
	"testing"

	"github.com/obgclub/capacity-planner/config"
	"github.com/obgclub/capacity-planner/models"
)

// testScenario is one persona of four-person parties against 4 two-tops, 6 four-tops
// and 3 eight-tops over 82 blocks a month. 200 members fit, 400 do not.
func testScenario() models.Scenario {
	s := config.DefaultScenario()
	s.Name = "small-room"
	s.Inventory = models.TableInventory{2: 4, 4: 6, 8: 3}
	s.Schedule = models.OperatingSchedule{
		WeekdayHours:        9,
		WeekendHours:        6,
		WeekdaysPerMonth:    21.65,
		WeekendDaysPerMonth: 8.66,
		BlockHours:          3,
	}
	s.Personas = map[string]models.PersonaProfile{
		"regulars": {
			Share: 1, PricePerVisit: 10, GuestsPerMonth: 2, ReservedVisits: 4, MixedVisits: 0.5,
			GameCheckouts: 1, GroupSize: 4, RetailMonthly: 10, SnackPerVisit: 5,
		},
	}
	s.Candidates = []int{400, 50, 100, 200, 800}
	return s
}

// useScenario writes s to a temp file and points --scenario at it for a local run.
func useScenario(t *testing.T, s models.Scenario) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := config.SaveScenario(path, s); err != nil {
		t.Fatalf("SaveScenario: %v", err)
	}
	scenarioPath = path
	t.Cleanup(func() { scenarioPath = "" })
	t.Setenv("CAPACITY_PLANNER_API_URL", "")
	return path
}

func useJSON(t *testing.T) {
	t.Helper()
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })
}
