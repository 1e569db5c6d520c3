// ABOUTME: Persistence for named scenarios and recorded capacity sweep runs
// ABOUTME: Backed by TOML/JSON files in a directory or by PostgreSQL

package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/obgclub/capacity-planner/models"
)

// ErrNotFound is returned when a scenario or run does not exist.
var ErrNotFound = errors.New("not found")

// DefaultRunLimit caps ListRuns when the caller passes no limit.
const DefaultRunLimit = 20

// ScenarioStore keeps scenarios by name.
type ScenarioStore interface {
	GetScenario(ctx context.Context, name string) (models.Scenario, error)
	PutScenario(ctx context.Context, s models.Scenario) error
	ListScenarios(ctx context.Context) ([]string, error)
}

// RunStore keeps sweep summaries, newest first.
type RunStore interface {
	RecordRun(ctx context.Context, run models.AnalysisRun) error
	GetRun(ctx context.Context, id string) (models.AnalysisRun, error)
	// ListRuns returns up to limit runs of one scenario, or of all scenarios when scenario is empty.
	ListRuns(ctx context.Context, scenario string, limit int) ([]models.AnalysisRun, error)
}

// Store is the full persistence surface.
type Store interface {
	ScenarioStore
	RunStore
	Close() error
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidateName rejects scenario names that are unsafe as file names or keys.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return &models.ConfigurationError{Field: "name", Reason: fmt.Sprintf("%q must be 1-64 letters, digits, '-' or '_'", name)}
	}
	return nil
}

func runLimit(limit int) int {
	if limit <= 0 {
		return DefaultRunLimit
	}
	return limit
}
