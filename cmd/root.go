// ABOUTME: Root command for capacity-planner CLI
// ABOUTME: Handles global flags, scenario loading and the backend URL

package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/obgclub/capacity-planner/config"
	"github.com/obgclub/capacity-planner/models"
	"github.com/obgclub/capacity-planner/services"
)

var (
	apiURL        string
	jsonOutput    bool
	scenarioPath  string
	solverTimeout time.Duration
)

const defaultAPIURL = "http://localhost:8080"

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "capacity-planner",
	Short: "Table capacity planner for a members-based game cafe",
	Long: `capacity-planner checks whether a table inventory can seat a projected membership.

Local commands (demand, solve, analyze, check, plans, revenue) run against a TOML
scenario file. Remote commands (health, status, scenario) talk to a running server.

Environment Variables:
  SCENARIO_FILE                 Scenario used when --scenario is not given (default: built-in)
  CAPACITY_PLANNER_API_URL      Backend API URL (default: http://localhost:8080)
  LOG_LEVEL, LOG_FORMAT         Logging on stderr (info/text)`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides CAPACITY_PLANNER_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&scenarioPath, "scenario", "", "Scenario TOML file (overrides SCENARIO_FILE)")
	rootCmd.PersistentFlags().DurationVar(&solverTimeout, "timeout", services.DefaultSolverTimeout, "Time limit for each solve")
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	if url, ok := remoteAPIURL(); ok {
		return url
	}
	return defaultAPIURL
}

// remoteAPIURL returns the API URL only when one was set explicitly.
func remoteAPIURL() (string, bool) {
	if apiURL != "" {
		return apiURL, true
	}
	if envURL := os.Getenv("CAPACITY_PLANNER_API_URL"); envURL != "" {
		return envURL, true
	}
	return "", false
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// loadScenario reads the scenario from --scenario, then SCENARIO_FILE, then the defaults.
func loadScenario() (models.Scenario, error) {
	path := scenarioPath
	if path == "" {
		path = os.Getenv("SCENARIO_FILE")
	}
	return config.LoadScenario(path)
}

// newAnalyzer loads the scenario and builds an analyzer honoring --timeout.
func newAnalyzer() (*services.Analyzer, error) {
	scenario, err := loadScenario()
	if err != nil {
		return nil, err
	}
	solver := services.NewSolver(scenario.Solver, services.WithTimeout(solverTimeout))
	return services.NewAnalyzer(scenario, services.WithSolver(solver))
}
