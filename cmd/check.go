// ABOUTME: Check command for capacity-planner CLI
// ABOUTME: Validates a target member count against utilization thresholds for CI pipelines

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/obgclub/capacity-planner/internal/client"
	"github.com/obgclub/capacity-planner/models"
)

var (
	checkMembers         int
	utilizationThreshold int
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a member target against capacity thresholds",
	Long: `Check that a target member count fits the tables and exit non-zero if it does not.

Runs locally unless --api-url or CAPACITY_PLANNER_API_URL is set, in which case the
server's active scenario is used.

Exit codes:
  0 - All checks passed
  1 - One or more checks failed
  2 - Error (connectivity, invalid scenario, invalid input)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runCheck(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().IntVar(&checkMembers, "members", 0, "Target member count")
	checkCmd.Flags().IntVar(&utilizationThreshold, "max-utilization", 90, "Highest acceptable table utilization percentage")
	_ = checkCmd.MarkFlagRequired("members")
}

// checkResult represents the result of a single threshold check
type checkResult struct {
	name      string
	value     float64
	threshold float64
	unit      string
	passed    bool
}

// runCheck executes the checks and returns exit code
func runCheck(ctx context.Context, w io.Writer) int {
	if err := validateCheckInput(checkMembers, utilizationThreshold); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	candidate, err := evaluateTarget(ctx, checkMembers)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	results := performChecks(candidate)

	if IsJSONOutput() {
		fmt.Fprintln(w, formatCheckJSON(results))
	} else {
		fmt.Fprintln(w, formatCheckHuman(results))
	}

	_, failed := countResults(results)
	if failed > 0 {
		return 1
	}
	return 0
}

// evaluateTarget solves the member count on the server when one is configured, else locally
func evaluateTarget(ctx context.Context, members int) (models.CandidateResult, error) {
	if url, ok := remoteAPIURL(); ok {
		result, err := client.New(url).Solve(ctx, members)
		if err != nil {
			return models.CandidateResult{}, err
		}
		return *result, nil
	}

	analyzer, err := newAnalyzer()
	if err != nil {
		return models.CandidateResult{}, err
	}
	return analyzer.Evaluate(ctx, members)
}

// validateCheckInput ensures flag values are valid
func validateCheckInput(members, threshold int) error {
	if members < 0 {
		return fmt.Errorf("--members must not be negative")
	}
	if threshold < 0 || threshold > 100 {
		return fmt.Errorf("--max-utilization must be between 0 and 100")
	}
	return nil
}

// performChecks runs the feasibility check and one utilization check per table size
func performChecks(c models.CandidateResult) []checkResult {
	feasible := checkResult{
		name:      fmt.Sprintf("Seats %d members", c.Members),
		value:     boolValue(c.Result.Feasible),
		threshold: 1,
		passed:    c.Result.Feasible,
	}
	results := []checkResult{feasible}

	for _, size := range c.Result.UtilizationSizes() {
		pct := c.Result.Utilization[size]
		results = append(results, checkResult{
			name:      fmt.Sprintf("%d-top utilization", size),
			value:     pct,
			threshold: float64(utilizationThreshold),
			unit:      "%",
			passed:    pct <= float64(utilizationThreshold),
		})
	}

	return results
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// countResults returns the count of passed and failed checks
func countResults(results []checkResult) (passed, failed int) {
	for _, r := range results {
		if r.passed {
			passed++
		} else {
			failed++
		}
	}
	return
}

// formatCheckHuman formats check results for human readability
func formatCheckHuman(results []checkResult) string {
	var output string

	for _, r := range results {
		symbol := "✓"
		if !r.passed {
			symbol = "✗"
		}
		if r.unit == "" {
			output += fmt.Sprintf("%s %s\n", symbol, r.name)
			continue
		}
		output += fmt.Sprintf("%s %s: %.0f%s (threshold: %.0f%s)\n",
			symbol, r.name, r.value, r.unit, r.threshold, r.unit)
	}

	passed, failed := countResults(results)
	if failed > 0 {
		output += fmt.Sprintf("\nFAILED: %d check(s) failed", failed)
	} else {
		output += fmt.Sprintf("\nPASSED: All %d check(s) within thresholds", passed)
	}

	return output
}

// formatCheckJSON formats check results as JSON
func formatCheckJSON(results []checkResult) string {
	_, failed := countResults(results)

	checks := make([]map[string]interface{}, len(results))
	for i, r := range results {
		checks[i] = map[string]interface{}{
			"name":      r.name,
			"value":     r.value,
			"threshold": r.threshold,
			"unit":      r.unit,
			"passed":    r.passed,
		}
	}

	status := "passed"
	if failed > 0 {
		status = "failed"
	}

	output := map[string]interface{}{
		"status": status,
		"checks": checks,
	}

	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
