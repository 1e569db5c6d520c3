// ABOUTME: Analyze command for capacity-planner CLI
// ABOUTME: Sweeps candidate member counts and reports the largest feasible one

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/obgclub/capacity-planner/internal/client"
	"github.com/obgclub/capacity-planner/models"
	"github.com/obgclub/capacity-planner/store"
)

var (
	analyzeCandidates []int
	analyzeRecordDir  string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Find the largest member count the tables can serve",
	Long: `Sweep candidate member counts and report the largest feasible one.

Candidates default to the scenario's list. Sweeps on the server's active scenario when
--api-url or CAPACITY_PLANNER_API_URL is set.

Exit codes:
  0 - At least one candidate is feasible
  1 - No candidate is feasible
  2 - Error (invalid scenario or input)

Example:
  capacity-planner analyze --scenario cafe.toml --candidates 200,300,400 --json`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runAnalyze(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().IntSliceVar(&analyzeCandidates, "candidates", nil, "Comma-separated member counts to check")
	analyzeCmd.Flags().StringVar(&analyzeRecordDir, "record", "", "Directory to record the run in")
}

func runAnalyze(ctx context.Context, w io.Writer) int {
	sweep, err := sweepCandidates(ctx, analyzeCandidates)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if analyzeRecordDir != "" {
		if err := recordRun(ctx, analyzeRecordDir, sweep); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(sweep))
	} else {
		fmt.Fprintln(w, formatSweepHuman(sweep))
	}

	if sweep.MaxFeasible == nil {
		return 1
	}
	return 0
}

// sweepCandidates sweeps on the server when one is configured, else locally.
// No candidates means the scenario's own list.
func sweepCandidates(ctx context.Context, candidates []int) (models.SweepResult, error) {
	if url, ok := remoteAPIURL(); ok {
		sweep, err := client.New(url).Sweep(ctx, candidates)
		if err != nil {
			return models.SweepResult{}, err
		}
		return *sweep, nil
	}

	analyzer, err := newAnalyzer()
	if err != nil {
		return models.SweepResult{}, err
	}
	if len(candidates) == 0 {
		candidates = analyzer.Scenario().Candidates
	}
	if len(candidates) == 0 {
		return models.SweepResult{}, errors.New("no candidates given and the scenario lists none")
	}
	return analyzer.FindMaxFeasible(ctx, candidates)
}

func recordRun(ctx context.Context, dir string, sweep models.SweepResult) error {
	runs, err := store.NewFileStore(dir)
	if err != nil {
		return err
	}
	defer runs.Close()

	if err := runs.RecordRun(ctx, models.NewAnalysisRun(sweep, time.Now().UTC())); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}
