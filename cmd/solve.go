// ABOUTME: Solve command for capacity-planner CLI
// ABOUTME: Packs one member count's demand into the tables and shows the allocation

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var solveMembers int

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve the table allocation for a member count",
	Long: `Solve the table allocation for one member count.

Exit codes:
  0 - Demand fits the tables
  1 - Demand does not fit (or the solver gave no verdict)
  2 - Error (invalid scenario or input)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runSolve(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().IntVar(&solveMembers, "members", 0, "Projected member count")
	_ = solveCmd.MarkFlagRequired("members")
}

func runSolve(ctx context.Context, w io.Writer) int {
	analyzer, err := newAnalyzer()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	result, err := analyzer.Evaluate(ctx, solveMembers)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(result))
	} else {
		fmt.Fprintln(w, formatCandidateHuman(result))
	}

	if !result.Result.Feasible {
		return 1
	}
	return 0
}
