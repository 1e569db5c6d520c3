// ABOUTME: Browse command for capacity-planner CLI
// ABOUTME: Opens the interactive sweep browser over a local or remote scenario

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/obgclub/capacity-planner/internal/client"
	"github.com/obgclub/capacity-planner/internal/tui"
	"github.com/obgclub/capacity-planner/models"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse a capacity sweep interactively",
	Long: `Run the scenario's candidate sweep and step through each member count's allocation
or bottleneck in a full-screen view.

Uses the server's active scenario when --api-url or CAPACITY_PLANNER_API_URL is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		sweep, err := browseSweepFunc()
		if err == nil {
			err = tui.Run(ctx, sweep, formatCandidateHuman)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

// browseSweepFunc picks the server's capacity endpoint or a local analyzer.
func browseSweepFunc() (tui.SweepFunc, error) {
	if url, ok := remoteAPIURL(); ok {
		c := client.New(url)
		return func(ctx context.Context) (models.SweepResult, error) {
			sweep, err := c.Capacity(ctx)
			if err != nil {
				return models.SweepResult{}, err
			}
			return *sweep, nil
		}, nil
	}

	analyzer, err := newAnalyzer()
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) (models.SweepResult, error) {
		return analyzer.FindMaxFeasible(ctx, analyzer.Scenario().Candidates)
	}, nil
}
