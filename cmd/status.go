// ABOUTME: Status command for capacity-planner CLI
// ABOUTME: Shows the server's capacity sweep for its active scenario

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/obgclub/capacity-planner/internal/client"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the server's current capacity",
	Long:  `Display the capacity sweep of the server's active scenario, including the largest feasible member count.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runStatus(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// runStatus fetches the server's sweep and returns exit code
func runStatus(ctx context.Context, w io.Writer) int {
	c := client.New(GetAPIURL())

	sweep, err := c.Capacity(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(sweep))
	} else {
		fmt.Fprintln(w, formatSweepHuman(*sweep))
	}

	if sweep.MaxFeasible == nil {
		return 1
	}
	return 0
}
