// ABOUTME: Health command for capacity-planner CLI
// ABOUTME: Checks backend connectivity and the state of its store and cache

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

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Long:  `Check connectivity to a capacity planner server and report its store and cache status.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	url := GetAPIURL()
	c := client.New(url)

	resp, err := c.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(url, resp))
	} else {
		fmt.Fprintln(w, formatHealthHuman(url, resp))
	}

	if resp.Status != "ok" {
		return 1
	}
	return 0
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *models.HealthResponse) string {
	return fmt.Sprintf(`Backend:      %s
Status:       %s
Scenario:     %s (%s)
Store:        %s
Cache:        %s`, url, resp.Status, resp.Scenario, resp.Fingerprint, resp.Store, resp.Cache)
}

// formatHealthJSON formats health response as JSON
func formatHealthJSON(url string, resp *models.HealthResponse) string {
	output := map[string]interface{}{
		"backend":     url,
		"status":      resp.Status,
		"scenario":    resp.Scenario,
		"fingerprint": resp.Fingerprint,
		"store":       resp.Store,
		"cache":       resp.Cache,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
