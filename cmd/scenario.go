// ABOUTME: Scenario commands for capacity-planner CLI
// ABOUTME: Lists, activates and uploads scenarios on a running server

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/obgclub/capacity-planner/config"
	"github.com/obgclub/capacity-planner/internal/client"
	"github.com/obgclub/capacity-planner/models"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Manage scenarios on the server",
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return runScenarioList(ctx, client.New(GetAPIURL()), os.Stdout, IsJSONOutput())
	},
}

var scenarioActivateCmd = &cobra.Command{
	Use:   "activate NAME",
	Short: "Make a stored scenario the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return runScenarioActivate(ctx, client.New(GetAPIURL()), os.Stdout, args[0], IsJSONOutput())
	},
}

var scenarioPushCmd = &cobra.Command{
	Use:   "push FILE",
	Short: "Upload a scenario file and make it active",
	Long: `Validate a TOML scenario file locally, then replace the server's active scenario with it.

Example:
  capacity-planner scenario push cafe.toml --api-url http://planner:8080`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		scenario, err := config.LoadScenario(args[0])
		if err != nil {
			return err
		}
		return runScenarioPush(ctx, client.New(GetAPIURL()), os.Stdout, scenario, IsJSONOutput())
	},
}

func init() {
	rootCmd.AddCommand(scenarioCmd)
	scenarioCmd.AddCommand(scenarioListCmd, scenarioActivateCmd, scenarioPushCmd)
}

func runScenarioList(ctx context.Context, c *client.Client, w io.Writer, jsonOut bool) error {
	list, err := c.ListScenarios(ctx)
	if err != nil {
		return err
	}

	if jsonOut {
		fmt.Fprintln(w, formatJSON(list))
		return nil
	}

	if len(list.Scenarios) == 0 {
		fmt.Fprintf(w, "No stored scenarios. Active: %s\n", list.Active)
		return nil
	}
	for _, name := range list.Scenarios {
		marker := " "
		if name == list.Active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\n", marker, name)
	}
	return nil
}

func runScenarioActivate(ctx context.Context, c *client.Client, w io.Writer, name string, jsonOut bool) error {
	scenario, err := c.ActivateScenario(ctx, name)
	if err != nil {
		return err
	}
	return writeScenarioSummary(w, *scenario, "Activated", jsonOut)
}

func runScenarioPush(ctx context.Context, c *client.Client, w io.Writer, scenario models.Scenario, jsonOut bool) error {
	stored, err := c.PutConfig(ctx, scenario)
	if err != nil {
		return err
	}
	return writeScenarioSummary(w, *stored, "Uploaded", jsonOut)
}

func writeScenarioSummary(w io.Writer, s models.Scenario, verb string, jsonOut bool) error {
	if jsonOut {
		fmt.Fprintln(w, formatJSON(s))
		return nil
	}

	tables := make([]string, 0, len(s.Inventory))
	for _, size := range s.Inventory.Sizes() {
		tables = append(tables, fmt.Sprintf("%dx%d-top", s.Inventory[size], size))
	}
	fmt.Fprintf(w, "%s scenario %s (%s)\n", verb, s.Name, s.Fingerprint())
	fmt.Fprintf(w, "  Tables:     %s\n", strings.Join(tables, ", "))
	fmt.Fprintf(w, "  Blocks:     %d per month\n", s.Schedule.BlocksPerMonth())
	fmt.Fprintf(w, "  Personas:   %s\n", strings.Join(models.PersonaNames(s.Personas), ", "))
	return nil
}
