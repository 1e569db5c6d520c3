// ABOUTME: Revenue command for capacity-planner CLI
// ABOUTME: Projects monthly revenue at a member count or at the largest feasible one

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/obgclub/capacity-planner/internal/client"
	"github.com/obgclub/capacity-planner/internal/render"
	"github.com/obgclub/capacity-planner/models"
	"github.com/obgclub/capacity-planner/services"
)

var revenueMembers int

var revenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Project monthly revenue",
	Long: `Project monthly revenue with every persona on its best-value plan.

Without --members the scenario's candidates are swept first and the projection uses
the largest feasible member count. Uses the server's active scenario when --api-url or
CAPACITY_PLANNER_API_URL is set.

Exit codes:
  0 - Projection produced
  1 - No candidate member count is feasible
  2 - Error (invalid scenario or input)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runRevenue(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(revenueCmd)
	revenueCmd.Flags().IntVar(&revenueMembers, "members", -1, "Member count (default: largest feasible)")
}

func runRevenue(ctx context.Context, w io.Writer) int {
	projection, err := projectRevenue(ctx, revenueMembers)
	if errors.Is(err, services.ErrNoFeasibleCapacity) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(projection))
	} else {
		fmt.Fprintln(w, formatRevenueHuman(projection))
	}
	return 0
}

// projectRevenue asks the server when one is configured, else projects locally.
// A negative member count projects at the largest feasible one.
func projectRevenue(ctx context.Context, members int) (models.RevenueProjection, error) {
	if url, ok := remoteAPIURL(); ok {
		projection, err := client.New(url).Revenue(ctx, members)
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnprocessableEntity {
			return models.RevenueProjection{}, fmt.Errorf("%w: %s", services.ErrNoFeasibleCapacity, apiErr.Message)
		}
		if err != nil {
			return models.RevenueProjection{}, err
		}
		return *projection, nil
	}

	analyzer, err := newAnalyzer()
	if err != nil {
		return models.RevenueProjection{}, err
	}
	planner := services.NewRevenuePlanner(analyzer.Scenario())
	if members >= 0 {
		return planner.Project(members)
	}

	sweep, err := analyzer.FindMaxFeasible(ctx, analyzer.Scenario().Candidates)
	if err != nil {
		return models.RevenueProjection{}, err
	}
	return planner.ProjectSweep(sweep)
}

func formatRevenueHuman(p models.RevenueProjection) string {
	var b strings.Builder
	b.WriteString(render.Title.Render(fmt.Sprintf("Monthly revenue at %d members", p.Members)) + "\n")
	fmt.Fprintf(&b, "%-12s %-10s %8s %10s %10s\n", "Persona", "Plan", "Members", "Per member", "Total")
	for _, r := range p.Personas {
		fmt.Fprintf(&b, "%-12s %-10s %8.1f %10.2f %10.2f\n", r.Persona, r.Plan, r.Members, r.PerMember, r.Total)
	}

	b.WriteString("\n")
	for _, line := range []struct {
		label string
		value float64
	}{
		{"Membership:", p.Membership},
		{"Guests:", p.Guest},
		{"Mixed:", p.Mixed},
		{"Snacks:", p.Snacks},
		{"Retail:", p.Retail},
	} {
		fmt.Fprintf(&b, "%s %10.2f\n", render.Label.Render(line.label), line.value)
	}
	fmt.Fprintf(&b, "%s %s", render.Label.Render("Total:"), render.StatusOK.Render(fmt.Sprintf("%10.2f", p.Total)))
	return b.String()
}
