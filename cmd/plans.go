// ABOUTME: Plans command for capacity-planner CLI
// ABOUTME: Shows the plan catalog value and which personas each plan suits

package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/obgclub/capacity-planner/internal/render"
	"github.com/obgclub/capacity-planner/models"
	"github.com/obgclub/capacity-planner/services"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Show plan value and persona fit",
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runPlans(context.Background(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(plansCmd)
}

func runPlans(_ context.Context, w io.Writer) int {
	scenario, err := loadScenario()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if err := scenario.Validate(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	values := services.NewValueCalculator(scenario)
	catalog := models.PlanCatalog{Plans: values.PlanValues(), Fit: values.PlanFit()}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(catalog))
	} else {
		fmt.Fprintln(w, formatPlansHuman(catalog))
	}
	return 0
}

func formatPlansHuman(catalog models.PlanCatalog) string {
	var b strings.Builder
	b.WriteString(render.Title.Render("Plans") + "\n")
	fmt.Fprintf(&b, "%-10s %8s %8s %6s  %s\n", "Plan", "Price", "Value", "Ratio", "Suits")
	for _, p := range catalog.Plans {
		suits := strings.Join(catalog.Fit.ByPlan[p.Plan], ", ")
		if suits == "" {
			suits = render.Subtitle.Render("nobody")
		}
		fmt.Fprintf(&b, "%-10s %8.2f %8.2f %6.2f  %s\n", p.Plan, p.Price, p.Value, p.Ratio, suits)
	}

	b.WriteString("\n" + render.Title.Render("Best picks") + "\n")
	for _, persona := range slices.Sorted(maps.Keys(catalog.Fit.TopPlans)) {
		fmt.Fprintf(&b, "%-12s %s\n", persona, strings.Join(catalog.Fit.TopPlans[persona], " > "))
	}
	return strings.TrimRight(b.String(), "\n")
}
