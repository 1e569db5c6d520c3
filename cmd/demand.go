// ABOUTME: Demand command for capacity-planner CLI
// ABOUTME: Shows the per-block demand a member count places on the tables

package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/obgclub/capacity-planner/internal/render"
	"github.com/obgclub/capacity-planner/models"
	"github.com/obgclub/capacity-planner/services"
)

var demandMembers int

var demandCmd = &cobra.Command{
	Use:   "demand",
	Short: "Show per-block demand for a member count",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runDemand(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(demandCmd)
	demandCmd.Flags().IntVar(&demandMembers, "members", 0, "Projected member count")
	_ = demandCmd.MarkFlagRequired("members")
}

func runDemand(_ context.Context, w io.Writer) int {
	scenario, err := loadScenario()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	demand, err := services.ComputeScenarioDemand(demandMembers, scenario)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(demand))
	} else {
		fmt.Fprintln(w, formatDemandHuman(demand))
	}
	return 0
}

func formatDemandHuman(d models.DemandVector) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", render.Title.Render(fmt.Sprintf("Demand per block: %d members", d.Members)))
	fmt.Fprintf(&b, "%s %d\n\n", render.Label.Render("Blocks/month:"), d.BlocksPerMonth)

	b.WriteString("Reserved tables:\n")
	for _, size := range sortedSizes(d.Reserved) {
		fmt.Fprintf(&b, "  %d-top  %d\n", size, d.Reserved[size])
	}
	fmt.Fprintf(&b, "Mixed seats:     %d\n\n", d.MixedSeats)

	fmt.Fprintf(&b, "%-12s %8s %10s %8s %10s\n", "Persona", "Members", "Tables", "Size", "Seats")
	for _, name := range slices.Sorted(maps.Keys(d.ByPersona)) {
		p := d.ByPersona[name]
		fmt.Fprintf(&b, "%-12s %8.1f %10.2f %8d %10.2f\n", name, p.Members, p.ReservedTables, p.TableSize, p.MixedSeats)
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedSizes(m map[int]int) []int {
	return models.TableInventory(m).Sizes()
}
