// ABOUTME: Shared human-readable formatting for solve and sweep results
// ABOUTME: Renders allocation tables, utilization bars and bottleneck summaries

package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/obgclub/capacity-planner/internal/render"
	"github.com/obgclub/capacity-planner/models"
)

// formatJSON indents any result for --json output
func formatJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}

// formatCandidateHuman renders one member count's verdict with its allocation or bottleneck
func formatCandidateHuman(c models.CandidateResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", render.Title.Render(fmt.Sprintf("%d members", c.Members)), render.Status(c.Result.Status))
	fmt.Fprintf(&b, "%s %d reserved tables, %d mixed seats per block\n",
		render.Label.Render("Demand:"), c.Demand.ReservedTotal(), c.Demand.MixedSeats)

	if c.Result.Feasible && c.Result.Plan != nil {
		b.WriteString("\n")
		b.WriteString(formatPlan(*c.Result.Plan, c.Result.Utilization))
	}
	if c.Result.Diagnostic != "" {
		fmt.Fprintf(&b, "\n%s %s\n", render.Label.Render("Diagnostic:"), c.Result.Diagnostic)
	}
	if c.Result.Bottleneck != nil {
		b.WriteString("\n")
		b.WriteString(formatBottleneck(*c.Result.Bottleneck))
	}

	return strings.TrimRight(b.String(), "\n")
}

// formatPlan renders the per-size allocation with a utilization bar per size
func formatPlan(plan models.AllocationPlan, utilization map[int]float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %5s %6s %6s %6s %6s %6s\n", "Tables", "Avail", "RFull", "RSplit", "MFull", "MSplit", "Seats")
	for _, c := range plan.Classes {
		fmt.Fprintf(&b, "%-8s %5d %6d %6d %6d %6d %6d  %s\n",
			fmt.Sprintf("%d-top", c.Seats), c.Available,
			c.ReservedFull, c.ReservedSplit, c.MixedFull, c.MixedSplit, c.MixedSeats,
			render.BarWithLabel(utilization[c.Seats], render.DefaultBarConfig()))
	}
	return b.String()
}

// formatBottleneck renders the ranked resources of an infeasible candidate
func formatBottleneck(analysis models.BottleneckAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", render.Label.Render("Bottleneck:"), analysis.Summary)
	for _, r := range analysis.Resources {
		marker := " "
		if r.IsConstraining {
			marker = "▶"
		}
		line := fmt.Sprintf("%s %-14s %d/%d %s", marker, r.Name, r.UsedCapacity, r.TotalCapacity, r.Unit)
		if r.NoCapacity {
			line += " " + render.StatusCritical.Render("no capacity")
		} else {
			line += " " + render.BarWithLabel(r.UsedPercent, render.DefaultBarConfig())
		}
		if r.TopPersona != "" {
			line += render.Subtitle.Render(fmt.Sprintf("  top: %s (%.0f%%)", r.TopPersona, r.TopPersonaShare*100))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// formatSweepHuman renders one line per candidate followed by the verdict and warnings
func formatSweepHuman(sweep models.SweepResult) string {
	var b strings.Builder

	title := fmt.Sprintf("Capacity sweep: %s", sweep.Scenario)
	if sweep.Cached {
		title += " (cached)"
	}
	b.WriteString(render.Title.Render(title) + "\n\n")

	for _, c := range sweep.Candidates {
		line := fmt.Sprintf("%6d members  %-24s", c.Members, render.Status(c.Result.Status))
		if c.Result.Feasible {
			line += " peak " + render.BarWithLabel(c.Result.MaxUtilization(), render.DefaultBarConfig())
		} else if c.Result.Bottleneck != nil && c.Result.Bottleneck.ConstrainingResource != "" {
			line += " short on " + c.Result.Bottleneck.ConstrainingResource
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if sweep.MaxFeasible != nil {
		b.WriteString(render.StatusOK.Render(fmt.Sprintf("Max feasible: %d members", *sweep.MaxFeasible)))
	} else {
		b.WriteString(render.StatusCritical.Render("Max feasible: none"))
	}

	if len(sweep.Warnings) > 0 {
		b.WriteString("\n\nWarnings:")
		for _, warn := range sweep.Warnings {
			fmt.Fprintf(&b, "\n  %s %s", render.Severity(warn.Severity), warn.Message)
		}
	}

	return b.String()
}
