// ABOUTME: Shared lipgloss styles for consistent CLI output
// ABOUTME: Defines colors and text styles used by the report renderers

package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/obgclub/capacity-planner/models"
)

var (
	// Colors - Core palette
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Danger    = lipgloss.Color("#EF4444") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray
	Empty     = lipgloss.Color("#374151") // Dark gray, unfilled bar cells

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted)

	// Status indicators
	StatusOK = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	StatusWarning = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	StatusCritical = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)

	Label = lipgloss.NewStyle().
		Foreground(Muted).
		Width(14)
)

// Status renders a solve status with its severity color.
func Status(status models.SolveStatus) string {
	switch status {
	case models.StatusOptimal, models.StatusFeasible:
		return StatusOK.Render("✓ " + string(status))
	case models.StatusInfeasible:
		return StatusCritical.Render("✗ " + string(status))
	default:
		return StatusWarning.Render("⚠ " + string(status))
	}
}

// Severity renders a warning severity tag.
func Severity(severity string) string {
	switch severity {
	case "critical":
		return StatusCritical.Render("[critical]")
	case "warning":
		return StatusWarning.Render("[warning]")
	default:
		return Subtitle.Render("[" + severity + "]")
	}
}
