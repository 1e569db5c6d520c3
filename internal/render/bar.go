// ABOUTME: Utilization bar with visual threshold zones
// ABOUTME: Shows green/amber/red regions for table and seat utilization

package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// BarConfig holds configuration for the utilization bar
type BarConfig struct {
	Width         int
	WarnThreshold float64 // Percentage where warning zone starts (default 80)
	CritThreshold float64 // Percentage where critical zone starts (default 95)
	ShowZones     bool    // Show threshold markers in the bar
}

// DefaultBarConfig returns sensible defaults
func DefaultBarConfig() BarConfig {
	return BarConfig{
		Width:         20,
		WarnThreshold: 80,
		CritThreshold: 95,
		ShowZones:     true,
	}
}

// Bar renders a utilization bar with threshold zones. Values above 100 fill the bar.
func Bar(percent float64, config BarConfig) string {
	if config.Width <= 0 {
		config.Width = 20
	}
	percent = clamp(percent, 0, 100)

	filled := int(percent / 100.0 * float64(config.Width))
	warnPos := int(config.WarnThreshold / 100.0 * float64(config.Width))
	critPos := int(config.CritThreshold / 100.0 * float64(config.Width))

	var bar strings.Builder
	bar.WriteString("[")
	for i := 0; i < config.Width; i++ {
		char, color := "░", Empty
		switch {
		case i < filled && i >= critPos:
			char, color = "█", Danger
		case i < filled && i >= warnPos:
			char, color = "█", Warning
		case i < filled:
			char, color = "█", Secondary
		case config.ShowZones && (i == warnPos || i == critPos):
			char = "│"
		}
		bar.WriteString(lipgloss.NewStyle().Foreground(color).Render(char))
	}
	bar.WriteString("]")
	return bar.String()
}

// BarWithLabel renders the bar followed by the unclamped percentage and a status icon.
func BarWithLabel(percent float64, config BarConfig) string {
	var statusColor lipgloss.Color
	var statusIcon string
	switch {
	case percent >= config.CritThreshold:
		statusColor, statusIcon = Danger, "✗"
	case percent >= config.WarnThreshold:
		statusColor, statusIcon = Warning, "⚠"
	default:
		statusColor, statusIcon = Secondary, "✓"
	}

	style := lipgloss.NewStyle().Foreground(statusColor)
	return fmt.Sprintf("%s %s %s", Bar(percent, config), style.Render(fmt.Sprintf("%4.0f%%", percent)), style.Render(statusIcon))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
