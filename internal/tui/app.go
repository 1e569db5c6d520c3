// ABOUTME: Root bubbletea model for the interactive sweep browser
// ABOUTME: Runs a capacity sweep behind a spinner, then lists candidates beside their detail

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/obgclub/capacity-planner/internal/render"
	"github.com/obgclub/capacity-planner/models"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenSweep
)

// Layout constants
const (
	minTerminalWidth = 80 // Minimum width before using single-column layout
	listWidth        = 30
)

// SweepFunc runs one capacity sweep.
type SweepFunc func(ctx context.Context) (models.SweepResult, error)

// DetailFunc renders a single candidate for the right-hand pane.
type DetailFunc func(models.CandidateResult) string

// sweepDoneMsg is sent when a sweep finishes
type sweepDoneMsg struct {
	sweep models.SweepResult
	err   error
}

// App is the root model for the TUI
type App struct {
	ctx        context.Context
	run        SweepFunc
	detail     DetailFunc
	screen     Screen
	spinner    spinner.Model
	sweep      *models.SweepResult
	cursor     int
	err        error
	width      int
	height     int
	lastUpdate time.Time
}

// New creates a sweep browser. ctx bounds every sweep it starts.
func New(ctx context.Context, run SweepFunc, detail DetailFunc) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(render.Primary)

	return &App{
		ctx:     ctx,
		run:     run,
		detail:  detail,
		screen:  ScreenLoading,
		spinner: s,
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.runSweep())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return a, tea.Quit
		}
		if a.screen == ScreenSweep {
			return a.updateSweep(msg)
		}
		return a, nil

	case sweepDoneMsg:
		a.screen = ScreenSweep
		a.err = msg.err
		if msg.err != nil {
			return a, nil
		}
		sweep := msg.sweep
		a.sweep = &sweep
		a.cursor = initialCursor(sweep)
		a.lastUpdate = time.Now()
		return a, nil

	case spinner.TickMsg:
		if a.screen != ScreenLoading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) updateSweep(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.sweep != nil && a.cursor < len(a.sweep.Candidates)-1 {
			a.cursor++
		}
	case "r":
		a.screen = ScreenLoading
		a.err = nil
		return a, tea.Batch(a.spinner.Tick, a.runSweep())
	}
	return a, nil
}

// initialCursor points at the largest feasible candidate, or the first one.
func initialCursor(sweep models.SweepResult) int {
	if sweep.MaxFeasible == nil {
		return 0
	}
	for i, c := range sweep.Candidates {
		if c.Members == *sweep.MaxFeasible {
			return i
		}
	}
	return 0
}

// runSweep creates a command that runs the sweep off the UI goroutine
func (a *App) runSweep() tea.Cmd {
	return func() tea.Msg {
		sweep, err := a.run(a.ctx)
		return sweepDoneMsg{sweep: sweep, err: err}
	}
}

// View implements tea.Model
func (a *App) View() string {
	var content string
	switch {
	case a.screen == ScreenLoading:
		content = fmt.Sprintf("\n  %s Solving candidates...\n", a.spinner.View())
	case a.err != nil:
		content = "\n  " + render.StatusCritical.Render("Error: "+a.err.Error()) + "\n"
	default:
		content = a.viewSweep()
	}
	return a.wrapWithFrame(content)
}

func (a *App) viewSweep() string {
	if a.sweep == nil || len(a.sweep.Candidates) == 0 {
		return "\n  No candidates to show.\n"
	}

	var list strings.Builder
	for i, c := range a.sweep.Candidates {
		cursor := "  "
		if i == a.cursor {
			cursor = render.Title.Render("▸ ")
		}
		fmt.Fprintf(&list, "%s%6d  %s\n", cursor, c.Members, render.Status(c.Result.Status))
	}
	list.WriteString("\n")
	if a.sweep.MaxFeasible != nil {
		list.WriteString(render.StatusOK.Render(fmt.Sprintf("Max feasible: %d", *a.sweep.MaxFeasible)))
	} else {
		list.WriteString(render.StatusCritical.Render("Max feasible: none"))
	}

	detail := a.detail(a.sweep.Candidates[a.cursor])

	if a.width > 0 && a.width < minTerminalWidth {
		return list.String() + "\n\n" + detail
	}
	left := lipgloss.NewStyle().Width(listWidth).Render(list.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, detail)
}

// renderHeader creates the top border with the app title and scenario name
func (a *App) renderHeader() string {
	width := max(a.width, minTerminalWidth)

	borderStyle := lipgloss.NewStyle().Foreground(render.Muted)
	contextStyle := lipgloss.NewStyle().Foreground(render.Secondary)

	leftText := " " + render.Title.Render("Capacity Planner")
	rightText := ""
	if a.sweep != nil {
		rightText = contextStyle.Render(a.sweep.Scenario) + " "
	}

	fillWidth := max(width-4-lipgloss.Width(leftText)-lipgloss.Width(rightText), 0) // -4 for ╭─ and ─╮
	return borderStyle.Render("╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮")
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := max(a.width, minTerminalWidth)

	borderStyle := lipgloss.NewStyle().Foreground(render.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(render.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(render.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(render.Secondary)

	shortcuts := []string{"q Quit"}
	if a.screen == ScreenSweep {
		shortcuts = []string{"↑↓ Navigate", "r Re-run", "q Quit"}
	}

	var styled []string
	for _, s := range shortcuts {
		key, label, _ := strings.Cut(s, " ")
		styled = append(styled, keyStyle.Render(key)+" "+labelStyle.Render(label))
	}
	leftText := " " + strings.Join(styled, "  ")
	leftPlain := " " + strings.Join(shortcuts, "  ")

	rightText, rightPlain := "", ""
	if !a.lastUpdate.IsZero() && a.screen == ScreenSweep {
		elapsed := formatTimeSince(a.lastUpdate)
		rightText = statusStyle.Render("Updated "+elapsed) + " "
		rightPlain = "Updated " + elapsed + " "
	}

	fillWidth := max(width-4-lipgloss.Width(leftPlain)-lipgloss.Width(rightPlain), 0) // -4 for ╰─ and ─╯
	return borderStyle.Render("╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯")
}

// formatTimeSince formats a duration since the given time in human-readable form
func formatTimeSince(t time.Time) string {
	d := time.Since(t)

	switch {
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, run SweepFunc, detail DetailFunc) error {
	p := tea.NewProgram(
		New(ctx, run, detail),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
