// ABOUTME: Interactive scenario wizard built on huh forms
// ABOUTME: Collects table counts, opening hours and candidate member counts into a scenario

package wizard

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/obgclub/capacity-planner/internal/render"
	"github.com/obgclub/capacity-planner/models"
)

// tableSizes are the seat counts offered by the wizard, in form order.
var tableSizes = []int{2, 4, 6, 8}

// Wizard walks through building a scenario on top of a base scenario
type Wizard struct {
	base models.Scenario

	// Form field values (strings for huh)
	name         string
	tables       map[int]*string
	weekdayHours string
	weekendHours string
	blockHours   string
	fillFactor   string
	candidates   string
}

// createTheme returns a huh theme using the report palette
func createTheme() *huh.Theme {
	t := huh.ThemeBase()

	text := lipgloss.Color("#E5E7EB")
	slate := lipgloss.Color("#334155")

	t.Group.Title = lipgloss.NewStyle().
		Foreground(render.Primary).
		Bold(true).
		MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().
		Foreground(render.Muted).
		MarginBottom(1)

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(render.Primary)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(render.Primary).
		Bold(true)
	t.Focused.Description = lipgloss.NewStyle().
		Foreground(render.Muted)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().
		Foreground(render.Danger).
		SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(render.Danger)

	t.Focused.SelectSelector = lipgloss.NewStyle().
		Foreground(render.Primary).
		SetString("> ")
	t.Focused.Option = lipgloss.NewStyle().
		Foreground(text)
	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(render.Secondary).
		Bold(true)

	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(render.Primary)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(render.Muted)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(render.Primary)
	t.Focused.TextInput.Text = lipgloss.NewStyle().
		Foreground(text)

	t.Focused.FocusedButton = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(render.Primary).
		Padding(0, 2).
		MarginRight(1)
	t.Focused.BlurredButton = lipgloss.NewStyle().
		Foreground(render.Muted).
		Background(slate).
		Padding(0, 2).
		MarginRight(1)

	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().
		Foreground(render.Muted)
	t.Blurred.SelectSelector = lipgloss.NewStyle().
		Foreground(render.Muted).
		SetString("  ")
	t.Blurred.Option = lipgloss.NewStyle().
		Foreground(render.Muted)

	return t
}

var blockOptions = []huh.Option[string]{
	huh.NewOption("2 hours", "2"),
	huh.NewOption("3 hours (recommended)", "3"),
	huh.NewOption("4 hours", "4"),
}

var fillOptions = []huh.Option[string]{
	huh.NewOption("0.50 (half-full tables)", "0.5"),
	huh.NewOption("0.75", "0.75"),
	huh.NewOption("0.85 (recommended)", "0.85"),
	huh.NewOption("1.00 (every seat filled)", "1"),
}

// New creates a wizard prefilled from the base scenario
func New(base models.Scenario) *Wizard {
	w := &Wizard{
		base:         base,
		name:         base.Name,
		tables:       make(map[int]*string, len(tableSizes)),
		weekdayHours: formatFloat(base.Schedule.WeekdayHours),
		weekendHours: formatFloat(base.Schedule.WeekendHours),
		blockHours:   formatFloat(base.Schedule.BlockHours),
		fillFactor:   formatFloat(base.Demand.MixedFillFactor),
		candidates:   joinInts(base.Candidates),
	}
	for _, size := range tableSizes {
		count := strconv.Itoa(base.Inventory[size])
		w.tables[size] = &count
	}
	return w
}

func (w *Wizard) tablesForm() *huh.Form {
	fields := make([]huh.Field, 0, len(tableSizes))
	for _, size := range tableSizes {
		fields = append(fields, huh.NewInput().
			Title(fmt.Sprintf("%d-seat tables", size)).
			Placeholder("0").
			CharLimit(4).
			Value(w.tables[size]).
			Validate(validateNonNegativeInt))
	}
	return huh.NewForm(
		huh.NewGroup(fields...).
			Title("Step 1: Tables").
			Description("How many tables of each size are on the floor?"),
	).WithTheme(createTheme())
}

func (w *Wizard) scheduleForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Weekday opening hours").
				Placeholder("e.g., 6").
				CharLimit(4).
				Value(&w.weekdayHours).
				Validate(validateHours),
			huh.NewInput().
				Title("Weekend opening hours").
				Placeholder("e.g., 12").
				CharLimit(4).
				Value(&w.weekendHours).
				Validate(validateHours),
			huh.NewSelect[string]().
				Title("Seating block length").
				Description("Use arrow keys to select, Enter to confirm").
				Options(blockOptions...).
				Value(&w.blockHours),
			huh.NewSelect[string]().
				Title("Mixed table fill factor").
				Description("Share of open-seating chairs expected to be filled").
				Options(fillOptions...).
				Value(&w.fillFactor),
		).Title("Step 2: Opening Hours").
			Description("Opening hours are divided into bookable seating blocks"),
	).WithTheme(createTheme())
}

func (w *Wizard) sweepForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Scenario name").
				CharLimit(64).
				Value(&w.name).
				Validate(validateName),
			huh.NewInput().
				Title("Candidate member counts").
				Description("Comma-separated, e.g. 200,250,300").
				Value(&w.candidates).
				Validate(validateCandidates),
		).Title("Step 3: Sweep").
			Description("Which membership sizes should be checked?"),
	).WithTheme(createTheme())
}

// Run shows each step in turn and blocks until the user finishes or aborts
func (w *Wizard) Run() (models.Scenario, error) {
	for _, form := range []*huh.Form{w.tablesForm(), w.scheduleForm(), w.sweepForm()} {
		if err := form.Run(); err != nil {
			return models.Scenario{}, err
		}
	}
	return w.Scenario()
}

// Scenario converts the collected answers into a validated scenario
func (w *Wizard) Scenario() (models.Scenario, error) {
	s := w.base
	s.Name = strings.TrimSpace(w.name)

	s.Inventory = models.TableInventory{}
	for size, count := range w.base.Inventory {
		s.Inventory[size] = count
	}
	for _, size := range tableSizes {
		count, err := strconv.Atoi(strings.TrimSpace(*w.tables[size]))
		if err != nil {
			return models.Scenario{}, &models.ConfigurationError{Field: fmt.Sprintf("inventory[%d]", size), Reason: "not a number"}
		}
		if count == 0 {
			delete(s.Inventory, size)
			continue
		}
		s.Inventory[size] = count
	}

	var err error
	if s.Schedule.WeekdayHours, err = parseFloat("schedule.weekday_hours", w.weekdayHours); err != nil {
		return models.Scenario{}, err
	}
	if s.Schedule.WeekendHours, err = parseFloat("schedule.weekend_hours", w.weekendHours); err != nil {
		return models.Scenario{}, err
	}
	if s.Schedule.BlockHours, err = parseFloat("schedule.block_hours", w.blockHours); err != nil {
		return models.Scenario{}, err
	}
	if s.Demand.MixedFillFactor, err = parseFloat("demand.mixed_fill_factor", w.fillFactor); err != nil {
		return models.Scenario{}, err
	}
	if s.Candidates, err = parseCandidates(w.candidates); err != nil {
		return models.Scenario{}, &models.ConfigurationError{Field: "candidates", Reason: err.Error()}
	}

	if err := s.Validate(); err != nil {
		return models.Scenario{}, err
	}
	return s, nil
}

func validateNonNegativeInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return fmt.Errorf("must be zero or a positive number")
	}
	return nil
}

func validateHours(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || v > 24 {
		return fmt.Errorf("must be between 0 and 24")
	}
	return nil
}

func validateName(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func validateCandidates(s string) error {
	_, err := parseCandidates(s)
	return err
}

// parseCandidates reads a comma-separated list of member counts, sorted and deduplicated.
func parseCandidates(s string) ([]int, error) {
	var out []int
	seen := map[int]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("%q must be a positive number", part)
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one member count is required")
	}
	sort.Ints(out)
	return out, nil
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &models.ConfigurationError{Field: field, Reason: "not a number"}
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
