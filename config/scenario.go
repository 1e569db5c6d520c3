// ABOUTME: Scenario snapshots: built-in defaults and TOML scenario files
// ABOUTME: Sections missing from a file fall back to the defaults

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/obgclub/capacity-planner/models"
)

// DefaultScenario returns the stock game-cafe configuration.
func DefaultScenario() models.Scenario {
	return models.Scenario{
		Name:      "default",
		Inventory: models.TableInventory{2: 4, 4: 6, 6: 2, 8: 3},
		Schedule: models.OperatingSchedule{
			WeekdayHours:        6,
			WeekendHours:        12,
			WeekdaysPerMonth:    21.65,
			WeekendDaysPerMonth: 8.66,
			BlockHours:          3,
		},
		Personas: map[string]models.PersonaProfile{
			"casual": {
				Share: 0.45, PricePerVisit: 8, GuestsPerMonth: 3, ReservedVisits: 1, MixedVisits: 0.5,
				GameCheckouts: 0, GroupSize: 4, RetailMonthly: 0, SnackPerVisit: 10,
			},
			"students": {
				Share: 0.15, PricePerVisit: 5, GuestsPerMonth: 3, ReservedVisits: 8, MixedVisits: 1,
				GameCheckouts: 1, GroupSize: 3, RetailMonthly: 5, SnackPerVisit: 5,
			},
			"families": {
				Share: 0.15, PricePerVisit: 15, GuestsPerMonth: 2.5, ReservedVisits: 3, MixedVisits: 2,
				GameCheckouts: 1, GroupSize: 4, RetailMonthly: 10, SnackPerVisit: 7,
			},
			"hobbyists": {
				Share: 0.15, PricePerVisit: 10, GuestsPerMonth: 3, ReservedVisits: 4, MixedVisits: 2,
				GameCheckouts: 2, GroupSize: 4, RetailMonthly: 15, SnackPerVisit: 4,
			},
			"everyday": {
				Share: 0.10, PricePerVisit: 5, GuestsPerMonth: 3, ReservedVisits: 8, MixedVisits: 4,
				GameCheckouts: 2, GroupSize: 4, RetailMonthly: 15, SnackPerVisit: 4,
			},
		},
		Demand: models.DefaultDemandPolicy(),
		Solver: models.DefaultSolverPolicy(),
		Pricing: models.Pricing{
			GuestPrice:              8,
			BaseVisitValue:          12,
			MixedValue:              12,
			GameCheckoutValue:       5,
			BaseValueCap:            100,
			GuestSpendingMultiplier: 1,
		},
		Plans: []models.Plan{
			{Name: "basic", Price: 35, Features: models.PlanFeatures{
				GuestPasses: 1, RetailDiscount: 0.10, SnackDiscount: 0.10, GameCheckouts: 1,
			}},
			{Name: "standard", Price: 75, Features: models.PlanFeatures{
				GuestPasses: 2, RetailDiscount: 0.15, SnackDiscount: 0.15, MixedAccess: true, AdditionalMembers: 1, GameCheckouts: 2,
			}},
			{Name: "family", Price: 125, Features: models.PlanFeatures{
				GuestPasses: 4, RetailDiscount: 0.20, SnackDiscount: 0.20, MixedAccess: true, AdditionalMembers: 3, GameCheckouts: 4,
			}},
		},
		Candidates: []int{200, 250, 300, 350, 400},
	}
}

// scenarioFile is the on-disk TOML layout. TOML keys are strings, so per-size maps are
// written as arrays of tables.
type scenarioFile struct {
	Name       string                 `toml:"name"`
	Candidates []int                  `toml:"candidates"`
	Tables     []tableEntry           `toml:"tables"`
	Schedule   scheduleSection        `toml:"schedule"`
	Personas   map[string]personaFile `toml:"personas"`
	Demand     demandSection          `toml:"demand"`
	Solver     solverSection          `toml:"solver"`
	Pricing    pricingSection         `toml:"pricing"`
	Plans      []planEntry            `toml:"plans"`
}

type tableEntry struct {
	Seats int `toml:"seats"`
	Count int `toml:"count"`
}

type scheduleSection struct {
	WeekdayHours        float64 `toml:"weekday_hours"`
	WeekendHours        float64 `toml:"weekend_hours"`
	WeekdaysPerMonth    float64 `toml:"weekdays_per_month"`
	WeekendDaysPerMonth float64 `toml:"weekend_days_per_month"`
	BlockHours          float64 `toml:"block_hours"`
}

type personaFile struct {
	Share          float64 `toml:"share"`
	PricePerVisit  float64 `toml:"price_per_visit"`
	ReservedVisits float64 `toml:"reserved_visits"`
	MixedVisits    float64 `toml:"mixed_visits"`
	GuestsPerMonth float64 `toml:"guests_per_month"`
	GameCheckouts  float64 `toml:"game_checkouts"`
	GroupSize      float64 `toml:"group_size"`
	RetailMonthly  float64 `toml:"retail_monthly"`
	SnackPerVisit  float64 `toml:"snack_per_visit"`
}

type demandSection struct {
	MixedFillFactor float64 `toml:"mixed_fill_factor"`
	ShareTolerance  float64 `toml:"share_tolerance"`
}

type solverSection struct {
	NodeLimit       int              `toml:"node_limit"`
	DefaultCeiling  float64          `toml:"default_ceiling"`
	Splits          []splitEntry     `toml:"splits"`
	MixedSplitSeats []mixedSplitSeat `toml:"mixed_split_seats"`
	Ceilings        []ceilingEntry   `toml:"ceilings"`
	Weights         weightsSection   `toml:"weights"`
}

type splitEntry struct {
	Host    int `toml:"host"`
	Serves  int `toml:"serves"`
	Parties int `toml:"parties"`
}

type mixedSplitSeat struct {
	Seats      int `toml:"seats"`
	SplitSeats int `toml:"split_seats"`
}

type ceilingEntry struct {
	Seats    int     `toml:"seats"`
	Fraction float64 `toml:"fraction"`
}

type weightsSection struct {
	Reserved     float64 `toml:"reserved"`
	Mixed        float64 `toml:"mixed"`
	SplitPenalty float64 `toml:"split_penalty"`
	SizeStep     float64 `toml:"size_step"`
	Overflow     float64 `toml:"overflow"`
}

type pricingSection struct {
	GuestPrice              float64 `toml:"guest_price"`
	BaseVisitValue          float64 `toml:"base_visit_value"`
	MixedValue              float64 `toml:"mixed_value"`
	GameCheckoutValue       float64 `toml:"game_checkout_value"`
	BaseValueCap            float64 `toml:"base_value_cap"`
	GuestSpendingMultiplier float64 `toml:"guest_spending_multiplier"`
}

type planEntry struct {
	Name              string  `toml:"name"`
	Price             float64 `toml:"price"`
	GuestPasses       int     `toml:"guest_passes"`
	RetailDiscount    float64 `toml:"retail_discount"`
	SnackDiscount     float64 `toml:"snack_discount"`
	MixedAccess       bool    `toml:"mixed_access"`
	AdditionalMembers int     `toml:"additional_members"`
	GameCheckouts     int     `toml:"game_checkouts"`
}

// LoadScenario reads and validates a TOML scenario file. An empty path returns the defaults.
func LoadScenario(path string) (models.Scenario, error) {
	if path == "" {
		return DefaultScenario(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return models.Scenario{}, fmt.Errorf("opening scenario: %w", err)
	}
	defer f.Close()

	s, err := DecodeScenario(f)
	if err != nil {
		return models.Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// DecodeScenario parses a TOML scenario. Unknown keys are rejected.
func DecodeScenario(r io.Reader) (models.Scenario, error) {
	var file scenarioFile
	md, err := toml.NewDecoder(r).Decode(&file)
	if err != nil {
		return models.Scenario{}, &models.ConfigurationError{Field: "scenario", Reason: err.Error()}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return models.Scenario{}, &models.ConfigurationError{Field: undecoded[0].String(), Reason: "unknown key"}
	}

	s := DefaultScenario()
	if md.IsDefined("name") {
		s.Name = file.Name
	}
	if md.IsDefined("candidates") {
		s.Candidates = file.Candidates
	}
	if md.IsDefined("tables") {
		s.Inventory = models.TableInventory{}
		for _, t := range file.Tables {
			if _, dup := s.Inventory[t.Seats]; dup {
				return models.Scenario{}, &models.ConfigurationError{Field: "tables", Reason: fmt.Sprintf("size %d listed twice", t.Seats)}
			}
			s.Inventory[t.Seats] = t.Count
		}
	}
	if md.IsDefined("schedule") {
		s.Schedule = models.OperatingSchedule(file.Schedule)
	}
	if md.IsDefined("personas") {
		s.Personas = make(map[string]models.PersonaProfile, len(file.Personas))
		for name, p := range file.Personas {
			s.Personas[name] = models.PersonaProfile(p)
		}
	}
	if md.IsDefined("demand") {
		s.Demand = models.DemandPolicy(file.Demand)
	}
	if md.IsDefined("solver") {
		applySolverSection(&s.Solver, file.Solver, md)
	}
	if md.IsDefined("pricing") {
		s.Pricing = models.Pricing(file.Pricing)
	}
	if md.IsDefined("plans") {
		s.Plans = make([]models.Plan, 0, len(file.Plans))
		for _, p := range file.Plans {
			s.Plans = append(s.Plans, models.Plan{
				Name:  p.Name,
				Price: p.Price,
				Features: models.PlanFeatures{
					GuestPasses:       p.GuestPasses,
					RetailDiscount:    p.RetailDiscount,
					SnackDiscount:     p.SnackDiscount,
					MixedAccess:       p.MixedAccess,
					AdditionalMembers: p.AdditionalMembers,
					GameCheckouts:     p.GameCheckouts,
				},
			})
		}
	}

	if err := s.Validate(); err != nil {
		return models.Scenario{}, err
	}
	return s, nil
}

func applySolverSection(p *models.SolverPolicy, sec solverSection, md toml.MetaData) {
	if md.IsDefined("solver", "node_limit") {
		p.NodeLimit = sec.NodeLimit
	}
	if md.IsDefined("solver", "default_ceiling") {
		p.DefaultCeiling = sec.DefaultCeiling
	}
	if md.IsDefined("solver", "splits") {
		p.SplitYields = map[int]map[int]int{}
		for _, e := range sec.Splits {
			if p.SplitYields[e.Host] == nil {
				p.SplitYields[e.Host] = map[int]int{}
			}
			p.SplitYields[e.Host][e.Serves] = e.Parties
		}
	}
	if md.IsDefined("solver", "mixed_split_seats") {
		p.MixedSplitSeats = map[int]int{}
		for _, e := range sec.MixedSplitSeats {
			p.MixedSplitSeats[e.Seats] = e.SplitSeats
		}
	}
	if md.IsDefined("solver", "ceilings") {
		p.MixedCeilings = map[int]float64{}
		for _, e := range sec.Ceilings {
			p.MixedCeilings[e.Seats] = e.Fraction
		}
	}
	if md.IsDefined("solver", "weights") {
		p.Weights = models.ObjectiveWeights(sec.Weights)
	}
}

// SaveScenario writes the scenario as TOML, replacing the file atomically.
func SaveScenario(path string, s models.Scenario) error {
	if err := s.Validate(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".scenario-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeScenario(tmp, s); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing scenario: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing scenario: %w", err)
	}
	return nil
}

// EncodeScenario writes the scenario in the TOML file layout.
func EncodeScenario(w io.Writer, s models.Scenario) error {
	file := scenarioFile{
		Name:       s.Name,
		Candidates: s.Candidates,
		Schedule:   scheduleSection(s.Schedule),
		Personas:   make(map[string]personaFile, len(s.Personas)),
		Demand:     demandSection(s.Demand),
		Pricing:    pricingSection(s.Pricing),
		Solver: solverSection{
			NodeLimit:      s.Solver.NodeLimit,
			DefaultCeiling: s.Solver.DefaultCeiling,
			Weights:        weightsSection(s.Solver.Weights),
		},
	}
	// A missing key means the default sweep, so an empty list is written out.
	if file.Candidates == nil {
		file.Candidates = []int{}
	}
	for _, size := range s.Inventory.Sizes() {
		file.Tables = append(file.Tables, tableEntry{Seats: size, Count: s.Inventory[size]})
	}
	for name, p := range s.Personas {
		file.Personas[name] = personaFile(p)
	}
	for _, host := range sortedKeys(s.Solver.SplitYields) {
		for _, serves := range sortedKeys(s.Solver.SplitYields[host]) {
			file.Solver.Splits = append(file.Solver.Splits, splitEntry{Host: host, Serves: serves, Parties: s.Solver.SplitYields[host][serves]})
		}
	}
	for _, size := range sortedKeys(s.Solver.MixedSplitSeats) {
		file.Solver.MixedSplitSeats = append(file.Solver.MixedSplitSeats, mixedSplitSeat{Seats: size, SplitSeats: s.Solver.MixedSplitSeats[size]})
	}
	for _, size := range sortedKeys(s.Solver.MixedCeilings) {
		file.Solver.Ceilings = append(file.Solver.Ceilings, ceilingEntry{Seats: size, Fraction: s.Solver.MixedCeilings[size]})
	}
	for _, p := range s.Plans {
		f := p.Features
		file.Plans = append(file.Plans, planEntry{
			Name: p.Name, Price: p.Price, GuestPasses: f.GuestPasses,
			RetailDiscount: f.RetailDiscount, SnackDiscount: f.SnackDiscount, MixedAccess: f.MixedAccess,
			AdditionalMembers: f.AdditionalMembers, GameCheckouts: f.GameCheckouts,
		})
	}

	if err := toml.NewEncoder(w).Encode(file); err != nil {
		return fmt.Errorf("encoding scenario: %w", err)
	}
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
