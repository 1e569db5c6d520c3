// ABOUTME: Core data models for table inventory, operating schedule and personas
// ABOUTME: JSON-serializable structures shared by the demand model, solver and API

package models

import (
	"fmt"
	"math"
	"sort"
)

// TableInventory maps a table size (seats) to the number of physical tables of that size.
type TableInventory map[int]int

// Sizes returns the table sizes in ascending order, including sizes with zero tables.
func (inv TableInventory) Sizes() []int {
	sizes := make([]int, 0, len(inv))
	for size := range inv {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}

// Largest returns the largest table size, or 0 for an empty inventory.
func (inv TableInventory) Largest() int {
	largest := 0
	for size := range inv {
		if size > largest {
			largest = size
		}
	}
	return largest
}

// TotalSeats returns the number of seats across every table.
func (inv TableInventory) TotalSeats() int {
	total := 0
	for size, count := range inv {
		total += size * count
	}
	return total
}

// Validate checks that sizes are positive and counts non-negative.
func (inv TableInventory) Validate() error {
	if len(inv) == 0 {
		return &ConfigurationError{Field: "inventory", Reason: "at least one table size is required"}
	}
	for _, size := range inv.Sizes() {
		if size <= 0 {
			return &ConfigurationError{Field: "inventory", Reason: fmt.Sprintf("table size %d must be positive", size)}
		}
		if inv[size] < 0 {
			return &ConfigurationError{Field: fmt.Sprintf("inventory[%d]", size), Reason: fmt.Sprintf("table count %d is negative", inv[size])}
		}
	}
	return nil
}

// OperatingSchedule describes the opening windows that are divided into seating blocks.
type OperatingSchedule struct {
	WeekdayHours        float64 `json:"weekday_hours"`
	WeekendHours        float64 `json:"weekend_hours"`
	WeekdaysPerMonth    float64 `json:"weekdays_per_month"`
	WeekendDaysPerMonth float64 `json:"weekend_days_per_month"`
	BlockHours          float64 `json:"block_hours"`
}

// BlocksPerMonth returns the number of whole seating blocks in a month.
// Partial blocks at the end of a day are not bookable.
func (s OperatingSchedule) BlocksPerMonth() int {
	if s.BlockHours <= 0 {
		return 0
	}
	weekday := math.Floor(s.WeekdayHours / s.BlockHours)
	weekend := math.Floor(s.WeekendHours / s.BlockHours)
	return int(math.Floor(weekday*s.WeekdaysPerMonth + weekend*s.WeekendDaysPerMonth))
}

// Validate checks the schedule yields at least one block.
func (s OperatingSchedule) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"schedule.weekday_hours", s.WeekdayHours},
		{"schedule.weekend_hours", s.WeekendHours},
		{"schedule.weekdays_per_month", s.WeekdaysPerMonth},
		{"schedule.weekend_days_per_month", s.WeekendDaysPerMonth},
		{"schedule.block_hours", s.BlockHours},
	}
	for _, f := range fields {
		if err := checkNonNegative(f.name, f.value); err != nil {
			return err
		}
	}
	if s.BlockHours == 0 {
		return &ConfigurationError{Field: "schedule.block_hours", Reason: "must be positive"}
	}
	if s.BlocksPerMonth() <= 0 {
		return &ConfigurationError{Field: "schedule", Reason: "opening hours yield no seating blocks"}
	}
	return nil
}

// PersonaProfile holds the behaviour of one customer segment.
type PersonaProfile struct {
	Share          float64 `json:"share"`
	PricePerVisit  float64 `json:"price_per_visit"`
	ReservedVisits float64 `json:"reserved_visits"`
	MixedVisits    float64 `json:"mixed_visits"`
	GuestsPerMonth float64 `json:"guests_per_month"`
	GameCheckouts  float64 `json:"game_checkouts"`
	GroupSize      float64 `json:"group_size"`
	RetailMonthly  float64 `json:"retail_monthly"`
	SnackPerVisit  float64 `json:"snack_per_visit"`
}

// TotalVisits returns reserved plus mixed visits per month.
func (p PersonaProfile) TotalVisits() float64 {
	return p.ReservedVisits + p.MixedVisits
}

// Validate checks that every numeric field is finite and non-negative.
func (p PersonaProfile) Validate(name string) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"share", p.Share},
		{"price_per_visit", p.PricePerVisit},
		{"reserved_visits", p.ReservedVisits},
		{"mixed_visits", p.MixedVisits},
		{"guests_per_month", p.GuestsPerMonth},
		{"game_checkouts", p.GameCheckouts},
		{"group_size", p.GroupSize},
		{"retail_monthly", p.RetailMonthly},
		{"snack_per_visit", p.SnackPerVisit},
	}
	for _, f := range fields {
		if err := checkNonNegative(fmt.Sprintf("personas.%s.%s", name, f.name), f.value); err != nil {
			return err
		}
	}
	if p.Share > 1 {
		return &ConfigurationError{Field: fmt.Sprintf("personas.%s.share", name), Reason: "must not exceed 1"}
	}
	if p.GroupSize == 0 && p.TotalVisits() > 0 {
		return &ConfigurationError{Field: fmt.Sprintf("personas.%s.group_size", name), Reason: "must be positive for a persona that visits"}
	}
	return nil
}

// PersonaNames returns persona names in a stable order.
func PersonaNames(personas map[string]PersonaProfile) []string {
	names := make([]string, 0, len(personas))
	for name := range personas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidatePersonas checks each profile and that shares sum to 1 within tolerance.
// An empty persona set is valid and produces no demand.
func ValidatePersonas(personas map[string]PersonaProfile, tolerance float64) error {
	if len(personas) == 0 {
		return nil
	}
	total := 0.0
	for _, name := range PersonaNames(personas) {
		p := personas[name]
		if err := p.Validate(name); err != nil {
			return err
		}
		total += p.Share
	}
	if math.Abs(total-1) > tolerance {
		return &ConfigurationError{
			Field:  "personas",
			Reason: fmt.Sprintf("population shares sum to %.4f, expected 1 (tolerance %.2f)", total, tolerance),
		}
	}
	return nil
}

func checkNonNegative(field string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &ConfigurationError{Field: field, Reason: "must be a finite number"}
	}
	if value < 0 {
		return &ConfigurationError{Field: field, Reason: fmt.Sprintf("%g is negative", value)}
	}
	return nil
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    int    `json:"code"`
}
