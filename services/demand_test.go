// ABOUTME: Tests for the persona demand model
// ABOUTME: Routing, rounding, the mixed fill factor and purity across calls

package services

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/obgclub/capacity-planner/models"
)

func TestComputeDemand_ZeroMembers(t *testing.T) {
	inv := models.TableInventory{2: 4, 4: 6, 8: 3}
	personas := singlePersona(models.PersonaProfile{ReservedVisits: 4, MixedVisits: 2, GroupSize: 4})

	d, err := ComputeDemand(0, inv, schedule82(), personas, models.DefaultDemandPolicy())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !d.IsZero() {
		t.Errorf("Expected zero demand, got %+v", d)
	}
	for _, size := range inv.Sizes() {
		if n, ok := d.Reserved[size]; !ok || n != 0 {
			t.Errorf("Expected Reserved[%d] = 0, got %d (present %v)", size, n, ok)
		}
	}
}

func TestComputeDemand_NoPersonas(t *testing.T) {
	d, err := ComputeDemand(300, models.TableInventory{4: 6}, schedule82(), nil, models.DefaultDemandPolicy())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !d.IsZero() {
		t.Errorf("Expected zero demand without personas, got %+v", d)
	}
}

func TestComputeDemand_SmallFeasibleScenario(t *testing.T) {
	// 50 members x 1 reserved visit / 82 blocks = 0.61 tables per block, rounded up to 1
	inv := models.TableInventory{4: 6, 8: 3}
	personas := singlePersona(models.PersonaProfile{ReservedVisits: 1, GroupSize: 4})

	d, err := ComputeDemand(50, inv, schedule82(), personas, models.DefaultDemandPolicy())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if d.BlocksPerMonth != 82 {
		t.Errorf("Expected 82 blocks, got %d", d.BlocksPerMonth)
	}
	if d.Reserved[4] != 1 {
		t.Errorf("Expected 1 four-top per block, got %d", d.Reserved[4])
	}
	if d.Reserved[8] != 0 || d.MixedSeats != 0 {
		t.Errorf("Expected no other demand, got %+v", d)
	}
	pd := d.ByPersona["regulars"]
	if math.Abs(pd.ReservedTables-50.0/82) > 1e-12 {
		t.Errorf("Expected unrounded attribution 50/82, got %g", pd.ReservedTables)
	}
}

func TestComputeDemand_MixedFillFactor(t *testing.T) {
	// 41 members x 2 mixed visits x 4 seats / 82 blocks = 4 seats, / 0.8 fill = 5 seats
	personas := singlePersona(models.PersonaProfile{MixedVisits: 2, GroupSize: 4})
	policy := models.DemandPolicy{MixedFillFactor: 0.8, ShareTolerance: 0.01}

	d, err := ComputeDemand(41, models.TableInventory{4: 6}, schedule82(), personas, policy)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if d.MixedSeats != 5 {
		t.Errorf("Expected 5 mixed seats, got %d", d.MixedSeats)
	}
	if d.ReservedTotal() != 0 {
		t.Errorf("Fill factor must not create reserved demand, got %v", d.Reserved)
	}
}

func TestComputeDemand_ReservedIgnoresFillFactor(t *testing.T) {
	personas := singlePersona(models.PersonaProfile{ReservedVisits: 2, GroupSize: 4})
	inv := models.TableInventory{4: 6}

	full, _ := ComputeDemand(82, inv, schedule82(), personas, models.DemandPolicy{MixedFillFactor: 1, ShareTolerance: 0.01})
	lossy, _ := ComputeDemand(82, inv, schedule82(), personas, models.DemandPolicy{MixedFillFactor: 0.5, ShareTolerance: 0.01})

	if full.Reserved[4] != 2 || lossy.Reserved[4] != 2 {
		t.Errorf("Expected 2 reserved tables either way, got %d and %d", full.Reserved[4], lossy.Reserved[4])
	}
}

func TestRouteGroup(t *testing.T) {
	sizes := []int{2, 4, 6, 8}

	tests := []struct {
		group   float64
		want    int
		wantErr bool
	}{
		{1, 2, false},
		{2, 2, false},
		{2.5, 4, false},
		{3, 4, false},
		{4, 4, false},
		{5, 6, false},
		{8, 8, false},
		{9, 0, true},
	}

	for _, tt := range tests {
		got, err := RouteGroup(tt.group, sizes)
		if (err != nil) != tt.wantErr {
			t.Errorf("RouteGroup(%g) error = %v, wantErr %v", tt.group, err, tt.wantErr)
			continue
		}
		if err != nil && !models.IsConfigurationError(err) {
			t.Errorf("RouteGroup(%g) expected ConfigurationError, got %T", tt.group, err)
		}
		if got != tt.want {
			t.Errorf("RouteGroup(%g) = %d, want %d", tt.group, got, tt.want)
		}
	}
}

func TestRouteGroup_SmallPartiesUseSmallestTable(t *testing.T) {
	got, err := RouteGroup(2, []int{4, 8})
	if err != nil || got != 4 {
		t.Errorf("Expected 4 with no two-tops, got %d (%v)", got, err)
	}
}

func TestComputeDemand_ConfigurationErrors(t *testing.T) {
	inv := models.TableInventory{2: 4, 4: 6}
	ok := singlePersona(models.PersonaProfile{ReservedVisits: 1, GroupSize: 4})

	tests := []struct {
		name      string
		members   int
		inventory models.TableInventory
		personas  map[string]models.PersonaProfile
	}{
		{"negative members", -1, inv, ok},
		{"negative inventory", 10, models.TableInventory{4: -1}, ok},
		{"group larger than any table", 10, inv, singlePersona(models.PersonaProfile{ReservedVisits: 1, GroupSize: 6})},
		{"shares do not sum to one", 10, inv, map[string]models.PersonaProfile{"a": {Share: 0.4, GroupSize: 2}}},
		{"non-finite visits", 10, inv, singlePersona(models.PersonaProfile{ReservedVisits: math.Inf(1), GroupSize: 2})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeDemand(tt.members, tt.inventory, schedule82(), tt.personas, models.DefaultDemandPolicy())
			if !models.IsConfigurationError(err) {
				t.Errorf("Expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestComputeDemand_NonNegativeAndRoundedUp(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	inv := models.TableInventory{2: 4, 4: 6, 6: 2, 8: 3}

	for i := 0; i < 200; i++ {
		a, b := rng.Float64(), rng.Float64()
		personas := map[string]models.PersonaProfile{
			"a": {Share: a / (a + b), ReservedVisits: rng.Float64() * 10, MixedVisits: rng.Float64() * 5, GroupSize: 1 + rng.Float64()*7},
			"b": {Share: b / (a + b), ReservedVisits: rng.Float64() * 10, MixedVisits: rng.Float64() * 5, GroupSize: 1 + rng.Float64()*7},
		}
		members := rng.Intn(1000)

		d, err := ComputeDemand(members, inv, schedule82(), personas, models.DefaultDemandPolicy())
		if err != nil {
			t.Fatalf("iteration %d: unexpected error %v", i, err)
		}

		raw := map[int]float64{}
		rawMixed := 0.0
		for _, pd := range d.ByPersona {
			if pd.ReservedTables < 0 || pd.MixedSeats < 0 {
				t.Fatalf("iteration %d: negative attribution %+v", i, pd)
			}
			raw[pd.TableSize] += pd.ReservedTables
			rawMixed += pd.MixedSeats
		}
		for size, n := range d.Reserved {
			if n < 0 {
				t.Fatalf("iteration %d: negative Reserved[%d]", i, size)
			}
			if float64(n) < raw[size]-1e-9 || float64(n) >= raw[size]+1 {
				t.Errorf("iteration %d: Reserved[%d] = %d is not the ceiling of %g", i, size, n, raw[size])
			}
		}
		if float64(d.MixedSeats) < rawMixed-1e-9 || float64(d.MixedSeats) >= rawMixed+1 {
			t.Errorf("iteration %d: MixedSeats %d is not the ceiling of %g", i, d.MixedSeats, rawMixed)
		}
	}
}

func TestComputeDemand_Idempotent(t *testing.T) {
	inv := models.TableInventory{2: 4, 4: 6, 6: 2, 8: 3}
	personas := map[string]models.PersonaProfile{
		"families": {Share: 0.6, ReservedVisits: 3, MixedVisits: 2, GroupSize: 4},
		"students": {Share: 0.4, ReservedVisits: 8, MixedVisits: 1, GroupSize: 3},
	}

	first, err := ComputeDemand(250, inv, schedule82(), personas, models.DefaultDemandPolicy())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	// A call for another member count in between must not leak into the next call.
	if _, err := ComputeDemand(900, inv, schedule82(), personas, models.DefaultDemandPolicy()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	second, err := ComputeDemand(250, inv, schedule82(), personas, models.DefaultDemandPolicy())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Demand differs between identical calls\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
