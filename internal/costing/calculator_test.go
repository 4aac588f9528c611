package costing

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/hammamikhairi/hppkit/internal/domain"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func seedCosts(laborRate float64) []domain.OperationalCost {
	return []domain.OperationalCost{
		{ID: domain.CostIDLaborRate, Category: domain.CostLabor, Amount: laborRate, Active: true, AutoAllocate: true},
		{ID: domain.CostIDElectricity, Category: domain.CostUtility, Amount: 5000, Active: true, AutoAllocate: true},
		{ID: domain.CostIDGas, Category: domain.CostUtility, Amount: 3000, Active: true, AutoAllocate: true},
		{ID: domain.CostIDRent, Category: domain.CostRent, Amount: 2000, Active: true},
		{ID: domain.CostIDDepreciation, Category: domain.CostDepreciation, Amount: 1000, Active: true},
	}
}

// brownies totals 50,000 of ingredients and 3,000 of packaging.
func brownies() *domain.Recipe {
	return &domain.Recipe{
		ID:          "brownies",
		Name:        "Fudge Brownies",
		Servings:    10,
		PrepMinutes: 20,
		CookMinutes: 40,
		Ingredients: []domain.IngredientLine{
			{IngredientID: "flour", Name: "Flour", Quantity: 1000, Unit: "g", PricePerUnit: 12000},
			{IngredientID: "butter", Name: "Butter", Quantity: 500, Unit: "g", PricePerUnit: 60000},
			{IngredientID: "egg", Name: "Egg", Quantity: 4, Unit: "pcs", PricePerUnit: 2000},
		},
		Packaging: []domain.PackagingLine{
			{Name: "Box", Quantity: 10, CostPerUnit: 300},
		},
	}
}

func TestComputeWorkedExample(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	calc := New(WithClock(func() time.Time { return at }))

	b, err := calc.Compute(brownies(), seedCosts(50000))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	nearlyEqual(t, "ingredients", b.IngredientTotal, 50000)
	nearlyEqual(t, "labor", b.Labor.Total, 50000)
	nearlyEqual(t, "overhead", b.Overhead.Total, 11000)
	nearlyEqual(t, "packaging", b.PackagingTotal, 3000)
	nearlyEqual(t, "total", b.TotalCost, 50000+50000+11000+3000)
	nearlyEqual(t, "per serving", b.CostPerServing, 11400)

	nearlyEqual(t, "economy", b.Pricing.Economy.Price, 15000)
	nearlyEqual(t, "standard", b.Pricing.Standard.Price, math.Ceil(11400*1.6/500)*500)
	nearlyEqual(t, "premium", b.Pricing.Premium.Price, 23000)

	nearlyEqual(t, "electricity", b.Overhead.Allocations[domain.OverheadElectricity], 5000)
	nearlyEqual(t, "other", b.Overhead.Allocations[domain.OverheadOther], 0)

	if !b.CalculatedAt.Equal(at) {
		t.Fatalf("calculated at = %s, want %s", b.CalculatedAt, at)
	}
}

func TestComputeInvariants(t *testing.T) {
	calc := New()

	recipes := []*domain.Recipe{
		brownies(),
		{ID: "water", Name: "Water", Servings: 1},
		{
			ID: "bread", Name: "Bread", Servings: 24, PrepMinutes: 45, CookMinutes: 35, DurationMinutes: 180,
			Ingredients: []domain.IngredientLine{
				{IngredientID: "flour", Quantity: 2500, Unit: "gram", PricePerUnit: 12000},
				{IngredientID: "yeast", Quantity: 25, Unit: "g", PricePerUnit: 90000},
				{IngredientID: "milk", Quantity: 750, Unit: "ml", PricePerUnit: 18000},
			},
		},
		{
			ID: "cookie", Name: "Cookie", Servings: 3, PrepMinutes: 5, CookMinutes: 12,
			Ingredients: []domain.IngredientLine{{IngredientID: "choc", Quantity: 1, Unit: "pcs", PricePerUnit: 137}},
		},
	}

	for _, r := range recipes {
		t.Run(r.ID, func(t *testing.T) {
			b, err := calc.Compute(r, seedCosts(25000))
			if err != nil {
				t.Fatalf("compute: %v", err)
			}
			nearlyEqual(t, "total", b.TotalCost, b.TotalDirect+b.TotalIndirect)
			nearlyEqual(t, "per serving", b.CostPerServing, b.TotalCost/float64(r.Servings))

			p := b.Pricing
			if !(p.Economy.Price < p.Standard.Price && p.Standard.Price < p.Premium.Price) {
				t.Fatalf("tiers not ordered: %+v", p)
			}
			for name, tier := range map[string]domain.PriceTier{"economy": p.Economy, "standard": p.Standard, "premium": p.Premium} {
				if tier.Price < b.CostPerServing {
					t.Fatalf("%s price %v below cost per serving %v", name, tier.Price, b.CostPerServing)
				}
			}
		})
	}
}

func TestComputeOverheadScalesWithDurationAndServings(t *testing.T) {
	calc := New()
	costs := seedCosts(25000)

	r := brownies()
	base, err := calc.Compute(r, costs)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	r.DurationMinutes = 120
	r.Servings = 20
	scaled, err := calc.Compute(r, costs)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}

	nearlyEqual(t, "scaled overhead", scaled.Overhead.Total, base.Overhead.Total*4)
}

func TestComputeIgnoresInactiveAndFallsBackOnLaborRate(t *testing.T) {
	calc := New(WithDefaultHourlyRate(30000))
	costs := []domain.OperationalCost{
		{ID: domain.CostIDElectricity, Category: domain.CostUtility, Amount: 5000, Active: false},
		{ID: "water_bill", Category: domain.CostUtility, Amount: 600, Active: true},
	}

	b, err := calc.Compute(brownies(), costs)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	nearlyEqual(t, "labor", b.Labor.Total, 30000)
	nearlyEqual(t, "hourly rate", b.Labor.HourlyRate, 30000)
	nearlyEqual(t, "electricity", b.Overhead.Allocations[domain.OverheadElectricity], 0)
	nearlyEqual(t, "other", b.Overhead.Allocations[domain.OverheadOther], 600)
}

func TestComputeRejectsMalformedRecipes(t *testing.T) {
	calc := New()

	tests := []struct {
		name   string
		mutate func(r *domain.Recipe)
	}{
		{"zero servings", func(r *domain.Recipe) { r.Servings = 0 }},
		{"negative servings", func(r *domain.Recipe) { r.Servings = -3 }},
		{"negative quantity", func(r *domain.Recipe) { r.Ingredients[0].Quantity = -1 }},
		{"negative price", func(r *domain.Recipe) { r.Ingredients[1].PricePerUnit = -5 }},
		{"negative minutes", func(r *domain.Recipe) { r.CookMinutes = -10 }},
		{"negative packaging", func(r *domain.Recipe) { r.Packaging[0].Quantity = -2 }},
		{"missing id", func(r *domain.Recipe) { r.ID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := brownies()
			tt.mutate(r)
			_, err := calc.Compute(r, seedCosts(25000))
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUnitMultiplier(t *testing.T) {
	tests := []struct {
		unit string
		want float64
	}{
		{"g", 1000},
		{"GR", 1000},
		{" ml ", 1000},
		{"kg", 1},
		{"pcs", 1},
		{"", 1},
	}
	for _, tt := range tests {
		if got := UnitMultiplier(tt.unit); got != tt.want {
			t.Errorf("UnitMultiplier(%q) = %v, want %v", tt.unit, got, tt.want)
		}
	}
}

func TestSuggestPricesCollapsedTiers(t *testing.T) {
	p := SuggestPrices(100)
	nearlyEqual(t, "economy", p.Economy.Price, 500)
	nearlyEqual(t, "standard", p.Standard.Price, 1000)
	nearlyEqual(t, "premium", p.Premium.Price, 2000)

	zero := SuggestPrices(0)
	if !(zero.Economy.Price < zero.Standard.Price && zero.Standard.Price < zero.Premium.Price) {
		t.Fatalf("tiers not ordered for zero cost: %+v", zero)
	}
}
