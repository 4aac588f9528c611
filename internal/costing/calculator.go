// Package costing turns a recipe and an operational cost table into a full
// HPP breakdown. It performs no I/O and keeps no state between calls.
package costing

import (
	"math"
	"time"

	"github.com/hammamikhairi/hppkit/internal/currency"
	"github.com/hammamikhairi/hppkit/internal/domain"
)

const (
	// DefaultHourlyRate is used when the cost table has no labor rate.
	DefaultHourlyRate = 25000

	// BaselineServings is the batch size overhead base amounts refer to.
	BaselineServings = 10
)

// Tier markups over cost per serving and the step each price rounds up to.
const (
	EconomyMarkup  = 1.3
	StandardMarkup = 1.6
	PremiumMarkup  = 2.0

	economyStep  = 500
	standardStep = 500
	premiumStep  = 1000
)

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock sets the clock used for CalculatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

// WithDefaultHourlyRate sets the labor fallback rate.
func WithDefaultHourlyRate(rate float64) Option {
	return func(c *Calculator) {
		c.defaultHourlyRate = rate
	}
}

// Calculator computes cost breakdowns. The zero value is not usable; call New.
type Calculator struct {
	now               func() time.Time
	defaultHourlyRate float64
}

// New creates a calculator.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		now:               time.Now,
		defaultHourlyRate: DefaultHourlyRate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute returns the cost breakdown for recipe given the operational costs.
// Inactive cost items are ignored.
func (c *Calculator) Compute(recipe *domain.Recipe, costs []domain.OperationalCost) (*domain.CostBreakdown, error) {
	if err := Validate(recipe); err != nil {
		return nil, err
	}

	table := activeCosts(costs)

	b := &domain.CostBreakdown{
		RecipeID:     recipe.ID,
		RecipeName:   recipe.Name,
		Servings:     recipe.Servings,
		CalculatedAt: c.now(),
	}

	// Ingredients.
	b.Ingredients = make([]domain.IngredientCost, 0, len(recipe.Ingredients))
	for _, l := range recipe.Ingredients {
		total := l.Quantity * l.PricePerUnit / UnitMultiplier(l.Unit)
		b.Ingredients = append(b.Ingredients, domain.IngredientCost{
			IngredientID: l.IngredientID,
			Name:         l.Name,
			Quantity:     l.Quantity,
			Unit:         l.Unit,
			PricePerUnit: l.PricePerUnit,
			Total:        total,
		})
		b.IngredientTotal += total
	}

	// Labor.
	rate := c.defaultHourlyRate
	if item, ok := table[domain.CostIDLaborRate]; ok {
		rate = item.Amount
	}
	b.Labor = domain.LaborCost{
		PrepMinutes: recipe.PrepMinutes,
		CookMinutes: recipe.CookMinutes,
		HourlyRate:  rate,
		Total:       (recipe.PrepMinutes + recipe.CookMinutes) / 60 * rate,
	}

	// Overhead, scaled by batch duration and size against the baseline.
	b.Overhead = allocateOverhead(table, recipe.Duration(), recipe.Servings)

	// Packaging.
	b.Packaging = make([]domain.PackagingCost, 0, len(recipe.Packaging))
	for _, p := range recipe.Packaging {
		total := p.Quantity * p.CostPerUnit
		b.Packaging = append(b.Packaging, domain.PackagingCost{
			Name:        p.Name,
			Quantity:    p.Quantity,
			CostPerUnit: p.CostPerUnit,
			Total:       total,
		})
		b.PackagingTotal += total
	}

	b.TotalDirect = b.IngredientTotal + b.Labor.Total + b.PackagingTotal
	b.TotalIndirect = b.Overhead.Total
	b.TotalCost = b.TotalDirect + b.TotalIndirect
	b.CostPerServing = b.TotalCost / float64(recipe.Servings)
	b.Pricing = SuggestPrices(b.CostPerServing)

	return b, nil
}

// Validate rejects recipes the calculator cannot price.
func Validate(r *domain.Recipe) error {
	if r == nil {
		return domain.Invalid("recipe", "is nil")
	}
	if r.ID == "" {
		return domain.Invalid("id", "must not be empty")
	}
	if r.Servings <= 0 {
		return domain.Invalid("servings", "must be positive, got %d", r.Servings)
	}
	if r.PrepMinutes < 0 || r.CookMinutes < 0 || r.DurationMinutes < 0 {
		return domain.Invalid("time", "minutes must not be negative")
	}
	for i, l := range r.Ingredients {
		if l.Quantity < 0 || math.IsNaN(l.Quantity) {
			return domain.Invalid("ingredients", "line %d (%s): negative quantity %v", i, l.IngredientID, l.Quantity)
		}
		if l.PricePerUnit < 0 || math.IsNaN(l.PricePerUnit) {
			return domain.Invalid("ingredients", "line %d (%s): negative price %v", i, l.IngredientID, l.PricePerUnit)
		}
	}
	for i, p := range r.Packaging {
		if p.Quantity < 0 || p.CostPerUnit < 0 {
			return domain.Invalid("packaging", "line %d (%s): negative quantity or cost", i, p.Name)
		}
	}
	return nil
}

// activeCosts indexes active items by id.
func activeCosts(costs []domain.OperationalCost) map[string]domain.OperationalCost {
	out := make(map[string]domain.OperationalCost, len(costs))
	for _, c := range costs {
		if c.Active {
			out[c.ID] = c
		}
	}
	return out
}

// overheadSources maps the well-known cost ids to their overhead bucket.
// Every other active non-labor item lands in OverheadOther.
var overheadSources = map[string]domain.OverheadCategory{
	domain.CostIDElectricity:  domain.OverheadElectricity,
	domain.CostIDGas:          domain.OverheadGas,
	domain.CostIDRent:         domain.OverheadRent,
	domain.CostIDDepreciation: domain.OverheadDepreciation,
}

func allocateOverhead(table map[string]domain.OperationalCost, durationMinutes float64, servings int) domain.OverheadCost {
	base := make(map[domain.OverheadCategory]float64, len(domain.OverheadCategories))
	for id, item := range table {
		if item.Category == domain.CostLabor {
			continue
		}
		cat, ok := overheadSources[id]
		if !ok {
			cat = domain.OverheadOther
		}
		base[cat] += item.Amount
	}

	factor := (durationMinutes / 60) * (float64(servings) / BaselineServings)

	oh := domain.OverheadCost{Allocations: make(map[domain.OverheadCategory]float64, len(domain.OverheadCategories))}
	for _, cat := range domain.OverheadCategories {
		amount := base[cat] * factor
		oh.Allocations[cat] = amount
		oh.Total += amount
	}
	return oh
}

// SuggestPrices derives the three price tiers from a cost per serving.
// Tiers are always strictly increasing: when rounding collapses two tiers,
// the higher one moves up by its own rounding step.
func SuggestPrices(costPerServing float64) domain.SuggestedPricing {
	economy := currency.RoundUpTo(costPerServing*EconomyMarkup, economyStep)

	standard := currency.RoundUpTo(costPerServing*StandardMarkup, standardStep)
	if standard <= economy {
		standard = economy + standardStep
	}

	premium := currency.RoundUpTo(costPerServing*PremiumMarkup, premiumStep)
	if premium <= standard {
		premium = currency.RoundUpTo(standard+1, premiumStep)
	}

	return domain.SuggestedPricing{
		Economy:  tier(economy, costPerServing),
		Standard: tier(standard, costPerServing),
		Premium:  tier(premium, costPerServing),
	}
}

func tier(price, costPerServing float64) domain.PriceTier {
	margin := 0.0
	if price > 0 {
		margin = (price - costPerServing) / price * 100
	}
	return domain.PriceTier{Price: price, MarginPercent: margin}
}
