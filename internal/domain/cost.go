package domain

import "time"

// CostCategory classifies an operational cost line item.
type CostCategory string

const (
	CostLabor        CostCategory = "labor"
	CostOverhead     CostCategory = "overhead"
	CostUtility      CostCategory = "utility"
	CostRent         CostCategory = "rent"
	CostDepreciation CostCategory = "depreciation"
)

// Valid reports whether c is one of the known categories.
func (c CostCategory) Valid() bool {
	switch c {
	case CostLabor, CostOverhead, CostUtility, CostRent, CostDepreciation:
		return true
	}
	return false
}

// BillingPeriod is how often an operational cost is incurred.
type BillingPeriod string

const (
	PeriodHourly   BillingPeriod = "hourly"
	PeriodDaily    BillingPeriod = "daily"
	PeriodMonthly  BillingPeriod = "monthly"
	PeriodPerBatch BillingPeriod = "per_batch"
)

// Well-known operational cost ids read by the calculator.
const (
	CostIDLaborRate    = "labor_hourly_rate"
	CostIDElectricity  = "electricity"
	CostIDGas          = "gas"
	CostIDRent         = "rent"
	CostIDDepreciation = "depreciation"
)

// OperationalCost is a labor or overhead line item.
type OperationalCost struct {
	ID           string        `json:"id"`
	Category     CostCategory  `json:"category"`
	Name         string        `json:"name"`
	Amount       float64       `json:"amount"`
	Period       BillingPeriod `json:"period"`
	Active       bool          `json:"active"`
	AutoAllocate bool          `json:"auto_allocate"` // changes cascade into every recipe
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Validate checks the item before it enters the registry.
func (c *OperationalCost) Validate() error {
	if c.ID == "" {
		return Invalid("id", "must not be empty")
	}
	if !c.Category.Valid() {
		return Invalid("category", "unknown category %q", c.Category)
	}
	if c.Amount < 0 {
		return Invalid("amount", "must not be negative, got %v", c.Amount)
	}
	return nil
}

// OverheadCategory is a bucket the calculator allocates overhead into.
type OverheadCategory string

const (
	OverheadElectricity  OverheadCategory = "electricity"
	OverheadGas          OverheadCategory = "gas"
	OverheadRent         OverheadCategory = "rent"
	OverheadDepreciation OverheadCategory = "depreciation"
	OverheadOther        OverheadCategory = "other"
)

// OverheadCategories lists buckets in display order.
var OverheadCategories = []OverheadCategory{
	OverheadElectricity,
	OverheadGas,
	OverheadRent,
	OverheadDepreciation,
	OverheadOther,
}

// CostBreakdown is the full HPP result for one recipe.
type CostBreakdown struct {
	RecipeID   string `json:"recipe_id"`
	RecipeName string `json:"recipe_name"`
	Servings   int    `json:"servings"`

	Ingredients    []IngredientCost `json:"ingredients"`
	Labor          LaborCost        `json:"labor"`
	Overhead       OverheadCost     `json:"overhead"`
	Packaging      []PackagingCost  `json:"packaging"`
	PackagingTotal float64          `json:"packaging_total"`

	IngredientTotal float64 `json:"ingredient_total"`
	TotalDirect     float64 `json:"total_direct"`   // ingredients + labor + packaging
	TotalIndirect   float64 `json:"total_indirect"` // overhead
	TotalCost       float64 `json:"total_cost"`
	CostPerServing  float64 `json:"cost_per_serving"`

	Pricing SuggestedPricing `json:"pricing"`

	CalculatedAt time.Time `json:"calculated_at"`
	Stale        bool      `json:"stale"`
}

// Clone returns a deep copy.
func (b *CostBreakdown) Clone() *CostBreakdown {
	c := *b
	c.Ingredients = append([]IngredientCost(nil), b.Ingredients...)
	c.Packaging = append([]PackagingCost(nil), b.Packaging...)
	if b.Overhead.Allocations != nil {
		c.Overhead.Allocations = make(map[OverheadCategory]float64, len(b.Overhead.Allocations))
		for k, v := range b.Overhead.Allocations {
			c.Overhead.Allocations[k] = v
		}
	}
	return &c
}

// IngredientCost is a priced ingredient line.
type IngredientCost struct {
	IngredientID string  `json:"ingredient_id"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	PricePerUnit float64 `json:"price_per_unit"`
	Total        float64 `json:"total"`
}

// LaborCost is the labor block of a breakdown.
type LaborCost struct {
	PrepMinutes float64 `json:"prep_minutes"`
	CookMinutes float64 `json:"cook_minutes"`
	HourlyRate  float64 `json:"hourly_rate"`
	Total       float64 `json:"total"`
}

// OverheadCost holds per-category overhead allocations.
type OverheadCost struct {
	Allocations map[OverheadCategory]float64 `json:"allocations"`
	Total       float64                      `json:"total"`
}

// PackagingCost is a priced packaging line.
type PackagingCost struct {
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	CostPerUnit float64 `json:"cost_per_unit"`
	Total       float64 `json:"total"`
}

// PriceTier is one suggested selling price.
type PriceTier struct {
	Price         float64 `json:"price"`
	MarginPercent float64 `json:"margin_percent"`
}

// SuggestedPricing holds the three market-facing price tiers.
type SuggestedPricing struct {
	Economy  PriceTier `json:"economy"`
	Standard PriceTier `json:"standard"`
	Premium  PriceTier `json:"premium"`
}
