// Package domain defines the core types and interfaces for the HPP
// (cost-of-goods-produced) engine. All other packages depend on domain;
// domain depends on nothing outside the standard library.
package domain

// Ingredient is a purchasable input owned by the recipe data provider.
// PricePerUnit is quoted per kilogram/litre for mass and volume units and per
// piece for countable units.
type Ingredient struct {
	ID           string
	Name         string
	Unit         string
	PricePerUnit float64
}

// RecipeRef identifies a recipe without loading it.
type RecipeRef struct {
	ID   string
	Name string
}

// Recipe is a production formula: what goes in, how long it takes, and how
// many servings come out.
type Recipe struct {
	ID              string
	Name            string
	Servings        int
	PrepMinutes     float64
	CookMinutes     float64
	DurationMinutes float64 // batch duration for overhead; prep+cook when zero
	Ingredients     []IngredientLine
	Packaging       []PackagingLine
}

// IngredientLine is one ingredient quantity within a recipe.
type IngredientLine struct {
	IngredientID string
	Name         string
	Quantity     float64
	Unit         string // "g", "ml", "kg", "pcs", ...
	PricePerUnit float64
}

// PackagingLine is one packaging item used per batch.
type PackagingLine struct {
	Name        string
	Quantity    float64
	CostPerUnit float64
}

// Duration returns the batch duration in minutes used for overhead
// allocation.
func (r *Recipe) Duration() float64 {
	if r.DurationMinutes > 0 {
		return r.DurationMinutes
	}
	return r.PrepMinutes + r.CookMinutes
}

// Clone returns a deep copy so callers can adjust prices without touching
// the provider's data.
func (r *Recipe) Clone() *Recipe {
	c := *r
	c.Ingredients = append([]IngredientLine(nil), r.Ingredients...)
	c.Packaging = append([]PackagingLine(nil), r.Packaging...)
	return &c
}

// WithIngredientPrice returns a copy of the recipe where every line using
// ingredientID is priced at price.
func (r *Recipe) WithIngredientPrice(ingredientID string, price float64) *Recipe {
	c := r.Clone()
	for i := range c.Ingredients {
		if c.Ingredients[i].IngredientID == ingredientID {
			c.Ingredients[i].PricePerUnit = price
		}
	}
	return c
}

// UsesIngredient reports whether any line references ingredientID.
func (r *Recipe) UsesIngredient(ingredientID string) bool {
	for _, l := range r.Ingredients {
		if l.IngredientID == ingredientID {
			return true
		}
	}
	return false
}
