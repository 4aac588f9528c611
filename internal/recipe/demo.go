package recipe

import "github.com/hammamikhairi/hppkit/internal/domain"

// Demo ingredient ids.
const (
	Flour     = "flour"
	Butter    = "butter"
	Sugar     = "sugar"
	Eggs      = "eggs"
	Milk      = "milk"
	Yeast     = "yeast"
	Salt      = "salt"
	Chocolate = "dark-chocolate"
)

// DemoIngredients returns the ingredient list of a small bakery. Prices are
// in rupiah per kilogram, litre or piece.
func DemoIngredients() []domain.Ingredient {
	return []domain.Ingredient{
		{ID: Flour, Name: "Bread flour", Unit: "kg", PricePerUnit: 14000},
		{ID: Butter, Name: "Butter", Unit: "kg", PricePerUnit: 120000},
		{ID: Sugar, Name: "Granulated sugar", Unit: "kg", PricePerUnit: 16000},
		{ID: Eggs, Name: "Eggs", Unit: "pcs", PricePerUnit: 2500},
		{ID: Milk, Name: "Fresh milk", Unit: "l", PricePerUnit: 20000},
		{ID: Yeast, Name: "Instant yeast", Unit: "kg", PricePerUnit: 90000},
		{ID: Salt, Name: "Sea salt", Unit: "kg", PricePerUnit: 12000},
		{ID: Chocolate, Name: "Dark chocolate", Unit: "kg", PricePerUnit: 150000},
	}
}

// DemoRecipes returns the bakery's recipes, priced from DemoIngredients.
func DemoRecipes() []*domain.Recipe {
	prices := make(map[string]domain.Ingredient)
	for _, ing := range DemoIngredients() {
		prices[ing.ID] = ing
	}
	line := func(id string, qty float64, unit string) domain.IngredientLine {
		ing := prices[id]
		return domain.IngredientLine{IngredientID: id, Name: ing.Name, Quantity: qty, Unit: unit, PricePerUnit: ing.PricePerUnit}
	}

	return []*domain.Recipe{
		{
			ID:          "butter-croissant",
			Name:        "Butter Croissant",
			Servings:    12,
			PrepMinutes: 90,
			CookMinutes: 20,
			Ingredients: []domain.IngredientLine{
				line(Flour, 500, "g"),
				line(Butter, 280, "g"),
				line(Sugar, 55, "g"),
				line(Milk, 150, "ml"),
				line(Yeast, 10, "g"),
				line(Salt, 10, "g"),
				line(Eggs, 1, "pcs"),
			},
			Packaging: []domain.PackagingLine{
				{Name: "Paper bag", Quantity: 12, CostPerUnit: 500},
			},
		},
		{
			ID:          "baguette",
			Name:        "Baguette",
			Servings:    4,
			PrepMinutes: 60,
			CookMinutes: 25,
			Ingredients: []domain.IngredientLine{
				line(Flour, 1000, "g"),
				line(Yeast, 8, "g"),
				line(Salt, 20, "g"),
			},
			Packaging: []domain.PackagingLine{
				{Name: "Bread sleeve", Quantity: 4, CostPerUnit: 300},
			},
		},
		{
			ID:              "fudge-brownie",
			Name:            "Fudge Brownie",
			Servings:        16,
			PrepMinutes:     25,
			CookMinutes:     35,
			DurationMinutes: 75,
			Ingredients: []domain.IngredientLine{
				line(Chocolate, 200, "g"),
				line(Butter, 150, "g"),
				line(Sugar, 250, "g"),
				line(Eggs, 4, "pcs"),
				line(Flour, 120, "g"),
			},
			Packaging: []domain.PackagingLine{
				{Name: "Brownie box", Quantity: 2, CostPerUnit: 2500},
			},
		},
	}
}
