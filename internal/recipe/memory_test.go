package recipe

import (
	"context"
	"errors"
	"testing"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

func TestMemorySourceGetRecipe(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	tests := []struct {
		id      string
		wantErr error
	}{
		{"butter-croissant", nil},
		{"baguette", nil},
		{"fudge-brownie", nil},
		{"nonexistent", domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r, err := src.GetRecipe(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.ID != tt.id {
				t.Fatalf("expected ID %s, got %s", tt.id, r.ID)
			}
			if len(r.Ingredients) == 0 || r.Servings <= 0 {
				t.Fatalf("incomplete recipe: %+v", r)
			}
		})
	}
}

func TestMemorySourceReturnsCopies(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	r, _ := src.GetRecipe(ctx, "baguette")
	r.Ingredients[0].PricePerUnit = 1
	r.Servings = 99

	again, _ := src.GetRecipe(ctx, "baguette")
	if again.Servings != 4 || again.Ingredients[0].PricePerUnit == 1 {
		t.Fatal("caller mutation leaked into the source")
	}
}

func TestFindRecipesUsingIngredient(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	tests := []struct {
		ingredient string
		want       []string
	}{
		{Flour, []string{"Baguette", "Butter Croissant", "Fudge Brownie"}},
		{Butter, []string{"Butter Croissant", "Fudge Brownie"}},
		{Chocolate, []string{"Fudge Brownie"}},
		{"saffron", nil},
	}

	for _, tt := range tests {
		t.Run(tt.ingredient, func(t *testing.T) {
			refs, err := src.FindRecipesUsingIngredient(ctx, tt.ingredient)
			if err != nil {
				t.Fatalf("find: %v", err)
			}
			if len(refs) != len(tt.want) {
				t.Fatalf("expected %d recipes, got %+v", len(tt.want), refs)
			}
			for i, ref := range refs {
				if ref.Name != tt.want[i] {
					t.Fatalf("position %d: expected %s, got %s", i, tt.want[i], ref.Name)
				}
			}
		})
	}
}

func TestSetIngredientPrice(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	old, err := src.SetIngredientPrice(ctx, Butter, 138000)
	if err != nil {
		t.Fatalf("set price: %v", err)
	}
	if old != 120000 {
		t.Fatalf("old price = %v", old)
	}

	for _, id := range []string{"butter-croissant", "fudge-brownie"} {
		r, _ := src.GetRecipe(ctx, id)
		for _, l := range r.Ingredients {
			if l.IngredientID == Butter && l.PricePerUnit != 138000 {
				t.Fatalf("%s still prices butter at %v", id, l.PricePerUnit)
			}
		}
	}

	ing, _ := src.GetIngredient(ctx, Butter)
	if ing.PricePerUnit != 138000 {
		t.Fatalf("ingredient price = %v", ing.PricePerUnit)
	}

	if _, err := src.SetIngredientPrice(ctx, "saffron", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := src.SetIngredientPrice(ctx, Butter, -1); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPutRecipe(t *testing.T) {
	src := NewEmptySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	if err := src.PutIngredient(ctx, domain.Ingredient{ID: "rice", Name: "Rice", Unit: "kg", PricePerUnit: 15000}); err != nil {
		t.Fatalf("put ingredient: %v", err)
	}

	err := src.PutRecipe(ctx, &domain.Recipe{
		ID: "nasi", Name: "Nasi putih", Servings: 5,
		Ingredients: []domain.IngredientLine{{IngredientID: "rice", Quantity: 500, Unit: "g"}},
	})
	if err != nil {
		t.Fatalf("put recipe: %v", err)
	}

	r, _ := src.GetRecipe(ctx, "nasi")
	if r.Ingredients[0].PricePerUnit != 15000 || r.Ingredients[0].Name != "Rice" {
		t.Fatalf("line not filled from ingredient: %+v", r.Ingredients[0])
	}

	err = src.PutRecipe(ctx, &domain.Recipe{
		ID: "bad", Name: "Bad", Servings: 1,
		Ingredients: []domain.IngredientLine{{IngredientID: "ghost", Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for unknown ingredient, got %v", err)
	}
}

func TestSearchAndListIngredients(t *testing.T) {
	src := NewMemorySource(logger.New(logger.LevelOff, nil))
	ctx := context.Background()

	refs, _ := src.Search(ctx, "BROWN")
	if len(refs) != 1 || refs[0].ID != "fudge-brownie" {
		t.Fatalf("unexpected search result: %+v", refs)
	}

	ings, _ := src.ListIngredients(ctx)
	if len(ings) != len(DemoIngredients()) {
		t.Fatalf("expected %d ingredients, got %d", len(DemoIngredients()), len(ings))
	}
	for i := 1; i < len(ings); i++ {
		if ings[i-1].ID > ings[i].ID {
			t.Fatal("ingredients not sorted")
		}
	}
}
