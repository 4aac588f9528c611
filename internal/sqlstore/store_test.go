package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
	"github.com/hammamikhairi/hppkit/internal/recipe"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hpp.db")
	s, err := Open(context.Background(), DriverSQLite, path, logger.New(logger.LevelOff, nil))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Seed(context.Background(), recipe.DemoIngredients(), recipe.DemoRecipes()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

func TestGetRecipeMatchesSeed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, want := range recipe.DemoRecipes() {
		got, err := s.GetRecipe(ctx, want.ID)
		if err != nil {
			t.Fatalf("get %s: %v", want.ID, err)
		}
		if got.Name != want.Name || got.Servings != want.Servings || got.Duration() != want.Duration() {
			t.Fatalf("%s header mismatch: %+v", want.ID, got)
		}
		if len(got.Ingredients) != len(want.Ingredients) || len(got.Packaging) != len(want.Packaging) {
			t.Fatalf("%s line count mismatch", want.ID)
		}
		for i := range want.Ingredients {
			if got.Ingredients[i] != want.Ingredients[i] {
				t.Fatalf("%s line %d: got %+v, want %+v", want.ID, i, got.Ingredients[i], want.Ingredients[i])
			}
		}
	}

	if _, err := s.GetRecipe(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ids, err := s.ListRecipeIDs(ctx)
	if err != nil || len(ids) != 3 || ids[0] != "baguette" {
		t.Fatalf("unexpected ids %v (%v)", ids, err)
	}

	refs, err := s.FindRecipesUsingIngredient(ctx, recipe.Butter)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(refs) != 2 || refs[0].Name != "Butter Croissant" || refs[1].Name != "Fudge Brownie" {
		t.Fatalf("unexpected refs: %+v", refs)
	}

	ings, err := s.ListIngredients(ctx)
	if err != nil || len(ings) != len(recipe.DemoIngredients()) {
		t.Fatalf("unexpected ingredients: %d (%v)", len(ings), err)
	}
}

func TestSetIngredientPriceFlowsIntoRecipes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old, err := s.SetIngredientPrice(ctx, recipe.Flour, 16000)
	if err != nil {
		t.Fatalf("set price: %v", err)
	}
	if old != 14000 {
		t.Fatalf("old price = %v", old)
	}

	r, _ := s.GetRecipe(ctx, "baguette")
	if r.Ingredients[0].PricePerUnit != 16000 {
		t.Fatalf("line price = %v", r.Ingredients[0].PricePerUnit)
	}

	if _, err := s.SetIngredientPrice(ctx, "saffron", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutRecipeReplacesLines(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r, _ := s.GetRecipe(ctx, "baguette")
	r.Ingredients = r.Ingredients[:1]
	r.Packaging = nil
	if err := s.PutRecipe(ctx, r); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, _ := s.GetRecipe(ctx, "baguette")
	if len(got.Ingredients) != 1 || len(got.Packaging) != 0 {
		t.Fatalf("lines not replaced: %+v", got)
	}

	r.Ingredients = append(r.Ingredients, domain.IngredientLine{IngredientID: "ghost", Quantity: 1, Unit: "g"})
	if err := s.PutRecipe(ctx, r); err == nil {
		t.Fatal("expected a foreign key error for an unknown ingredient")
	}
	again, _ := s.GetRecipe(ctx, "baguette")
	if len(again.Ingredients) != 1 {
		t.Fatal("failed put should roll back")
	}
}

func TestSnapshots(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	for i, cps := range []float64{10000, 10400, 12000} {
		err := s.SaveSnapshot(ctx, domain.Snapshot{
			ID:             string(rune('a' + i)),
			RecipeID:       "baguette",
			RecipeName:     "Baguette",
			TotalCost:      cps * 4,
			CostPerServing: cps,
			TakenAt:        base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	latest, err := s.ListSnapshots(ctx, "baguette", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(latest) != 2 || latest[0].CostPerServing != 12000 || latest[1].CostPerServing != 10400 {
		t.Fatalf("unexpected snapshots: %+v", latest)
	}
	if !latest[0].TakenAt.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("taken_at round trip: %v", latest[0].TakenAt)
	}

	all, _ := s.ListSnapshots(ctx, "baguette", 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(all))
	}
}

func TestRebindDollar(t *testing.T) {
	got := rebindDollar(`SELECT a FROM t WHERE b = ? AND c = ? LIMIT ?`)
	want := `SELECT a FROM t WHERE b = $1 AND c = $2 LIMIT $3`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct{ in, want string }{
		{"hpp.db", "hpp.db?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"file:hpp.db?cache=shared", "file:hpp.db?cache=shared&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"hpp.db?_pragma=foreign_keys(0)", "hpp.db?_pragma=foreign_keys(0)"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "", logger.New(logger.LevelOff, nil)); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}
