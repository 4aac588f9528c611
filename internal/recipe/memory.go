// Package recipe provides an in-memory recipe data provider.
package recipe

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.RecipeProvider   = (*MemorySource)(nil)
	_ domain.IngredientLister = (*MemorySource)(nil)
	_ domain.IngredientGetter = (*MemorySource)(nil)
	_ domain.PriceWriter      = (*MemorySource)(nil)
)

// MemorySource holds recipes and ingredients in memory. Safe for concurrent
// use. Recipes handed out are copies.
type MemorySource struct {
	mu          sync.RWMutex
	recipes     map[string]*domain.Recipe
	ingredients map[string]domain.Ingredient
	log         *logger.Logger
}

// NewMemorySource creates a source preloaded with the demo bakery.
func NewMemorySource(log *logger.Logger) *MemorySource {
	s := NewEmptySource(log)
	for _, ing := range DemoIngredients() {
		s.ingredients[ing.ID] = ing
	}
	for _, r := range DemoRecipes() {
		s.recipes[r.ID] = r
	}
	s.log.Debug("seeded %d recipes, %d ingredients", len(s.recipes), len(s.ingredients))
	return s
}

// NewEmptySource creates a source with no data.
func NewEmptySource(log *logger.Logger) *MemorySource {
	return &MemorySource{
		recipes:     make(map[string]*domain.Recipe),
		ingredients: make(map[string]domain.Ingredient),
		log:         log,
	}
}

// GetRecipe returns a copy of the recipe with the given id.
func (s *MemorySource) GetRecipe(_ context.Context, id string) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		s.log.Debug("recipe not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return r.Clone(), nil
}

// ListRecipeIDs returns every recipe id in sorted order.
func (s *MemorySource) ListRecipeIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.recipes))
	for id := range s.recipes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// FindRecipesUsingIngredient lists recipes with at least one line for the
// ingredient, ordered by name.
func (s *MemorySource) FindRecipesUsingIngredient(_ context.Context, ingredientID string) ([]domain.RecipeRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.RecipeRef
	for _, r := range s.recipes {
		if r.UsesIngredient(ingredientID) {
			out = append(out, domain.RecipeRef{ID: r.ID, Name: r.Name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Search returns recipes whose name contains query, case-insensitively.
func (s *MemorySource) Search(_ context.Context, query string) ([]domain.RecipeRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	var out []domain.RecipeRef
	for _, r := range s.recipes {
		if strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, domain.RecipeRef{ID: r.ID, Name: r.Name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListIngredients returns all ingredients ordered by id.
func (s *MemorySource) ListIngredients(_ context.Context) ([]domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Ingredient, 0, len(s.ingredients))
	for _, ing := range s.ingredients {
		out = append(out, ing)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetIngredient returns one ingredient.
func (s *MemorySource) GetIngredient(_ context.Context, id string) (*domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ing, ok := s.ingredients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ing, nil
}

// PutIngredient adds or replaces an ingredient. It does not touch recipe
// lines; use SetIngredientPrice for price moves.
func (s *MemorySource) PutIngredient(_ context.Context, ing domain.Ingredient) error {
	if ing.ID == "" {
		return domain.Invalid("id", "must not be empty")
	}
	if ing.PricePerUnit < 0 {
		return domain.Invalid("price_per_unit", "must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingredients[ing.ID] = ing
	return nil
}

// PutRecipe adds or replaces a recipe. Every line must reference a known
// ingredient; the line price is taken from the ingredient when zero.
func (s *MemorySource) PutRecipe(_ context.Context, r *domain.Recipe) error {
	if r == nil || r.ID == "" {
		return domain.Invalid("id", "must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := r.Clone()
	for i, l := range c.Ingredients {
		ing, ok := s.ingredients[l.IngredientID]
		if !ok {
			return domain.Invalid("ingredients", "line %d references unknown ingredient %q", i, l.IngredientID)
		}
		if l.PricePerUnit == 0 {
			c.Ingredients[i].PricePerUnit = ing.PricePerUnit
		}
		if l.Name == "" {
			c.Ingredients[i].Name = ing.Name
		}
	}
	s.recipes[c.ID] = c
	s.log.Info("recipe stored: %s", c.Name)
	return nil
}

// SetIngredientPrice updates an ingredient's price and every recipe line
// that uses it. It returns the previous price.
func (s *MemorySource) SetIngredientPrice(_ context.Context, id string, price float64) (float64, error) {
	if price < 0 {
		return 0, domain.Invalid("price", "must not be negative, got %v", price)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ing, ok := s.ingredients[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	old := ing.PricePerUnit
	ing.PricePerUnit = price
	s.ingredients[id] = ing

	lines := 0
	for _, r := range s.recipes {
		for i := range r.Ingredients {
			if r.Ingredients[i].IngredientID == id {
				r.Ingredients[i].PricePerUnit = price
				lines++
			}
		}
	}
	s.log.Debug("ingredient %s price %.2f -> %.2f (%d lines)", id, old, price, lines)
	return old, nil
}
