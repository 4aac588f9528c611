package engine

import (
	"context"
	"math"
	"sort"

	"github.com/hammamikhairi/hppkit/internal/alert"
	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/pricehistory"
)

// PriceChangeReport is the outcome of an ingredient price change.
type PriceChangeReport struct {
	IngredientID  string                       `json:"ingredient_id"`
	OldPrice      float64                      `json:"old_price"`
	NewPrice      float64                      `json:"new_price"`
	ChangePercent float64                      `json:"change_percent"`
	Impact        domain.ImpactLevel           `json:"impact"`
	Results       []domain.RecalculationResult `json:"results"`
	Summary       domain.BatchSummary          `json:"summary"`
	Notifications []domain.Notification        `json:"notifications"`
}

// OnIngredientPriceChange reacts to an ingredient price move. When the
// provider can store prices the new one is stored first; otherwise the
// provider must already hold it. Every recipe that uses the ingredient is
// recomputed and the impact alerted. A recipe that fails to recompute is
// skipped and counted in the summary.
func (e *Engine) OnIngredientPriceChange(ctx context.Context, ingredientID string, oldPrice, newPrice float64) (*PriceChangeReport, error) {
	if err := checkPriceChange(ingredientID, newPrice); err != nil {
		return nil, err
	}
	if err := checkPrice("old_price", oldPrice); err != nil {
		return nil, err
	}

	if w, ok := e.recipes.(domain.PriceWriter); ok {
		if _, err := w.SetIngredientPrice(ctx, ingredientID, newPrice); err != nil {
			return nil, domain.Fetch("store price", ingredientID, err)
		}
	}
	return e.priceChanged(ctx, ingredientID, oldPrice, newPrice)
}

// UpdateIngredientPrice sets an ingredient's price and cascades the change.
// The previous price comes from the provider when it can store prices, and
// from the price history otherwise.
func (e *Engine) UpdateIngredientPrice(ctx context.Context, ingredientID string, newPrice float64) (*PriceChangeReport, error) {
	if err := checkPriceChange(ingredientID, newPrice); err != nil {
		return nil, err
	}

	var oldPrice float64
	if w, ok := e.recipes.(domain.PriceWriter); ok {
		stored, err := w.SetIngredientPrice(ctx, ingredientID, newPrice)
		if err != nil {
			return nil, domain.Fetch("store price", ingredientID, err)
		}
		oldPrice = stored
	} else {
		last, ok := e.history.Latest(ingredientID)
		if !ok {
			return nil, domain.Invalid("old_price", "required for %s, which has no recorded price", ingredientID)
		}
		oldPrice = last.Price
	}
	return e.priceChanged(ctx, ingredientID, oldPrice, newPrice)
}

// priceChanged cascades an event-path price change. History is only
// advanced once the affected recipes are known, so a failed lookup leaves
// the move visible to the next price scan.
func (e *Engine) priceChanged(ctx context.Context, ingredientID string, oldPrice, newPrice float64) (*PriceChangeReport, error) {
	record := func() {
		if _, ok := e.history.Latest(ingredientID); !ok && oldPrice > 0 {
			e.history.Record(ingredientID, oldPrice)
		}
		e.history.Record(ingredientID, newPrice)
	}
	return e.cascadePrice(ctx, domain.PriceChange{
		IngredientID:  ingredientID,
		OldPrice:      oldPrice,
		NewPrice:      newPrice,
		ChangePercent: domain.PercentChange(oldPrice, newPrice),
	}, record)
}

// cascadePrice does the recomputation and alerting for a price change.
// record, when set, runs as soon as the affected recipes are known.
func (e *Engine) cascadePrice(ctx context.Context, change domain.PriceChange, record func()) (*PriceChangeReport, error) {
	start := e.now()
	id := change.IngredientID

	refs, err := e.recipes.FindRecipesUsingIngredient(ctx, id)
	if err != nil {
		return nil, domain.Fetch("find recipes using", id, err)
	}
	if record != nil {
		record()
	}

	ids := make([]string, len(refs))
	previous := make(map[string]float64, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
		if b, ok := e.cache.Get(ref.ID); ok {
			previous[ref.ID] = b.CostPerServing
		}
	}
	e.cache.InvalidateByIngredient(id, ids)

	adjust := func(r *domain.Recipe) *domain.Recipe {
		return r.WithIngredientPrice(id, change.NewPrice)
	}
	outcomes := e.recomputeMany(ctx, refs, adjust)

	results := make([]domain.RecalculationResult, 0, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil {
			continue
		}
		newCPS := o.c.breakdown.CostPerServing
		oldCPS, ok := previous[o.ref.ID]
		if !ok {
			oldCPS = e.costPerServingAt(o.c.recipe, id, change.OldPrice, newCPS)
		}
		ref := o.ref
		if ref.Name == "" {
			ref.Name = o.c.breakdown.RecipeName
		}
		results = append(results, domain.NewRecalculationResult(ref, oldCPS, newCPS, e.impact.Classify(oldCPS, newCPS)))
	}
	sort.Slice(results, func(i, j int) bool { return results[i].RecipeName < results[j].RecipeName })

	report := &PriceChangeReport{
		IngredientID:  id,
		OldPrice:      change.OldPrice,
		NewPrice:      change.NewPrice,
		ChangePercent: change.ChangePercent,
		Impact:        alert.ClassifyPriceChange(change.ChangePercent),
		Results:       results,
		Summary:       e.summarize("ingredient "+id+" price change", outcomes, start),
	}

	ns, err := e.alerts.OnPriceChange(ctx, id, e.ingredientName(ctx, id), change.OldPrice, change.NewPrice, results)
	if err != nil {
		e.log.Error("price change alerts for %s: %v", id, err)
	}
	report.Notifications = ns

	e.log.Info("ingredient %s %.2f -> %.2f: %d of %d recipes recalculated", id, change.OldPrice, change.NewPrice, report.Summary.Processed, report.Summary.Total)
	return report, nil
}

// costPerServingAt prices recipe with the ingredient at price, for the
// "before" side of a change that has no cached breakdown. It falls back to
// fallback when the recipe cannot be priced.
func (e *Engine) costPerServingAt(recipe *domain.Recipe, ingredientID string, price, fallback float64) float64 {
	b, err := e.calc.Compute(recipe.WithIngredientPrice(ingredientID, price), e.registry.List())
	if err != nil {
		e.log.Warn("pricing %s before the change: %v", recipe.ID, err)
		return fallback
	}
	return b.CostPerServing
}

// ingredientName looks up a display name when the provider can.
func (e *Engine) ingredientName(ctx context.Context, id string) string {
	getter, ok := e.recipes.(domain.IngredientGetter)
	if !ok {
		return id
	}
	ing, err := getter.GetIngredient(ctx, id)
	if err != nil || ing.Name == "" {
		return id
	}
	return ing.Name
}

func observations(ings []domain.Ingredient) []pricehistory.Observation {
	out := make([]pricehistory.Observation, len(ings))
	for i, ing := range ings {
		out[i] = pricehistory.Observation{IngredientID: ing.ID, Price: ing.PricePerUnit}
	}
	return out
}

func checkPriceChange(ingredientID string, newPrice float64) error {
	if ingredientID == "" {
		return domain.Invalid("ingredient_id", "must not be empty")
	}
	return checkPrice("new_price", newPrice)
}

func checkPrice(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.Invalid(field, "must be a non-negative number, got %v", v)
	}
	return nil
}
