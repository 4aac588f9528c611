package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/hammamikhairi/hppkit/internal/domain"
)

// computed is the outcome of one recomputation: the breakdown and the recipe
// exactly as it was priced.
type computed struct {
	breakdown *domain.CostBreakdown
	recipe    *domain.Recipe
}

// adjustFunc rewrites a fetched recipe before it is priced.
type adjustFunc func(*domain.Recipe) *domain.Recipe

// compute recomputes one recipe and writes it through to the cache. Calls
// for the same recipe id while one is running wait for it and share its
// result. The run ignores the cancellation of whichever caller started it,
// since other callers may be waiting on it. A caller with an adjustment
// that joined someone else's run goes again until it gets a run of its own,
// since a shared result did not see its adjustment.
func (e *Engine) compute(ctx context.Context, recipeID string, adjust adjustFunc) (*computed, error) {
	flightCtx := context.WithoutCancel(ctx)
	for {
		own := false
		v, err, _ := e.inflight.Do(recipeID, func() (any, error) {
			own = true
			return e.computeOnce(flightCtx, recipeID, adjust)
		})
		if adjust != nil && !own {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.log.Debug("recompute of %s joined a running one; computing again", recipeID)
			continue
		}
		if err != nil {
			return nil, err
		}
		return v.(*computed), nil
	}
}

func (e *Engine) computeOnce(ctx context.Context, recipeID string, adjust adjustFunc) (*computed, error) {
	recipe, err := e.recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			e.cache.Invalidate(recipeID)
		}
		return nil, domain.Fetch("get recipe", recipeID, err)
	}
	if adjust != nil {
		recipe = adjust(recipe)
	}

	b, err := e.calc.Compute(recipe, e.registry.List())
	if err != nil {
		return nil, fmt.Errorf("computing %s: %w", recipeID, err)
	}

	e.cache.Put(recipeID, b)
	e.saveSnapshot(ctx, b)
	e.log.Debug("computed %s: cost per serving %.2f", recipeID, b.CostPerServing)
	return &computed{breakdown: b, recipe: recipe}, nil
}
