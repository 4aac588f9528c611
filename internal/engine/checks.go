package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hammamikhairi/hppkit/internal/domain"
)

// scanPrices re-reads every ingredient price from the provider and cascades
// the ones that moved significantly since they were last recorded.
func (e *Engine) scanPrices(ctx context.Context) error {
	lister, ok := e.recipes.(domain.IngredientLister)
	if !ok {
		e.log.Debug("price scan skipped: provider cannot list ingredients")
		return nil
	}
	ings, err := lister.ListIngredients(ctx)
	if err != nil {
		return domain.Fetch("list ingredients", "", err)
	}

	res := e.history.Scan(observations(ings))
	var errs []error
	for _, change := range res.SignificantChanges {
		if _, err := e.cascadePrice(ctx, change, nil); err != nil {
			// Scan already recorded the new price; put the old one back so
			// the next scan sees the move again.
			e.history.Record(change.IngredientID, change.OldPrice)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sweepCache drops expired entries and recomputes the ones marked stale.
func (e *Engine) sweepCache(ctx context.Context) error {
	start := e.now()
	removed := e.cache.CleanupExpired()

	stale := e.cache.StaleIDs()
	if len(stale) == 0 {
		e.log.Debug("cache sweep: %d expired removed, nothing stale", removed)
		return nil
	}

	refs := make([]domain.RecipeRef, len(stale))
	for i, id := range stale {
		refs[i] = domain.RecipeRef{ID: id}
	}
	summary := e.summarize("stale cache sweep", e.recomputeMany(ctx, refs, nil), start)
	e.log.Info("cache sweep: %d expired removed, %d of %d stale refreshed", removed, summary.Processed, summary.Total)

	if summary.Failed == 0 {
		return nil
	}
	msg := fmt.Sprintf("%d of %d stale recipe costs could not be refreshed.", summary.Failed, summary.Total)
	if _, err := e.alerts.OnSystemHealth(ctx, domain.HealthWarning, "Stale recipe costs", msg); err != nil {
		e.log.Error("health alert: %v", err)
	}
	return errors.New(msg)
}

// recheckCosts catches registry edits that bypassed OnOperationalCostChange.
// All changed items are reported; recipes are recomputed once if any of
// them auto-allocates.
func (e *Engine) recheckCosts(ctx context.Context) error {
	e.mu.Lock()
	current := e.registry.Amounts()
	previous := e.lastCosts
	e.lastCosts = current
	e.mu.Unlock()

	var ids []string
	for id, amount := range current {
		if old, ok := previous[id]; ok && old != amount {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Strings(ids)

	var auto []string
	var last *CostChangeReport
	for _, id := range ids {
		item, err := e.registry.Get(id)
		if err != nil {
			continue
		}
		last = e.reportCostChange(ctx, item, previous[id], current[id])
		if item.AutoAllocate {
			auto = append(auto, item.Name)
		}
	}
	e.log.Info("cost re-check: %d operational costs changed outside the engine", len(ids))

	if len(auto) > 0 && last != nil {
		e.recalculateAfterCosts(ctx, strings.Join(auto, ", ")+" changed", last)
	}
	return nil
}
