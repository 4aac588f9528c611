package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/hppkit/internal/domain"
)

// outcome is one recipe's result within a batch.
type outcome struct {
	ref domain.RecipeRef
	c   *computed
	err error
}

// recomputeMany recomputes refs with bounded concurrency. A failing recipe
// is logged and reported in its outcome; it never stops the others.
func (e *Engine) recomputeMany(ctx context.Context, refs []domain.RecipeRef, adjust adjustFunc) []outcome {
	out := make([]outcome, len(refs))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			c, err := e.compute(ctx, ref.ID, adjust)
			if err != nil {
				e.log.Error("recomputing %s: %v", ref.ID, err)
			}
			out[i] = outcome{ref: ref, c: c, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// RecalculateAll recomputes every recipe the provider knows. Recipes that
// fail keep their cached entry, marked stale so the cache sweep retries
// them. Only a failure to list recipe ids is returned as an error.
func (e *Engine) RecalculateAll(ctx context.Context, reason string) (domain.BatchSummary, error) {
	start := e.now()

	ids, err := e.recipes.ListRecipeIDs(ctx)
	if err != nil {
		return domain.BatchSummary{Reason: reason}, domain.Fetch("list recipes", "", err)
	}

	refs := make([]domain.RecipeRef, len(ids))
	for i, id := range ids {
		refs[i] = domain.RecipeRef{ID: id}
	}

	summary := e.summarize(reason, e.recomputeMany(ctx, refs, nil), start)
	e.log.Info("recalculated %d of %d recipes (%s) in %s", summary.Processed, summary.Total, reason, summary.Took)
	return summary, nil
}

func (e *Engine) summarize(reason string, outcomes []outcome, start time.Time) domain.BatchSummary {
	s := domain.BatchSummary{Reason: reason, Total: len(outcomes)}
	for _, o := range outcomes {
		if o.err != nil {
			s.Failed++
			e.cache.MarkStale(o.ref.ID)
			continue
		}
		s.Processed++
	}
	s.Took = e.now().Sub(start)
	return s
}
