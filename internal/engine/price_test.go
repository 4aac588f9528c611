package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/recipe"
)

// flakyLookup fails FindRecipesUsingIngredient while failures is positive.
type flakyLookup struct {
	*recipe.MemorySource
	failures atomic.Int32
}

func (p *flakyLookup) FindRecipesUsingIngredient(ctx context.Context, id string) ([]domain.RecipeRef, error) {
	if p.failures.Add(-1) >= 0 {
		return nil, errors.New("connection reset")
	}
	return p.MemorySource.FindRecipesUsingIngredient(ctx, id)
}

// gatedProvider holds GetRecipe until release is closed and honours the
// caller's context once it is let through.
type gatedProvider struct {
	domain.RecipeProvider
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newGatedProvider(p domain.RecipeProvider) *gatedProvider {
	return &gatedProvider{RecipeProvider: p, entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (p *gatedProvider) GetRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	p.calls.Add(1)
	select {
	case p.entered <- struct{}{}:
	default:
	}
	<-p.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.RecipeProvider.GetRecipe(ctx, id)
}

func forceCheckErrs(ctx context.Context, e *Engine) []error {
	var errs []error
	for _, r := range e.ForceCheck(ctx) {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

func TestForceCheckAfterPriceEventIsQuiet(t *testing.T) {
	e, sink := setupEngine(t, cocoaSource(t))
	ctx := context.Background()

	if _, err := e.ComputeCost(ctx, "a"); err != nil {
		t.Fatalf("compute a: %v", err)
	}
	if _, err := e.OnIngredientPriceChange(ctx, "cocoa", 10000, 11500); err != nil {
		t.Fatalf("price change: %v", err)
	}
	before := sink.count()

	if errs := forceCheckErrs(ctx, e); len(errs) != 0 {
		t.Fatalf("force check: %v", errs)
	}

	if got := len(sink.byCategory(domain.CategoryPriceChange)); got != 1 {
		t.Fatalf("expected the event's alert only, got %d price change alerts", got)
	}
	if sink.count() != before {
		t.Fatalf("scan sent %d more notifications", sink.count()-before)
	}
	cached, ok := e.GetCached("a")
	if !ok || !nearlyEqual(cached.CostPerServing, 5750) {
		t.Fatalf("scan reverted the cached cost: %+v", cached)
	}
	for _, p := range e.PriceHistory("cocoa")[1:] {
		if p.Price != 11500 {
			t.Fatalf("history went back to %v", p.Price)
		}
	}
}

func TestFailedLookupLeavesMoveForScan(t *testing.T) {
	src := &flakyLookup{MemorySource: cocoaSource(t)}
	e, sink := setupEngine(t, src)
	ctx := context.Background()

	if _, err := e.ComputeCost(ctx, "a"); err != nil {
		t.Fatalf("compute a: %v", err)
	}

	src.failures.Store(1)
	if _, err := e.OnIngredientPriceChange(ctx, "cocoa", 10000, 11500); !errors.Is(err, domain.ErrExternalFetch) {
		t.Fatalf("expected a fetch error, got %v", err)
	}
	if last, _ := e.history.Latest("cocoa"); last.Price != 10000 {
		t.Fatalf("history advanced past a failed lookup: %+v", last)
	}
	if len(sink.byCategory(domain.CategoryPriceChange)) != 0 {
		t.Fatal("failed event should not alert")
	}

	if errs := forceCheckErrs(ctx, e); len(errs) != 0 {
		t.Fatalf("force check: %v", errs)
	}

	if got := len(sink.byCategory(domain.CategoryPriceChange)); got != 1 {
		t.Fatalf("scan should report the move once, got %d", got)
	}
	cached, ok := e.GetCached("a")
	if !ok || !nearlyEqual(cached.CostPerServing, 5750) {
		t.Fatalf("cache should hold the new cost, got %+v", cached)
	}
	if last, _ := e.history.Latest("cocoa"); last.Price != 11500 {
		t.Fatalf("history should end at the new price: %+v", last)
	}
}

func TestScanRetriesFailedLookup(t *testing.T) {
	src := &flakyLookup{MemorySource: cocoaSource(t)}
	e, sink := setupEngine(t, src)
	ctx := context.Background()

	if _, err := e.ComputeCost(ctx, "a"); err != nil {
		t.Fatalf("compute a: %v", err)
	}
	if _, err := src.SetIngredientPrice(ctx, "cocoa", 11500); err != nil {
		t.Fatalf("set price: %v", err)
	}

	src.failures.Store(1)
	if errs := forceCheckErrs(ctx, e); len(errs) == 0 {
		t.Fatal("expected the price check to fail")
	}
	if len(sink.byCategory(domain.CategoryPriceChange)) != 0 {
		t.Fatal("failed scan should not alert")
	}

	if errs := forceCheckErrs(ctx, e); len(errs) != 0 {
		t.Fatalf("second force check: %v", errs)
	}
	if got := len(sink.byCategory(domain.CategoryPriceChange)); got != 1 {
		t.Fatalf("expected the move on the next scan, got %d alerts", got)
	}
	cached, ok := e.GetCached("a")
	if !ok || !nearlyEqual(cached.CostPerServing, 5750) {
		t.Fatalf("cache should hold the new cost, got %+v", cached)
	}
}

func TestCanceledCallerDoesNotFailJoiners(t *testing.T) {
	src := newGatedProvider(recipe.NewMemorySource(quiet()))
	e, _ := setupEngine(t, src)

	first, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 2)
	go func() {
		_, err := e.ComputeCost(first, "baguette")
		errs <- err
	}()
	<-src.entered

	cancel()
	go func() {
		_, err := e.ComputeCost(context.Background(), "baguette")
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(src.release)

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("compute: %v", err)
		}
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected one shared fetch, saw %d", got)
	}
	if _, ok := e.GetCached("baguette"); !ok {
		t.Fatal("shared run should have been cached")
	}
}

func TestAdjustedRecomputeDoesNotReusePlainRun(t *testing.T) {
	// Not a price writer: the new price only reaches recipes through the
	// adjustment.
	src := newGatedProvider(cocoaSource(t))
	e, _ := setupEngine(t, src)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := e.ComputeCost(ctx, "a")
		done <- err
	}()
	<-src.entered

	type result struct {
		report *PriceChangeReport
		err    error
	}
	reports := make(chan result, 1)
	go func() {
		r, err := e.OnIngredientPriceChange(ctx, "cocoa", 10000, 11500)
		reports <- result{r, err}
	}()
	time.Sleep(20 * time.Millisecond)
	close(src.release)

	if err := <-done; err != nil {
		t.Fatalf("compute a: %v", err)
	}
	res := <-reports
	if res.err != nil {
		t.Fatalf("price change: %v", res.err)
	}
	for _, r := range res.report.Results {
		if r.RecipeID == "a" && !nearlyEqual(r.NewCostPerServing, 5750) {
			t.Fatalf("a was priced without the new cocoa price: %+v", r)
		}
	}
	cached, ok := e.GetCached("a")
	if !ok || !nearlyEqual(cached.CostPerServing, 5750) {
		t.Fatalf("cache should hold the adjusted cost, got %+v", cached)
	}
}
