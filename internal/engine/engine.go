// Package engine implements the recalculation orchestrator: the only entry
// point callers use to compute recipe costs and react to price or cost
// changes.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/hammamikhairi/hppkit/internal/alert"
	"github.com/hammamikhairi/hppkit/internal/cache"
	"github.com/hammamikhairi/hppkit/internal/costing"
	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
	"github.com/hammamikhairi/hppkit/internal/monitor"
	"github.com/hammamikhairi/hppkit/internal/pricehistory"
	"github.com/hammamikhairi/hppkit/internal/registry"
	"github.com/hammamikhairi/hppkit/internal/snapshot"
)

// DefaultConcurrency bounds parallel recipe recomputation in a batch.
const DefaultConcurrency = 4

// Monitor check names.
const (
	CheckPriceScan  = "price-scan"
	CheckCacheSweep = "cache-sweep"
	CheckCostCheck  = "cost-check"
)

// Option configures the engine.
type Option func(*Engine)

// WithCalculator replaces the cost calculator.
func WithCalculator(c *costing.Calculator) Option {
	return func(e *Engine) {
		e.calc = c
	}
}

// WithRegistry replaces the operational cost registry.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithCache replaces the result cache.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithPriceHistory replaces the price history tracker.
func WithPriceHistory(t *pricehistory.Tracker) Option {
	return func(e *Engine) {
		e.history = t
	}
}

// WithAlertOptions configures the alerting service built for the sink.
func WithAlertOptions(opts ...alert.Option) Option {
	return func(e *Engine) {
		e.alertOpts = append(e.alertOpts, opts...)
	}
}

// WithSnapshotStore enables cost snapshots and drift detection.
func WithSnapshotStore(s domain.SnapshotStore) Option {
	return func(e *Engine) {
		e.snapshots = s
	}
}

// WithImpactPolicy sets how per-recipe cost moves are classified.
func WithImpactPolicy(p ImpactPolicy) Option {
	return func(e *Engine) {
		e.impact = p
	}
}

// WithConcurrency bounds parallel recomputation in batches.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithMonitorPeriods sets the background check periods. Zero disables a
// check's timer; it still runs on ForceCheck.
func WithMonitorPeriods(priceScan, cacheSweep, costCheck time.Duration) Option {
	return func(e *Engine) {
		e.periods = [3]time.Duration{priceScan, cacheSweep, costCheck}
	}
}

// WithMonitorOptions passes options to the background monitor.
func WithMonitorOptions(opts ...monitor.Option) Option {
	return func(e *Engine) {
		e.monitorOpts = append(e.monitorOpts, opts...)
	}
}

// WithClock sets the clock used for snapshots and summaries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine wires the calculator, registry, cache, price history, alerting and
// monitor together. It depends only on the recipe provider and notification
// sink interfaces.
type Engine struct {
	recipes   domain.RecipeProvider
	log       *logger.Logger
	calc      *costing.Calculator
	registry  *registry.Registry
	cache     *cache.Cache
	history   *pricehistory.Tracker
	alerts    *alert.Service
	monitor   *monitor.Monitor
	snapshots domain.SnapshotStore
	detector  *snapshot.Detector

	impact      ImpactPolicy
	concurrency int
	periods     [3]time.Duration
	alertOpts   []alert.Option
	monitorOpts []monitor.Option
	now         func() time.Time

	// inflight keys recomputation by recipe id so at most one runs per
	// recipe at a time.
	inflight singleflight.Group

	mu        sync.Mutex
	lastCosts map[string]float64
}

// New creates an engine reading recipes from recipes and delivering
// notifications to sink.
func New(recipes domain.RecipeProvider, sink domain.NotificationSink, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		recipes:     recipes,
		log:         log,
		impact:      DefaultImpactPolicy(),
		concurrency: DefaultConcurrency,
		periods:     [3]time.Duration{monitor.DefaultPriceScanEvery, monitor.DefaultCacheSweepEvery, monitor.DefaultCostCheckEvery},
		now:         time.Now,
		lastCosts:   make(map[string]float64),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.calc == nil {
		e.calc = costing.New(costing.WithClock(e.now))
	}
	if e.registry == nil {
		e.registry = registry.New(log.Named("registry"))
	}
	if e.cache == nil {
		e.cache = cache.New(log.Named("cache"))
	}
	if e.history == nil {
		e.history = pricehistory.New(log.Named("pricehistory"))
	}
	e.alerts = alert.New(sink, log.Named("alert"), e.alertOpts...)
	if e.snapshots != nil {
		e.detector = snapshot.NewDetector(e.snapshots, log.Named("drift"))
	}

	e.monitor = monitor.New(log.Named("monitor"), []monitor.Check{
		{Name: CheckPriceScan, Every: e.periods[0], Run: e.scanPrices},
		{Name: CheckCacheSweep, Every: e.periods[1], Run: e.sweepCache},
		{Name: CheckCostCheck, Every: e.periods[2], Run: e.recheckCosts},
	}, e.monitorOpts...)
	return e
}

// Init records the baselines the background checks compare against: the
// current operational cost amounts and, when the provider can list them,
// the current ingredient prices.
func (e *Engine) Init(ctx context.Context) error {
	e.mu.Lock()
	e.lastCosts = e.registry.Amounts()
	e.mu.Unlock()

	lister, ok := e.recipes.(domain.IngredientLister)
	if !ok {
		e.log.Info("engine initialized (%d operational costs)", len(e.lastCosts))
		return nil
	}
	ings, err := lister.ListIngredients(ctx)
	if err != nil {
		return domain.Fetch("list ingredients", "", err)
	}
	e.history.Scan(observations(ings))
	e.log.Info("engine initialized (%d operational costs, %d ingredient prices)", len(e.lastCosts), len(ings))
	return nil
}

// Shutdown stops background monitoring. Work already dispatched finishes
// on its own.
func (e *Engine) Shutdown(_ context.Context) error {
	e.monitor.Stop()
	e.log.Info("engine shut down")
	return nil
}

// ComputeCost fetches a recipe, computes its breakdown, and writes it to the
// cache. It fails with domain.ErrNotFound for unknown recipes.
func (e *Engine) ComputeCost(ctx context.Context, recipeID string) (*domain.CostBreakdown, error) {
	c, err := e.compute(ctx, recipeID, nil)
	if err != nil {
		return nil, err
	}
	return c.breakdown.Clone(), nil
}

// GetCached returns the cached breakdown without computing.
func (e *Engine) GetCached(recipeID string) (*domain.CostBreakdown, bool) {
	return e.cache.Get(recipeID)
}

// CacheStats reports cache counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// ListOperationalCosts returns every registry item.
func (e *Engine) ListOperationalCosts() []domain.OperationalCost {
	return e.registry.List()
}

// ToggleAutoAllocate flips an operational cost's auto-allocate flag.
func (e *Engine) ToggleAutoAllocate(costID string) (domain.OperationalCost, error) {
	return e.registry.ToggleAutoAllocate(costID)
}

// PriceHistory returns the recorded prices of an ingredient, oldest first.
func (e *Engine) PriceHistory(ingredientID string) []pricehistory.Point {
	return e.history.History(ingredientID)
}

// StartMonitoring starts the background checks. Calling it while they run
// returns domain.ErrMonitorRunning and changes nothing.
func (e *Engine) StartMonitoring(ctx context.Context) error {
	return e.monitor.Start(ctx)
}

// StopMonitoring cancels future background checks.
func (e *Engine) StopMonitoring() {
	e.monitor.Stop()
}

// MonitorStatus reports whether background checks are running.
func (e *Engine) MonitorStatus() monitor.Status {
	return e.monitor.Status()
}

// ForceCheck runs every background check now.
func (e *Engine) ForceCheck(ctx context.Context) []monitor.CheckResult {
	return e.monitor.ForceCheck(ctx)
}

// Snapshots lists a recipe's cost snapshots, newest first.
func (e *Engine) Snapshots(ctx context.Context, recipeID string, limit int) ([]domain.Snapshot, error) {
	if e.snapshots == nil {
		return nil, fmt.Errorf("snapshots: %w", domain.ErrNotConfigured)
	}
	return e.snapshots.ListSnapshots(ctx, recipeID, limit)
}

// Drift compares a recipe's two latest snapshots and alerts when the cost
// moved significantly. It returns nil when there is no drift.
func (e *Engine) Drift(ctx context.Context, recipeID string) (*domain.DriftAlert, error) {
	if e.detector == nil {
		return nil, fmt.Errorf("drift: %w", domain.ErrNotConfigured)
	}
	d, err := e.detector.Check(ctx, recipeID)
	if err != nil || d == nil {
		return nil, err
	}
	if _, err := e.alerts.OnDrift(ctx, *d); err != nil {
		e.log.Error("drift alert for %s: %v", recipeID, err)
	}
	return d, nil
}

func (e *Engine) saveSnapshot(ctx context.Context, b *domain.CostBreakdown) {
	if e.snapshots == nil {
		return
	}
	err := e.snapshots.SaveSnapshot(ctx, domain.Snapshot{
		ID:             uuid.NewString(),
		RecipeID:       b.RecipeID,
		RecipeName:     b.RecipeName,
		TotalCost:      b.TotalCost,
		CostPerServing: b.CostPerServing,
		TakenAt:        b.CalculatedAt,
	})
	if err != nil {
		e.log.Warn("saving snapshot for %s: %v", b.RecipeID, err)
	}
}
