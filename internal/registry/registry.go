// Package registry holds the operational cost table (labor rate and
// overhead base amounts) the calculator reads from.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

// Option configures the registry.
type Option func(*Registry)

// WithClock sets the clock used for UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithSeed replaces the default seed set.
func WithSeed(items []domain.OperationalCost) Option {
	return func(r *Registry) {
		r.seed = items
	}
}

// Registry is a concurrency-safe store of operational costs keyed by id.
type Registry struct {
	mu    sync.RWMutex
	items map[string]domain.OperationalCost
	seed  []domain.OperationalCost
	now   func() time.Time
	log   *logger.Logger
}

// Change is the result of an amount update.
type Change struct {
	Item      domain.OperationalCost
	OldAmount float64
	NewAmount float64
}

// Changed reports whether the amount actually moved.
func (c Change) Changed() bool { return c.OldAmount != c.NewAmount }

// DefaultSeed is the cost table a fresh registry starts with.
func DefaultSeed() []domain.OperationalCost {
	return []domain.OperationalCost{
		{ID: domain.CostIDLaborRate, Category: domain.CostLabor, Name: "Hourly labor rate", Amount: 25000, Period: domain.PeriodHourly, Active: true, AutoAllocate: true},
		{ID: domain.CostIDElectricity, Category: domain.CostUtility, Name: "Electricity", Amount: 5000, Period: domain.PeriodHourly, Active: true, AutoAllocate: true},
		{ID: domain.CostIDGas, Category: domain.CostUtility, Name: "Gas", Amount: 3000, Period: domain.PeriodHourly, Active: true, AutoAllocate: true},
		{ID: domain.CostIDRent, Category: domain.CostRent, Name: "Kitchen rent", Amount: 2000, Period: domain.PeriodHourly, Active: true},
		{ID: domain.CostIDDepreciation, Category: domain.CostDepreciation, Name: "Equipment depreciation", Amount: 1000, Period: domain.PeriodHourly, Active: true},
	}
}

// New creates a registry seeded with DefaultSeed unless WithSeed is given.
func New(log *logger.Logger, opts ...Option) *Registry {
	r := &Registry{
		items: make(map[string]domain.OperationalCost),
		seed:  DefaultSeed(),
		now:   time.Now,
		log:   log,
	}
	for _, opt := range opts {
		opt(r)
	}

	now := r.now()
	for _, item := range r.seed {
		item.UpdatedAt = now
		r.items[item.ID] = item
	}
	r.log.Debug("registry: seeded %d operational costs", len(r.items))
	return r
}

// Get returns the cost item with the given id.
func (r *Registry) Get(id string) (domain.OperationalCost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return domain.OperationalCost{}, fmt.Errorf("operational cost %s: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

// Amount returns the amount of an active item, or def when it is missing or
// inactive.
func (r *Registry) Amount(id string, def float64) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok || !item.Active {
		return def
	}
	return item.Amount
}

// Upsert creates or replaces an item.
func (r *Registry) Upsert(item domain.OperationalCost) error {
	if err := item.Validate(); err != nil {
		return err
	}
	item.UpdatedAt = r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	r.log.Debug("registry: upserted %s (%s) amount=%.2f", item.ID, item.Category, item.Amount)
	return nil
}

// Update sets a new amount and returns both old and new amounts so the
// caller can decide whether to cascade.
func (r *Registry) Update(id string, amount float64) (Change, error) {
	if amount < 0 {
		return Change{}, domain.Invalid("amount", "must not be negative, got %v", amount)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return Change{}, fmt.Errorf("operational cost %s: %w", id, domain.ErrNotFound)
	}
	old := item.Amount
	item.Amount = amount
	item.UpdatedAt = r.now()
	r.items[id] = item

	r.log.Info("registry: %s amount %.2f -> %.2f", id, old, amount)
	return Change{Item: item, OldAmount: old, NewAmount: amount}, nil
}

// SetActive toggles whether an item participates in costing.
func (r *Registry) SetActive(id string, active bool) (domain.OperationalCost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return domain.OperationalCost{}, fmt.Errorf("operational cost %s: %w", id, domain.ErrNotFound)
	}
	item.Active = active
	item.UpdatedAt = r.now()
	r.items[id] = item
	return item, nil
}

// ToggleAutoAllocate flips the auto-allocate flag and returns the item.
func (r *Registry) ToggleAutoAllocate(id string) (domain.OperationalCost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return domain.OperationalCost{}, fmt.Errorf("operational cost %s: %w", id, domain.ErrNotFound)
	}
	item.AutoAllocate = !item.AutoAllocate
	item.UpdatedAt = r.now()
	r.items[id] = item
	r.log.Debug("registry: %s auto-allocate=%v", id, item.AutoAllocate)
	return item, nil
}

// Delete removes an item. Nothing in the engine deletes items on its own.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("operational cost %s: %w", id, domain.ErrNotFound)
	}
	delete(r.items, id)
	return nil
}

// List returns every item sorted by category then id.
func (r *Registry) List() []domain.OperationalCost {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.OperationalCost, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListByCategory returns the items in one category.
func (r *Registry) ListByCategory(category domain.CostCategory) []domain.OperationalCost {
	var out []domain.OperationalCost
	for _, item := range r.List() {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out
}

// TotalActive sums the amounts of active items.
func (r *Registry) TotalActive() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0.0
	for _, item := range r.items {
		if item.Active {
			total += item.Amount
		}
	}
	return total
}

// Amounts returns id -> amount for every item, used to detect edits made
// outside Update.
func (r *Registry) Amounts() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]float64, len(r.items))
	for id, item := range r.items {
		out[id] = item.Amount
	}
	return out
}
