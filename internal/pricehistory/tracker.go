// Package pricehistory keeps a bounded per-ingredient price history and
// flags significant price swings.
package pricehistory

import (
	"math"
	"sync"
	"time"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

const (
	// DefaultCapacity is how many points are kept per ingredient.
	DefaultCapacity = 30

	// SignificantPercent is the |Δ%| above which a scan flags a change.
	SignificantPercent = 10.0
)

// Point is one observed price.
type Point struct {
	At    time.Time `json:"at"`
	Price float64   `json:"price"`
}

// Observation is a current price fed into Scan.
type Observation struct {
	IngredientID string
	Price        float64
}

// ScanResult lists the changes a scan found significant.
type ScanResult struct {
	Scanned            int
	SignificantChanges []domain.PriceChange
}

// Option configures the tracker.
type Option func(*Tracker)

// WithCapacity sets the per-ingredient history length.
func WithCapacity(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.capacity = n
		}
	}
}

// WithClock sets the clock used to stamp points.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// Tracker records ingredient prices. Safe for concurrent use.
type Tracker struct {
	mu       sync.RWMutex
	history  map[string]*ring
	capacity int
	now      func() time.Time
	log      *logger.Logger
}

// New creates an empty tracker.
func New(log *logger.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		history:  make(map[string]*ring),
		capacity: DefaultCapacity,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record appends a price, dropping the oldest point once the history is full.
func (t *Tracker) Record(ingredientID string, price float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordLocked(ingredientID, price)
}

func (t *Tracker) recordLocked(ingredientID string, price float64) {
	r, ok := t.history[ingredientID]
	if !ok {
		r = newRing(t.capacity)
		t.history[ingredientID] = r
	}
	r.push(Point{At: t.now(), Price: price})
}

// History returns the points for an ingredient, oldest first.
func (t *Tracker) History(ingredientID string) []Point {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.history[ingredientID]
	if !ok {
		return nil
	}
	return r.items()
}

// Latest returns the most recently recorded price.
func (t *Tracker) Latest(ingredientID string) (Point, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.history[ingredientID]
	if !ok || r.size == 0 {
		return Point{}, false
	}
	return r.last(), true
}

// Scan compares each current price with the latest recorded one and flags
// |Δ%| > SignificantPercent. Every scanned price is recorded, significant or
// not. Ingredients seen for the first time are recorded without a flag.
func (t *Tracker) Scan(current []Observation) ScanResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	res := ScanResult{Scanned: len(current)}
	for _, obs := range current {
		if r, ok := t.history[obs.IngredientID]; ok && r.size > 0 {
			prev := r.last().Price
			if prev != 0 {
				pct := domain.PercentChange(prev, obs.Price)
				if math.Abs(pct) > SignificantPercent {
					res.SignificantChanges = append(res.SignificantChanges, domain.PriceChange{
						IngredientID:  obs.IngredientID,
						OldPrice:      prev,
						NewPrice:      obs.Price,
						ChangePercent: pct,
					})
				}
			}
		}
		t.recordLocked(obs.IngredientID, obs.Price)
	}

	if len(res.SignificantChanges) > 0 {
		t.log.Info("pricehistory: %d of %d prices moved more than %.0f%%", len(res.SignificantChanges), res.Scanned, SignificantPercent)
	}
	return res
}

// ring is a fixed-capacity FIFO of points.
type ring struct {
	buf   []Point
	start int
	size  int
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]Point, capacity)}
}

func (r *ring) push(p Point) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = p
		r.size++
		return
	}
	r.buf[r.start] = p
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) last() Point {
	return r.buf[(r.start+r.size-1)%len(r.buf)]
}

func (r *ring) items() []Point {
	out := make([]Point, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
