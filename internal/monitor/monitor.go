// Package monitor runs periodic background checks on independent periods.
// It is the backstop for changes that never arrive through the event path.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

// Default check periods.
const (
	DefaultPriceScanEvery  = 5 * time.Minute
	DefaultCacheSweepEvery = 10 * time.Minute
	DefaultCostCheckEvery  = 15 * time.Minute
)

// Check is one named periodic job.
type Check struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

// Option configures the monitor.
type Option func(*Monitor)

// WithTicker replaces the ticker factory.
func WithTicker(fn TickerFunc) Option {
	return func(m *Monitor) {
		m.newTicker = fn
	}
}

// WithClock sets the clock used to report next check times.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		m.now = now
	}
}

// Status is a point-in-time view of the monitor.
type Status struct {
	Active     bool                 `json:"active"`
	NextChecks map[string]time.Time `json:"next_checks,omitempty"`
	LastErrors map[string]string    `json:"last_errors,omitempty"`
}

// CheckResult is the outcome of one check during ForceCheck.
type CheckResult struct {
	Name  string        `json:"name"`
	Err   error         `json:"-"`
	Error string        `json:"error,omitempty"`
	Took  time.Duration `json:"took"`
}

// Monitor schedules checks while running.
type Monitor struct {
	checks    []Check
	log       *logger.Logger
	newTicker TickerFunc
	now       func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	next    map[string]time.Time
	lastErr map[string]error
}

// New creates a stopped monitor for the given checks. Checks with a
// non-positive period only run through ForceCheck.
func New(log *logger.Logger, checks []Check, opts ...Option) *Monitor {
	m := &Monitor{
		checks:    checks,
		log:       log,
		newTicker: NewRealTicker,
		now:       time.Now,
		next:      make(map[string]time.Time),
		lastErr:   make(map[string]error),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start schedules every check on its own period. Non-blocking. Starting a
// running monitor logs a warning and returns domain.ErrMonitorRunning.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		m.log.Warn("monitor already running")
		return domain.ErrMonitorRunning
	}

	childCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	now := m.now()
	for _, c := range m.checks {
		if c.Every <= 0 {
			continue
		}
		m.next[c.Name] = now.Add(c.Every)
		go m.loop(childCtx, c, m.newTicker(c.Every))
	}

	m.log.Info("monitor started (%d checks)", len(m.checks))
	return nil
}

// Stop cancels future ticks. Checks already running finish on their own.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	m.cancel()
	m.running = false
	m.next = make(map[string]time.Time)
	m.log.Info("monitor stopped")
}

// Status reports whether the monitor is running and when each check fires
// next.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{Active: m.running}
	if len(m.next) > 0 {
		st.NextChecks = make(map[string]time.Time, len(m.next))
		for k, v := range m.next {
			st.NextChecks[k] = v
		}
	}
	for k, err := range m.lastErr {
		if err == nil {
			continue
		}
		if st.LastErrors == nil {
			st.LastErrors = make(map[string]string)
		}
		st.LastErrors[k] = err.Error()
	}
	return st
}

// ForceCheck runs every check once, concurrently, and waits for all of
// them. A failing or panicking check does not affect the others.
func (m *Monitor) ForceCheck(ctx context.Context) []CheckResult {
	results := make([]CheckResult, len(m.checks))

	var wg sync.WaitGroup
	for i, c := range m.checks {
		wg.Add(1)
		go func(i int, c Check) {
			defer wg.Done()
			start := m.now()
			err := m.run(ctx, c)
			results[i] = CheckResult{Name: c.Name, Err: err, Took: m.now().Sub(start)}
			if err != nil {
				results[i].Error = err.Error()
			}
		}(i, c)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

func (m *Monitor) loop(ctx context.Context, c Check, ticker Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			m.run(ctx, c)

			m.mu.Lock()
			if m.running {
				m.next[c.Name] = m.now().Add(c.Every)
			}
			m.mu.Unlock()
		}
	}
}

// run executes one check, recording and logging its outcome.
func (m *Monitor) run(ctx context.Context, c Check) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check %s panicked: %v", c.Name, r)
		}
		m.mu.Lock()
		m.lastErr[c.Name] = err
		m.mu.Unlock()
		if err != nil {
			m.log.Error("monitor: %s: %v", c.Name, err)
		}
	}()

	m.log.Debug("monitor: running %s", c.Name)
	return c.Run(ctx)
}
