package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

// manualTicker only fires when the test says so.
type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.stopped.Store(true) }

// tickers hands out one manual ticker per period.
type tickers struct {
	mu sync.Mutex
	by map[time.Duration]*manualTicker
}

func newTickers() *tickers {
	return &tickers{by: make(map[time.Duration]*manualTicker)}
}

func (ts *tickers) factory(d time.Duration) Ticker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	ts.by[d] = t
	return t
}

func (ts *tickers) fire(t *testing.T, d time.Duration) {
	t.Helper()
	ts.mu.Lock()
	tk := ts.by[d]
	ts.mu.Unlock()
	if tk == nil {
		t.Fatalf("no ticker for %s", d)
	}
	select {
	case tk.ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatalf("ticker %s not being read", d)
	}
}

type counter struct {
	n atomic.Int32
}

func (c *counter) check(name string, every time.Duration) Check {
	return Check{Name: name, Every: every, Run: func(context.Context) error {
		c.n.Add(1)
		return nil
	}}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestChecksRunOnTheirOwnPeriods(t *testing.T) {
	ts := newTickers()
	var price, sweep, cost counter

	m := New(logger.New(logger.LevelOff, nil), []Check{
		price.check("price-scan", DefaultPriceScanEvery),
		sweep.check("cache-sweep", DefaultCacheSweepEvery),
		cost.check("cost-check", DefaultCostCheckEvery),
	}, WithTicker(ts.factory))

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	waitFor(t, func() bool {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		return len(ts.by) == 3
	})

	ts.fire(t, DefaultPriceScanEvery)
	ts.fire(t, DefaultPriceScanEvery)
	ts.fire(t, DefaultCostCheckEvery)

	waitFor(t, func() bool { return price.n.Load() == 2 && cost.n.Load() == 1 })
	if got := sweep.n.Load(); got != 0 {
		t.Fatalf("cache sweep ran %d times without its ticker firing", got)
	}
}

func TestStartTwiceIsNoOp(t *testing.T) {
	ts := newTickers()
	var c counter
	m := New(logger.New(logger.LevelOff, nil), []Check{c.check("x", time.Minute)}, WithTicker(ts.factory))

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer m.Stop()

	if err := m.Start(context.Background()); !errors.Is(err, domain.ErrMonitorRunning) {
		t.Fatalf("expected ErrMonitorRunning, got %v", err)
	}

	ts.mu.Lock()
	n := len(ts.by)
	ts.mu.Unlock()
	if n != 1 {
		t.Fatalf("second start created tickers: %d", n)
	}
}

func TestStatusAndStop(t *testing.T) {
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	ts := newTickers()
	var c counter
	m := New(logger.New(logger.LevelOff, nil),
		[]Check{c.check("price-scan", 5*time.Minute), c.check("cost-check", 15*time.Minute)},
		WithTicker(ts.factory), WithClock(func() time.Time { return base }))

	if st := m.Status(); st.Active || len(st.NextChecks) != 0 {
		t.Fatalf("fresh monitor should be stopped: %+v", st)
	}

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	st := m.Status()
	if !st.Active {
		t.Fatal("expected active")
	}
	if got := st.NextChecks["cost-check"]; !got.Equal(base.Add(15 * time.Minute)) {
		t.Fatalf("next cost check = %s", got)
	}

	m.Stop()
	if st := m.Status(); st.Active || len(st.NextChecks) != 0 {
		t.Fatalf("stopped monitor reports %+v", st)
	}

	waitFor(t, func() bool {
		ts.mu.Lock()
		defer ts.mu.Unlock()
		for _, tk := range ts.by {
			if !tk.stopped.Load() {
				return false
			}
		}
		return true
	})
}

func TestForceCheckIsolatesFailures(t *testing.T) {
	var ok counter
	m := New(logger.New(logger.LevelOff, nil), []Check{
		ok.check("good", time.Minute),
		{Name: "broken", Every: time.Minute, Run: func(context.Context) error { return errors.New("provider down") }},
		{Name: "panicky", Every: time.Minute, Run: func(context.Context) error { panic("boom") }},
	})

	results := m.ForceCheck(context.Background())
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	byName := make(map[string]CheckResult)
	for _, r := range results {
		byName[r.Name] = r
	}
	if byName["good"].Err != nil {
		t.Fatalf("good check failed: %v", byName["good"].Err)
	}
	if byName["broken"].Error != "provider down" {
		t.Fatalf("broken check error = %q", byName["broken"].Error)
	}
	if byName["panicky"].Err == nil {
		t.Fatal("panic should surface as an error")
	}
	if ok.n.Load() != 1 {
		t.Fatalf("good check ran %d times", ok.n.Load())
	}

	st := m.Status()
	if st.Active {
		t.Fatal("ForceCheck must not start the monitor")
	}
	if st.LastErrors["broken"] == "" || st.LastErrors["good"] != "" {
		t.Fatalf("unexpected last errors: %+v", st.LastErrors)
	}
}
