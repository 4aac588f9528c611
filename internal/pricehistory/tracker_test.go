package pricehistory

import (
	"testing"
	"time"

	"github.com/hammamikhairi/hppkit/internal/logger"
)

func newTracker(opts ...Option) *Tracker {
	return New(logger.New(logger.LevelOff, nil), opts...)
}

func TestHistoryIsCapped(t *testing.T) {
	tr := newTracker()

	for i := 0; i < 1000; i++ {
		tr.Record("flour", float64(i))
	}

	h := tr.History("flour")
	if len(h) != DefaultCapacity {
		t.Fatalf("history length = %d, want %d", len(h), DefaultCapacity)
	}
	if h[0].Price != 970 || h[len(h)-1].Price != 999 {
		t.Fatalf("expected oldest dropped first, got first=%v last=%v", h[0].Price, h[len(h)-1].Price)
	}
}

func TestScanBoundary(t *testing.T) {
	tests := []struct {
		name        string
		newPrice    float64
		significant bool
	}{
		{"rise 11%", 11100, true},
		{"rise 9%", 10900, false},
		{"drop 11%", 8900, true},
		{"drop 9%", 9100, false},
		{"unchanged", 10000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker()
			tr.Record("sugar", 10000)

			res := tr.Scan([]Observation{{IngredientID: "sugar", Price: tt.newPrice}})
			if got := len(res.SignificantChanges) == 1; got != tt.significant {
				t.Fatalf("significant = %v, want %v (%+v)", got, tt.significant, res)
			}
			if p, _ := tr.Latest("sugar"); p.Price != tt.newPrice {
				t.Fatalf("scan did not record price: latest=%v", p.Price)
			}
		})
	}
}

func TestScanRecordsFirstSightingWithoutFlag(t *testing.T) {
	tr := newTracker()

	res := tr.Scan([]Observation{{IngredientID: "cocoa", Price: 150000}})
	if len(res.SignificantChanges) != 0 {
		t.Fatalf("first sighting flagged: %+v", res.SignificantChanges)
	}
	if len(tr.History("cocoa")) != 1 {
		t.Fatal("first sighting not recorded")
	}

	res = tr.Scan([]Observation{{IngredientID: "cocoa", Price: 180000}})
	if len(res.SignificantChanges) != 1 {
		t.Fatalf("expected 20%% rise flagged, got %+v", res)
	}
	ch := res.SignificantChanges[0]
	if ch.OldPrice != 150000 || ch.NewPrice != 180000 {
		t.Fatalf("unexpected change: %+v", ch)
	}
}

func TestCustomCapacityAndClock(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tr := newTracker(WithCapacity(3), WithClock(func() time.Time { return at }))

	for i := 1; i <= 5; i++ {
		tr.Record("egg", float64(i))
	}
	h := tr.History("egg")
	if len(h) != 3 || h[0].Price != 3 {
		t.Fatalf("unexpected history: %+v", h)
	}
	if !h[0].At.Equal(at) {
		t.Fatalf("point time = %s", h[0].At)
	}
	if tr.History("unknown") != nil {
		t.Fatal("expected nil history for unknown ingredient")
	}
}
