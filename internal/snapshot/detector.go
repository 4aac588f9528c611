package snapshot

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

// Drift thresholds on |Δ%| of cost per serving between two snapshots.
const (
	SignificantPercent = 5.0
	HighPercent        = 10.0
	CriticalPercent    = 20.0
)

// Detector compares the two latest snapshots of a recipe.
type Detector struct {
	store domain.SnapshotStore
	log   *logger.Logger
	now   func() time.Time
}

// NewDetector creates a detector reading from store.
func NewDetector(store domain.SnapshotStore, log *logger.Logger) *Detector {
	return &Detector{store: store, log: log, now: time.Now}
}

// Severity grades a drift percentage. ok is false when the change is not
// significant.
func Severity(changePercent float64) (sev domain.DriftSeverity, ok bool) {
	abs := math.Abs(changePercent)
	switch {
	case abs > CriticalPercent:
		return domain.DriftCritical, true
	case abs > HighPercent:
		return domain.DriftHigh, true
	case abs > SignificantPercent:
		return domain.DriftMedium, true
	default:
		return "", false
	}
}

// Check returns a drift alert for recipeID, or nil when there are fewer than
// two snapshots or the move is not significant.
func (d *Detector) Check(ctx context.Context, recipeID string) (*domain.DriftAlert, error) {
	snaps, err := d.store.ListSnapshots(ctx, recipeID, 2)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots for %s: %w", recipeID, err)
	}
	if len(snaps) < 2 {
		return nil, nil
	}

	current, previous := snaps[0], snaps[1]
	pct := domain.PercentChange(previous.CostPerServing, current.CostPerServing)
	sev, ok := Severity(pct)
	if !ok {
		return nil, nil
	}

	d.log.Info("drift on %s: %.1f%% (%s)", recipeID, pct, sev)
	return &domain.DriftAlert{
		RecipeID:      recipeID,
		RecipeName:    current.RecipeName,
		Previous:      previous.CostPerServing,
		Current:       current.CostPerServing,
		ChangePercent: pct,
		Severity:      sev,
		DetectedAt:    d.now(),
	}, nil
}
