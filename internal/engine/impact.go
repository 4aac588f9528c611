package engine

import (
	"math"

	"github.com/hammamikhairi/hppkit/internal/domain"
)

// ImpactPolicy classifies how much one recipe's cost per serving moved.
// In absolute mode High and Medium are currency amounts; in relative mode
// they are percentages of the old cost per serving.
type ImpactPolicy struct {
	High     float64
	Medium   float64
	Relative bool
}

// DefaultImpactPolicy flags moves above 1000 as high and above 500 as
// medium, in currency units.
func DefaultImpactPolicy() ImpactPolicy {
	return ImpactPolicy{High: 1000, Medium: 500}
}

// Classify grades the move from oldCPS to newCPS.
func (p ImpactPolicy) Classify(oldCPS, newCPS float64) domain.ImpactLevel {
	delta := math.Abs(newCPS - oldCPS)
	if p.Relative {
		delta = math.Abs(domain.PercentChange(oldCPS, newCPS))
	}
	switch {
	case delta > p.High:
		return domain.ImpactHigh
	case delta > p.Medium:
		return domain.ImpactMedium
	default:
		return domain.ImpactLow
	}
}
