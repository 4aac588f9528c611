package domain

import "time"

// ImpactLevel is a coarse classification of how much a cost moved.
type ImpactLevel int

const (
	ImpactLow ImpactLevel = iota
	ImpactMedium
	ImpactHigh
)

// String returns a human-readable impact level.
func (l ImpactLevel) String() string {
	switch l {
	case ImpactLow:
		return "low"
	case ImpactMedium:
		return "medium"
	case ImpactHigh:
		return "high"
	default:
		return "unknown"
	}
}

// MarshalText lets impact levels render as strings in JSON.
func (l ImpactLevel) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// RecalculationResult describes how one recipe's cost moved.
type RecalculationResult struct {
	RecipeID          string      `json:"recipe_id"`
	RecipeName        string      `json:"recipe_name"`
	OldCostPerServing float64     `json:"old_cost_per_serving"`
	NewCostPerServing float64     `json:"new_cost_per_serving"`
	Change            float64     `json:"change"`
	ChangePercent     float64     `json:"change_percent"`
	Impact            ImpactLevel `json:"impact"`
}

// NewRecalculationResult fills in the deltas between old and new.
func NewRecalculationResult(ref RecipeRef, oldCPS, newCPS float64, impact ImpactLevel) RecalculationResult {
	return RecalculationResult{
		RecipeID:          ref.ID,
		RecipeName:        ref.Name,
		OldCostPerServing: oldCPS,
		NewCostPerServing: newCPS,
		Change:            newCPS - oldCPS,
		ChangePercent:     PercentChange(oldCPS, newCPS),
		Impact:            impact,
	}
}

// PercentChange returns (new-old)/old*100, or 0 when old is zero.
func PercentChange(old, new float64) float64 {
	if old == 0 {
		return 0
	}
	return (new - old) / old * 100
}

// BatchSummary reports a batch recomputation so callers can observe
// partial failure without per-item errors.
type BatchSummary struct {
	Reason    string        `json:"reason"`
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Total     int           `json:"total"`
	Took      time.Duration `json:"took"`
}

// Complete reports whether every item was processed.
func (s BatchSummary) Complete() bool { return s.Processed == s.Total }

// PriceChange is a detected ingredient price movement.
type PriceChange struct {
	IngredientID  string  `json:"ingredient_id"`
	OldPrice      float64 `json:"old_price"`
	NewPrice      float64 `json:"new_price"`
	ChangePercent float64 `json:"change_percent"`
}
