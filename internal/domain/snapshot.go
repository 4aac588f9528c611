package domain

import "time"

// Snapshot is a point-in-time record of a recipe's cost, kept by the
// optional historical store to detect drift independent of the live cache.
type Snapshot struct {
	ID             string    `json:"id"`
	RecipeID       string    `json:"recipe_id"`
	RecipeName     string    `json:"recipe_name"`
	TotalCost      float64   `json:"total_cost"`
	CostPerServing float64   `json:"cost_per_serving"`
	TakenAt        time.Time `json:"taken_at"`
}

// DriftSeverity grades a historical cost drift.
type DriftSeverity string

const (
	DriftMedium   DriftSeverity = "medium"
	DriftHigh     DriftSeverity = "high"
	DriftCritical DriftSeverity = "critical"
)

// DriftAlert is produced when two consecutive snapshots differ enough.
type DriftAlert struct {
	RecipeID      string        `json:"recipe_id"`
	RecipeName    string        `json:"recipe_name"`
	Previous      float64       `json:"previous"`
	Current       float64       `json:"current"`
	ChangePercent float64       `json:"change_percent"`
	Severity      DriftSeverity `json:"severity"`
	DetectedAt    time.Time     `json:"detected_at"`
}
