package domain

import (
	"fmt"
	"time"
)

// NotificationCategory groups notifications by what produced them.
type NotificationCategory string

const (
	CategoryPriceChange  NotificationCategory = "price_change"
	CategoryRecipeImpact NotificationCategory = "recipe_impact"
	CategoryCostChange   NotificationCategory = "cost_change"
	CategoryBatch        NotificationCategory = "batch_recalculation"
	CategorySystemHealth NotificationCategory = "system_health"
	CategoryCostDrift    NotificationCategory = "cost_drift"
)

// Priority orders notifications for the display surface.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// String returns a human-readable priority.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// MarshalText lets priorities render as strings in JSON.
func (p Priority) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Payload is the structured business data attached to a notification.
// The set is closed: only the payload types in this package satisfy it.
type Payload interface {
	Category() NotificationCategory
}

// PriceChangePayload accompanies an aggregate ingredient price alert.
type PriceChangePayload struct {
	PriceChange
	Impact          ImpactLevel `json:"impact"`
	AffectedRecipes int         `json:"affected_recipes"`
}

func (PriceChangePayload) Category() NotificationCategory { return CategoryPriceChange }

// RecipeImpactPayload accompanies a per-recipe alert.
type RecipeImpactPayload struct {
	IngredientID string              `json:"ingredient_id"`
	Result       RecalculationResult `json:"result"`
}

func (RecipeImpactPayload) Category() NotificationCategory { return CategoryRecipeImpact }

// CostChangePayload accompanies an operational cost change.
type CostChangePayload struct {
	CostID        string  `json:"cost_id"`
	Name          string  `json:"name"`
	OldAmount     float64 `json:"old_amount"`
	NewAmount     float64 `json:"new_amount"`
	AutoAllocated bool    `json:"auto_allocated"`
}

func (CostChangePayload) Category() NotificationCategory { return CategoryCostChange }

// BatchPayload accompanies a batch recomputation report.
type BatchPayload struct {
	Reason    string `json:"reason"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
}

func (BatchPayload) Category() NotificationCategory { return CategoryBatch }

// HealthPayload accompanies a system health notice.
type HealthPayload struct {
	Level HealthLevel `json:"level"`
}

func (HealthPayload) Category() NotificationCategory { return CategorySystemHealth }

// DriftPayload accompanies a historical cost drift alert.
type DriftPayload struct {
	Drift DriftAlert `json:"drift"`
}

func (DriftPayload) Category() NotificationCategory { return CategoryCostDrift }

// HealthLevel is the severity of a system health notice.
type HealthLevel string

const (
	HealthInfo     HealthLevel = "info"
	HealthWarning  HealthLevel = "warning"
	HealthCritical HealthLevel = "critical"
)

// Notification is a human-facing alert handed to a NotificationSink.
type Notification struct {
	ID        string               `json:"id"`
	Category  NotificationCategory `json:"category"`
	Priority  Priority             `json:"priority"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	ActionRef string               `json:"action_ref,omitempty"`
	Payload   Payload              `json:"payload,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	Read      bool                 `json:"read"`
}

// NewNotification builds a notification and checks that the payload matches
// the category.
func NewNotification(id string, category NotificationCategory, priority Priority, title, message string, payload Payload, at time.Time) (Notification, error) {
	if title == "" {
		return Notification{}, Invalid("title", "must not be empty")
	}
	if payload != nil && payload.Category() != category {
		return Notification{}, Invalid("payload", "%T does not belong to category %s", payload, category)
	}
	return Notification{
		ID:        id,
		Category:  category,
		Priority:  priority,
		Title:     title,
		Message:   message,
		Payload:   payload,
		CreatedAt: at,
	}, nil
}

// String is used by plain-text sinks and logs.
func (n Notification) String() string {
	return fmt.Sprintf("[%s] %s: %s", n.Priority, n.Title, n.Message)
}
