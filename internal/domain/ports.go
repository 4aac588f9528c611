package domain

import "context"

// RecipeProvider is the external recipe data store. Implementations can be
// in-memory, SQL-backed, or a hosted API.
type RecipeProvider interface {
	GetRecipe(ctx context.Context, id string) (*Recipe, error)
	ListRecipeIDs(ctx context.Context) ([]string, error)
	FindRecipesUsingIngredient(ctx context.Context, ingredientID string) ([]RecipeRef, error)
}

// IngredientLister is an optional provider capability used by the
// background price re-scan.
type IngredientLister interface {
	ListIngredients(ctx context.Context) ([]Ingredient, error)
}

// IngredientGetter is an optional provider capability used to put
// ingredient names into alert text.
type IngredientGetter interface {
	GetIngredient(ctx context.Context, id string) (*Ingredient, error)
}

// PriceWriter is an optional provider capability for storing an ingredient
// price. It returns the price it replaced.
type PriceWriter interface {
	SetIngredientPrice(ctx context.Context, id string, price float64) (float64, error)
}

// NotificationSink delivers notifications to a human-facing surface.
// Persisted inbox vs. push is the sink's concern.
type NotificationSink interface {
	Send(ctx context.Context, n Notification) error
}

// BatchSink is an optional sink capability for delivering a batch at once.
type BatchSink interface {
	SendBatch(ctx context.Context, ns []Notification) error
}

// SnapshotStore keeps historical cost snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s Snapshot) error
	ListSnapshots(ctx context.Context, recipeID string, limit int) ([]Snapshot, error)
}
