// Package snapshot keeps historical cost snapshots and detects drift
// between consecutive ones.
package snapshot

import (
	"context"
	"sort"
	"sync"

	"github.com/hammamikhairi/hppkit/internal/domain"
	"github.com/hammamikhairi/hppkit/internal/logger"
)

// Compile-time interface check.
var _ domain.SnapshotStore = (*MemoryStore)(nil)

// DefaultPerRecipe is how many snapshots MemoryStore keeps per recipe.
const DefaultPerRecipe = 100

// MemoryStore is an in-memory snapshot store. Safe for concurrent access.
type MemoryStore struct {
	mu        sync.RWMutex
	byRecipe  map[string][]domain.Snapshot // oldest first
	perRecipe int
	log       *logger.Logger
}

// NewMemoryStore creates an empty store keeping at most perRecipe snapshots
// per recipe (DefaultPerRecipe when perRecipe <= 0).
func NewMemoryStore(log *logger.Logger, perRecipe int) *MemoryStore {
	if perRecipe <= 0 {
		perRecipe = DefaultPerRecipe
	}
	return &MemoryStore{
		byRecipe:  make(map[string][]domain.Snapshot),
		perRecipe: perRecipe,
		log:       log,
	}
}

// SaveSnapshot appends a snapshot, dropping the oldest past the cap.
func (s *MemoryStore) SaveSnapshot(_ context.Context, snap domain.Snapshot) error {
	if snap.RecipeID == "" {
		return domain.Invalid("recipe_id", "must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.byRecipe[snap.RecipeID], snap)
	sort.SliceStable(list, func(i, j int) bool { return list[i].TakenAt.Before(list[j].TakenAt) })
	if len(list) > s.perRecipe {
		list = append([]domain.Snapshot(nil), list[len(list)-s.perRecipe:]...)
	}
	s.byRecipe[snap.RecipeID] = list

	s.log.Debug("snapshot saved for %s (%d kept)", snap.RecipeID, len(list))
	return nil
}

// ListSnapshots returns up to limit snapshots, newest first. limit <= 0
// returns all of them.
func (s *MemoryStore) ListSnapshots(_ context.Context, recipeID string, limit int) ([]domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byRecipe[recipeID]
	n := len(list)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Snapshot, 0, n)
	for i := len(list) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, list[i])
	}
	return out, nil
}
