package query

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/noot-app/fct-api/internal/index"
	"github.com/noot-app/fct-api/internal/types"
)

// Engine answers queries against the currently installed snapshot. Readers
// always see one complete snapshot; Swap replaces it atomically.
type Engine struct {
	snapshot atomic.Pointer[index.Index]
	limits   Limits
	log      *slog.Logger
}

// Ensure Engine implements QueryEngine interface
var _ QueryEngine = (*Engine)(nil)

// NewEngine creates an engine with no snapshot installed
func NewEngine(limits Limits, logger *slog.Logger) *Engine {
	return &Engine{
		limits: limits.Normalize(),
		log:    logger,
	}
}

// Swap installs idx and returns the previous snapshot, nil on first install
func (e *Engine) Swap(idx *index.Index) *index.Index {
	prev := e.snapshot.Swap(idx)
	e.log.Info("Snapshot installed",
		"foods", idx.Len(),
		"fingerprint", idx.Fingerprint(),
		"first", prev == nil)
	return prev
}

// Snapshot returns the installed snapshot or ErrNotReady
func (e *Engine) Snapshot() (*index.Index, error) {
	idx := e.snapshot.Load()
	if idx == nil {
		return nil, ErrNotReady
	}
	return idx, nil
}

// Limits returns the page size bounds used when parsing requests
func (e *Engine) Limits() Limits {
	return e.limits
}

// Search runs a search against the current snapshot
func (e *Engine) Search(ctx context.Context, p Params) ([]types.FoodSummary, int, error) {
	idx, err := e.Snapshot()
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	items, total, err := Search(idx, p)
	if err != nil {
		e.log.Debug("Search rejected", "error", err)
		return nil, 0, err
	}

	e.log.Debug("Search completed",
		"filters", p.Filters(),
		"sort", p.Sort,
		"order", p.Order,
		"total", total,
		"count", len(items),
		"duration", time.Since(start))
	return items, total, nil
}

// GetByID returns the full record for id or a *NotFoundError
func (e *Engine) GetByID(ctx context.Context, id string) (*types.Food, error) {
	idx, err := e.Snapshot()
	if err != nil {
		return nil, err
	}

	food, ok := idx.Food(id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return food, nil
}

// ListNutrients returns the taxonomy nutrients in file order
func (e *Engine) ListNutrients(ctx context.Context) ([]types.NutrientMeta, error) {
	idx, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return idx.Taxonomy().Nutrients, nil
}

// ListCategories returns the taxonomy categories in file order
func (e *Engine) ListCategories(ctx context.Context) ([]types.CategoryMeta, error) {
	idx, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return idx.Taxonomy().Categories, nil
}

// HealthCheck reports ErrNotReady until a snapshot is installed
func (e *Engine) HealthCheck(ctx context.Context) error {
	_, err := e.Snapshot()
	return err
}
