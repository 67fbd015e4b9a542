package query

import (
	"context"
	"log/slog"

	"github.com/noot-app/fct-api/internal/index"
	"github.com/noot-app/fct-api/internal/types"
)

// MockEngine is a mock implementation for testing. It serves a small fixed
// data set through the real search path.
type MockEngine struct {
	idx    *index.Index
	limits Limits
	err    error
	log    *slog.Logger
}

// Ensure MockEngine implements QueryEngine interface
var _ QueryEngine = (*MockEngine)(nil)

func ptr[T any](v T) *T { return &v }

// NewMockEngine creates a new mock engine for testing
func NewMockEngine(logger *slog.Logger) *MockEngine {
	taxonomy := &types.Taxonomy{
		Categories: []types.CategoryMeta{
			{Code: "proximates", Name: "Proximates", Sections: []string{"Amount per 100 g E.P."}},
		},
		Nutrients: []types.NutrientMeta{
			{Code: "energy_kcal", Name: "Energy, calculated", Unit: ptr("kcal"), Category: "proximates"},
			{Code: "protein_g", Name: "Protein", Unit: ptr("g"), Category: "proximates"},
		},
	}

	foods := []types.Food{
		{
			ID:            "A001",
			Name:          "Rice, white, cooked",
			FoodGroupCode: "A",
			FoodGroup:     "Cereals and Products",
			Categories:    []string{"proximates"},
			Nutrients:     []types.Measurement{{Code: "protein_g", Name: "Protein", Value: ptr(2.4), Unit: "g", Category: "proximates"}},
			Energy:        []types.Measurement{{Code: "energy_kcal", Name: "Energy, calculated", Value: ptr(129.0), Unit: "kcal", Category: "proximates"}},
		},
		{
			ID:            "A002",
			Name:          "Rice, brown, cooked",
			FoodGroupCode: "A",
			FoodGroup:     "Cereals and Products",
			Categories:    []string{"proximates"},
			Nutrients:     []types.Measurement{{Code: "protein_g", Name: "Protein", Value: ptr(2.6), Unit: "g", Category: "proximates"}},
			Energy:        []types.Measurement{{Code: "energy_kcal", Name: "Energy, calculated", Value: ptr(124.0), Unit: "kcal", Category: "proximates"}},
		},
	}

	return &MockEngine{
		idx:    index.Build(foods, taxonomy),
		limits: DefaultLimits,
		log:    logger,
	}
}

// Search searches the mock data set
func (m *MockEngine) Search(ctx context.Context, p Params) ([]types.FoodSummary, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return Search(m.idx, p)
}

// GetByID returns a mock food by id
func (m *MockEngine) GetByID(ctx context.Context, id string) (*types.Food, error) {
	if m.err != nil {
		return nil, m.err
	}
	food, ok := m.idx.Food(id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return food, nil
}

// ListNutrients returns the mock taxonomy nutrients
func (m *MockEngine) ListNutrients(ctx context.Context) ([]types.NutrientMeta, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.idx.Taxonomy().Nutrients, nil
}

// ListCategories returns the mock taxonomy categories
func (m *MockEngine) ListCategories(ctx context.Context) ([]types.CategoryMeta, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.idx.Taxonomy().Categories, nil
}

// Limits returns the default limits
func (m *MockEngine) Limits() Limits {
	return m.limits
}

// HealthCheck returns the configured error, if any
func (m *MockEngine) HealthCheck(ctx context.Context) error {
	return m.err
}

// SetError sets an error to be returned by the mock
func (m *MockEngine) SetError(err error) {
	m.err = err
}

// SetFoods replaces the mock data set
func (m *MockEngine) SetFoods(foods []types.Food, taxonomy *types.Taxonomy) {
	m.idx = index.Build(foods, taxonomy)
}
