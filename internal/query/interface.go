package query

import (
	"context"
	"os"

	"github.com/noot-app/fct-api/internal/types"
)

// QueryEngine defines the read operations served by the HTTP and MCP layers
type QueryEngine interface {
	Search(ctx context.Context, p Params) ([]types.FoodSummary, int, error)
	GetByID(ctx context.Context, id string) (*types.Food, error)
	ListNutrients(ctx context.Context) ([]types.NutrientMeta, error)
	ListCategories(ctx context.Context) ([]types.CategoryMeta, error)
	Limits() Limits
	HealthCheck(ctx context.Context) error
}

// UseMock reports whether QUERY_ENGINE_MOCK asks for the in-memory mock
// instead of a loaded dataset
func UseMock() bool {
	return os.Getenv("QUERY_ENGINE_MOCK") == "true"
}
