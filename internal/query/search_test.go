package query

import (
	"testing"

	"github.com/noot-app/fct-api/internal/fixture"
	"github.com/noot-app/fct-api/internal/index"
	"github.com/noot-app/fct-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureIndex() *index.Index {
	return index.Build(fixture.Foods(), fixture.Taxonomy())
}

func ids(items []types.FoodSummary) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func params(mutate func(p *Params)) Params {
	p := NewParams(DefaultLimits)
	if mutate != nil {
		mutate(&p)
	}
	return p
}

func TestSearch_NoFilters(t *testing.T) {
	idx := fixtureIndex()
	n := idx.Len()

	tests := []struct {
		limit, offset int
	}{
		{1, 0}, {3, 0}, {3, 3}, {3, 6}, {50, 0}, {2, 7}, {5, 100},
	}

	for _, tt := range tests {
		items, total, err := Search(idx, params(func(p *Params) {
			p.Limit = tt.limit
			p.Offset = tt.offset
		}))
		require.NoError(t, err)
		assert.Equal(t, n, total)
		assert.Len(t, items, max(0, min(tt.limit, n-tt.offset)), "limit=%d offset=%d", tt.limit, tt.offset)
	}
}

func TestSearch_Filters(t *testing.T) {
	idx := fixtureIndex()

	tests := []struct {
		name  string
		p     Params
		want  []string
		total int
	}{
		{"text", params(func(p *Params) { p.Q = StringPtr("rice") }), []string{"A001", "A002"}, 2},
		{"category", params(func(p *Params) { p.Category = StringPtr("minerals") }), []string{"A001", "A002", "D001", "G001"}, 4},
		{"nutrient excludes nulls", params(func(p *Params) { p.Nutrient = StringPtr("iron_mg") }), []string{"A002", "D001", "G001"}, 3},
		{"food group code", params(func(p *Params) { p.FoodGroupCode = StringPtr("e") }), []string{"E001", "E002"}, 2},
		{"food group name", params(func(p *Params) { p.FoodGroup = StringPtr("FRUITS AND PRODUCTS") }), []string{"E001", "E002"}, 2},
		{"unknown category", params(func(p *Params) { p.Category = StringPtr("ZZZ") }), []string{}, 0},
		{"unknown nutrient", params(func(p *Params) { p.Nutrient = StringPtr("zinc_mg") }), []string{}, 0},
		{"unknown food group code", params(func(p *Params) { p.FoodGroupCode = StringPtr("Z") }), []string{}, 0},
		{"unknown sort", params(func(p *Params) { p.Sort = "color" }), []string{}, 0},
		{"blank text is no filter", params(func(p *Params) { p.Q = StringPtr(",,") }), []string{"A001", "A002", "B001", "D001", "E001", "E002", "G001"}, 7},
		{"accent folding", params(func(p *Params) { p.Q = StringPtr("PIÑA") }), []string{"E002"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := Search(idx, tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.total, total)
			assert.Equal(t, tt.want, ids(items))
			assert.NotNil(t, items)
		})
	}
}

func TestSearch_FilterConjunction(t *testing.T) {
	idx := fixtureIndex()

	filters := map[string]func(p *Params){
		"q":        func(p *Params) { p.Q = StringPtr("raw") },
		"category": func(p *Params) { p.Category = StringPtr("minerals") },
		"nutrient": func(p *Params) { p.Nutrient = StringPtr("fat_g") },
		"group":    func(p *Params) { p.FoodGroupCode = StringPtr("A") },
		"name":     func(p *Params) { p.Q = StringPtr("cooked") },
	}

	run := func(mutators ...func(p *Params)) []string {
		items, _, err := Search(idx, params(func(p *Params) {
			p.Limit = 500
			for _, m := range mutators {
				m(p)
			}
		}))
		require.NoError(t, err)
		return ids(items)
	}

	for aName, a := range filters {
		for bName, b := range filters {
			if aName >= bName || (aName == "name" || bName == "name") && (aName == "q" || bName == "q") {
				continue
			}
			both := run(a, b)
			want := index.Intersect(run(a), run(b))
			assert.Equal(t, want, both, "%s AND %s", aName, bName)
		}
	}
}

func TestSearch_Sort(t *testing.T) {
	idx := fixtureIndex()

	tests := []struct {
		sort  string
		order Order
		want  []string
	}{
		{SortID, OrderAsc, []string{"A001", "A002", "B001", "D001", "E001", "E002", "G001"}},
		{SortID, OrderDesc, []string{"G001", "E002", "E001", "D001", "B001", "A002", "A001"}},
		{SortName, OrderAsc, []string{"D001", "E001", "G001", "B001", "E002", "A002", "A001"}},
		{SortName, OrderDesc, []string{"A001", "A002", "E002", "B001", "G001", "E001", "D001"}},
		{SortFoodGroup, OrderAsc, []string{"A001", "A002", "G001", "E001", "E002", "B001", "D001"}},
		{SortFoodGroup, OrderDesc, []string{"D001", "B001", "E001", "E002", "G001", "A001", "A002"}},
		{SortFoodGroupCode, OrderDesc, []string{"G001", "E001", "E002", "D001", "B001", "A001", "A002"}},
		// ties on 0.1 g fall back to id ascending; the null sorts last
		{"fat_g", OrderAsc, []string{"E001", "E002", "A001", "B001", "A002", "G001", "D001"}},
		{"fat_g", OrderDesc, []string{"G001", "A002", "B001", "A001", "E001", "E002", "D001"}},
		// unmeasured foods sort last in both orders, by id
		{"calcium_mg", OrderAsc, []string{"A001", "A002", "G001", "D001", "B001", "E001", "E002"}},
		{"calcium_mg", OrderDesc, []string{"D001", "G001", "A002", "A001", "B001", "E001", "E002"}},
		{"iron_mg", OrderAsc, []string{"A002", "G001", "D001", "A001", "B001", "E001", "E002"}},
	}

	for _, tt := range tests {
		t.Run(tt.sort+"_"+string(tt.order), func(t *testing.T) {
			p := params(func(p *Params) {
				p.Sort = tt.sort
				p.Order = tt.order
			})

			first, total, err := Search(idx, p)
			require.NoError(t, err)
			assert.Equal(t, 7, total)
			assert.Equal(t, tt.want, ids(first))

			second, _, err := Search(idx, p)
			require.NoError(t, err)
			assert.Equal(t, ids(first), ids(second), "repeated query must order identically")
		})
	}
}

func TestSearch_PaginationCompleteness(t *testing.T) {
	idx := fixtureIndex()

	for _, sort := range []string{SortID, SortName, SortFoodGroup, "fat_g", "calcium_mg"} {
		for _, limit := range []int{1, 2, 3, 7, 10} {
			full, total, err := Search(idx, params(func(p *Params) {
				p.Sort = sort
				p.Order = OrderDesc
				p.Limit = 500
			}))
			require.NoError(t, err)

			var paged []string
			for offset := 0; offset < total; offset += limit {
				items, pageTotal, err := Search(idx, params(func(p *Params) {
					p.Sort = sort
					p.Order = OrderDesc
					p.Limit = limit
					p.Offset = offset
				}))
				require.NoError(t, err)
				assert.Equal(t, total, pageTotal)
				paged = append(paged, ids(items)...)
			}

			assert.Equal(t, ids(full), paged, "sort=%s limit=%d", sort, limit)
		}
	}
}

func TestSearch_InvalidParams(t *testing.T) {
	idx := fixtureIndex()

	tests := []struct {
		name  string
		p     Params
		param string
	}{
		{"zero limit", params(func(p *Params) { p.Limit = 0 }), ParamLimit},
		{"negative limit", params(func(p *Params) { p.Limit = -1 }), ParamLimit},
		{"negative offset", params(func(p *Params) { p.Offset = -5 }), ParamOffset},
		{"bad order", params(func(p *Params) { p.Order = "sideways" }), ParamOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Search(idx, tt.p)
			require.Error(t, err)
			assert.True(t, IsInvalidParam(err))

			var ipe *InvalidParamError
			require.ErrorAs(t, err, &ipe)
			assert.Equal(t, tt.param, ipe.Param)
		})
	}
}

func TestSearch_NilIndex(t *testing.T) {
	_, _, err := Search(nil, NewParams(DefaultLimits))
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSearch_RiceExample(t *testing.T) {
	cereals := []types.Food{
		{ID: "A001", Name: "Rice, white, cooked", FoodGroupCode: "A", FoodGroup: "Cereals"},
		{ID: "A002", Name: "Rice, brown, cooked", FoodGroupCode: "A", FoodGroup: "Cereals"},
	}
	idx := index.Build(cereals, &types.Taxonomy{})

	page := func(sort string, offset int) ([]string, int) {
		items, total, err := Search(idx, Params{
			Q:      StringPtr("rice"),
			Sort:   sort,
			Order:  OrderDesc,
			Limit:  1,
			Offset: offset,
		})
		require.NoError(t, err)
		return ids(items), total
	}

	got, total := page(SortID, 0)
	assert.Equal(t, []string{"A002"}, got)
	assert.Equal(t, 2, total)

	got, total = page(SortID, 1)
	assert.Equal(t, []string{"A001"}, got)
	assert.Equal(t, 2, total)

	// "rice, white" is after "rice, brown", so it leads a descending name sort
	got, _ = page(SortName, 0)
	assert.Equal(t, []string{"A001"}, got)
	got, _ = page(SortName, 1)
	assert.Equal(t, []string{"A002"}, got)

	got, total = page(SortName, 2)
	assert.Empty(t, got)
	assert.Equal(t, 2, total)
}
