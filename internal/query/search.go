package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/noot-app/fct-api/internal/index"
	"github.com/noot-app/fct-api/internal/types"
)

// Search filters, sorts and pages the foods in idx. total is the number of
// foods matching every filter before paging. Unknown filter values and an
// unknown sort field match nothing and are not errors.
func Search(idx *index.Index, p Params) ([]types.FoodSummary, int, error) {
	if idx == nil {
		return nil, 0, ErrNotReady
	}
	if err := p.validate(); err != nil {
		return nil, 0, err
	}

	compare, ok := comparator(idx, p.Sort, p.Order)
	if !ok {
		return []types.FoodSummary{}, 0, nil
	}

	ids := filter(idx, p)
	total := len(ids)
	slices.SortStableFunc(ids, compare)

	start := min(p.Offset, total)
	end := min(start+p.Limit, total)

	items := make([]types.FoodSummary, 0, end-start)
	for _, id := range ids[start:end] {
		food, _ := idx.Food(id)
		items = append(items, food.ToSummary())
	}
	return items, total, nil
}

// filter intersects the id set of every applied filter. The returned slice
// is owned by the caller.
func filter(idx *index.Index, p Params) []string {
	var sets [][]string

	if p.Q != nil {
		if ids, active := idx.Text(*p.Q); active {
			sets = append(sets, ids)
		}
	}
	if p.Category != nil {
		sets = append(sets, idx.Category(*p.Category))
	}
	if p.Nutrient != nil {
		sets = append(sets, idx.Nutrient(*p.Nutrient))
	}
	if p.FoodGroupCode != nil {
		sets = append(sets, idx.FoodGroupCode(*p.FoodGroupCode))
	}
	if p.FoodGroup != nil {
		sets = append(sets, idx.FoodGroup(*p.FoodGroup))
	}

	if len(sets) == 0 {
		return slices.Clone(idx.IDs())
	}
	ids := index.IntersectAll(sets...)
	if ids == nil {
		ids = []string{}
	}
	return ids
}

// comparator returns the ordering for a sort field. Ties always fall back to
// id ascending, whatever the order. Foods without a value for a nutrient sort
// field come after every food with one, in both orders.
func comparator(idx *index.Index, field string, order Order) (func(a, b string) int, bool) {
	dir := 1
	if order == OrderDesc {
		dir = -1
	}

	var key func(a, b *index.Entry) int
	switch field {
	case "", SortID:
		return func(a, b string) int { return dir * strings.Compare(a, b) }, true
	case SortName:
		key = func(a, b *index.Entry) int { return dir * strings.Compare(a.SortName, b.SortName) }
	case SortFoodGroup:
		key = func(a, b *index.Entry) int { return dir * strings.Compare(a.FoodGroup, b.FoodGroup) }
	case SortFoodGroupCode:
		key = func(a, b *index.Entry) int { return dir * strings.Compare(a.FoodGroupCode, b.FoodGroupCode) }
	default:
		if !idx.IsNutrient(field) {
			return nil, false
		}
		key = func(a, b *index.Entry) int {
			va, oka := a.Value(field)
			vb, okb := b.Value(field)
			switch {
			case !oka && !okb:
				return 0
			case !oka:
				return 1
			case !okb:
				return -1
			}
			return dir * cmp.Compare(va, vb)
		}
	}

	return func(a, b string) int {
		ea, _ := idx.Entry(a)
		eb, _ := idx.Entry(b)
		if c := key(ea, eb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	}, true
}
