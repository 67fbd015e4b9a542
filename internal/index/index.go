// Package index builds the immutable, query-ready snapshot of a loaded
// dataset. An *Index is safe for concurrent reads and is never modified
// after Build returns.
package index

import (
	"slices"
	"strings"
	"time"

	"github.com/noot-app/fct-api/internal/dataset"
	"github.com/noot-app/fct-api/internal/types"
)

// Entry is the flattened, filter-friendly view of one food
type Entry struct {
	ID            string
	Name          string
	SortName      string
	Tokens        []string
	Categories    []string
	FoodGroupCode string
	FoodGroup     string
	Values        map[string]*float64
}

// Value returns the measured value of a nutrient code. ok is false when the
// food has no measurement for code or the value was not reported.
func (e *Entry) Value(code string) (float64, bool) {
	v := e.Values[code]
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Index is a snapshot of foods and taxonomy with lookup sets for every
// filterable field. Every id set is sorted ascending.
type Index struct {
	ids      []string
	foods    map[string]*types.Food
	entries  map[string]*Entry
	taxonomy *types.Taxonomy

	tokens     map[string][]string
	vocab      []string
	categories map[string][]string
	nutrients  map[string][]string
	groupCodes map[string][]string
	groupNames map[string][]string

	fingerprint string
	builtAt     time.Time
}

// Build indexes foods against taxonomy. Build has no side effects and the
// same input always produces an index that answers queries identically.
// When two foods share an id the first one wins.
func Build(foods []types.Food, taxonomy *types.Taxonomy) *Index {
	if taxonomy == nil {
		taxonomy = &types.Taxonomy{}
	}

	idx := &Index{
		foods:      make(map[string]*types.Food, len(foods)),
		entries:    make(map[string]*Entry, len(foods)),
		taxonomy:   taxonomy,
		tokens:     make(map[string][]string),
		categories: make(map[string][]string),
		nutrients:  make(map[string][]string),
		groupCodes: make(map[string][]string),
		groupNames: make(map[string][]string),
		builtAt:    time.Now().UTC(),
	}

	for i := range foods {
		food := &foods[i]
		if _, dup := idx.foods[food.ID]; dup {
			continue
		}
		idx.foods[food.ID] = food
		idx.ids = append(idx.ids, food.ID)
	}
	slices.Sort(idx.ids)

	// Walking ids in order keeps every posting list sorted
	for _, id := range idx.ids {
		entry := newEntry(idx.foods[id])
		idx.entries[id] = entry

		for _, token := range entry.Tokens {
			idx.tokens[token] = append(idx.tokens[token], id)
		}
		for _, code := range entry.Categories {
			if !slices.Contains(idx.categories[code], id) {
				idx.categories[code] = append(idx.categories[code], id)
			}
		}
		for code, value := range entry.Values {
			if value != nil {
				idx.nutrients[code] = append(idx.nutrients[code], id)
			}
		}
		if entry.FoodGroupCode != "" {
			idx.groupCodes[entry.FoodGroupCode] = append(idx.groupCodes[entry.FoodGroupCode], id)
		}
		if entry.FoodGroup != "" {
			idx.groupNames[entry.FoodGroup] = append(idx.groupNames[entry.FoodGroup], id)
		}
	}

	idx.vocab = make([]string, 0, len(idx.tokens))
	for token := range idx.tokens {
		idx.vocab = append(idx.vocab, token)
	}
	slices.Sort(idx.vocab)

	return idx
}

// FromStore builds an index from a loaded store and records its fingerprint
func FromStore(store *dataset.Store) *Index {
	idx := Build(store.Foods, store.Taxonomy)
	idx.fingerprint = store.Fingerprint
	return idx
}

func newEntry(food *types.Food) *Entry {
	entry := &Entry{
		ID:            food.ID,
		Name:          food.Name,
		SortName:      Fold(food.Name),
		Tokens:        Tokenize(food.Name),
		Categories:    food.Categories,
		FoodGroupCode: strings.ToUpper(food.FoodGroupCode),
		FoodGroup:     Fold(strings.TrimSpace(food.FoodGroup)),
		Values:        make(map[string]*float64, len(food.Nutrients)+len(food.Energy)),
	}
	for _, m := range food.Measurements() {
		// a later non-null value replaces an earlier null one
		if existing, ok := entry.Values[m.Code]; ok && existing != nil {
			continue
		}
		entry.Values[m.Code] = m.Value
	}
	return entry
}

// Len returns the number of indexed foods
func (idx *Index) Len() int {
	return len(idx.ids)
}

// IDs returns every food id in ascending order. The slice must not be modified.
func (idx *Index) IDs() []string {
	return idx.ids
}

// Food returns the full record for id
func (idx *Index) Food(id string) (*types.Food, bool) {
	food, ok := idx.foods[id]
	return food, ok
}

// Entry returns the flattened entry for id
func (idx *Index) Entry(id string) (*Entry, bool) {
	entry, ok := idx.entries[id]
	return entry, ok
}

// Taxonomy returns the taxonomy the index was built with
func (idx *Index) Taxonomy() *types.Taxonomy {
	return idx.taxonomy
}

// Fingerprint returns the source data fingerprint, empty when built directly
func (idx *Index) Fingerprint() string {
	return idx.fingerprint
}

// BuiltAt returns when the snapshot was built
func (idx *Index) BuiltAt() time.Time {
	return idx.builtAt
}

// IsNutrient reports whether code is a nutrient code declared in the taxonomy
func (idx *Index) IsNutrient(code string) bool {
	_, ok := idx.taxonomy.Nutrient(code)
	return ok
}

// Text returns the foods whose name matches every token of q, where a query
// token matches when it is a substring of some name token. active is false
// when q contains no tokens, meaning no text filter applies.
func (idx *Index) Text(q string) (ids []string, active bool) {
	queryTokens := Tokenize(q)
	if len(queryTokens) == 0 {
		return nil, false
	}

	perToken := make([][]string, 0, len(queryTokens))
	for _, qt := range queryTokens {
		var matches [][]string
		for _, term := range idx.vocab {
			if strings.Contains(term, qt) {
				matches = append(matches, idx.tokens[term])
			}
		}
		if len(matches) == 0 {
			return []string{}, true
		}
		perToken = append(perToken, union(matches...))
	}
	return IntersectAll(perToken...), true
}

// Category returns the foods tagged with a category code
func (idx *Index) Category(code string) []string {
	return idx.categories[code]
}

// Nutrient returns the foods with a reported value for a nutrient code
func (idx *Index) Nutrient(code string) []string {
	return idx.nutrients[code]
}

// FoodGroupCode returns the foods in a food group, matched on its code
func (idx *Index) FoodGroupCode(code string) []string {
	return idx.groupCodes[strings.ToUpper(strings.TrimSpace(code))]
}

// FoodGroup returns the foods in a food group, matched case-insensitively on
// its display name
func (idx *Index) FoodGroup(name string) []string {
	return idx.groupNames[Fold(strings.TrimSpace(name))]
}
