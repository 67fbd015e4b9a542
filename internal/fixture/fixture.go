// Package fixture provides a small PhilFCT data set for tests
package fixture

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/noot-app/fct-api/internal/types"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

// Taxonomy returns the fixture taxonomy
func Taxonomy() *types.Taxonomy {
	return &types.Taxonomy{
		Categories: []types.CategoryMeta{
			{Code: "proximates", Name: "Proximates", Sections: []string{"Amount per 100 g E.P."}},
			{Code: "minerals", Name: "Minerals", Sections: []string{}},
		},
		Nutrients: []types.NutrientMeta{
			{Code: "energy_kcal", Name: "Energy, calculated", Unit: s("kcal"), Category: "proximates"},
			{Code: "protein_g", Name: "Protein", Unit: s("g"), Category: "proximates"},
			{Code: "fat_g", Name: "Total Fat", Unit: s("g"), Category: "proximates"},
			{Code: "calcium_mg", Name: "Calcium", Unit: s("mg"), Category: "minerals"},
			{Code: "iron_mg", Name: "Iron", Unit: s("mg"), Category: "minerals"},
		},
	}
}

func food(id, name, group string, categories []string, protein, fat, calcium, iron, energy *float64) types.Food {
	code := types.FoodGroupCodeForID(id)
	nutrients := []types.Measurement{
		{Code: "protein_g", Name: "Protein", Value: protein, Unit: "g", Category: "proximates"},
		{Code: "fat_g", Name: "Total Fat", Value: fat, Unit: "g", Category: "proximates"},
	}
	for _, c := range categories {
		if c == "minerals" {
			nutrients = append(nutrients,
				types.Measurement{Code: "calcium_mg", Name: "Calcium", Value: calcium, Unit: "mg", Category: "minerals"},
				types.Measurement{Code: "iron_mg", Name: "Iron", Value: iron, Unit: "mg", Category: "minerals"},
			)
		}
	}
	return types.Food{
		ID:            id,
		Name:          name,
		FoodGroupCode: code,
		FoodGroup:     group,
		Categories:    categories,
		Nutrients:     nutrients,
		Energy: []types.Measurement{
			{Code: "energy_kcal", Name: "Energy, calculated", Value: energy, Unit: "kcal", Category: "proximates"},
		},
	}
}

// Foods returns the fixture foods, ordered by id
func Foods() []types.Food {
	both := []string{"proximates", "minerals"}
	prox := []string{"proximates"}
	return []types.Food{
		food("A001", "Rice, white, cooked", "Cereals and Products", both, f(2.4), f(0.2), f(3), nil, f(129)),
		food("A002", "Rice, brown, cooked", "Cereals and Products", both, f(2.6), f(0.9), f(10), f(0.4), f(124)),
		food("B001", "Cassava, raw", "Starchy Roots, Tubers and Products", prox, f(1.2), f(0.3), nil, nil, f(152)),
		food("D001", "Ampalaya leaves", "Vegetables and Products", both, f(4.6), nil, f(99), f(1.1), f(50)),
		food("E001", "Banana, saba", "Fruits and Products", prox, f(1.0), f(0.1), nil, nil, f(120)),
		food("E002", "Piña, ripe", "Fruits and Products", prox, f(0.5), f(0.1), nil, nil, f(52)),
		food("G001", "Bangus (milkfish), raw", "Finfish, Shellfish and Other Aquatic Animals and Products", both, f(20.5), f(6.7), f(53), f(0.7), f(148)),
	}
}

type measurementDoc struct {
	Code  string   `json:"code"`
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
}

type foodDoc struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	FoodGroup    string           `json:"food_group"`
	Categories   []string         `json:"categories"`
	Measurements []measurementDoc `json:"measurements"`
}

type indexItem struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FoodGroupCode string `json:"food_group_code"`
	FoodGroup     string `json:"food_group"`
}

// WriteDir writes the fixture data set into a new temporary directory using
// the foods/index.json, foods/<id>.json, taxonomy.json layout
func WriteDir(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()
	WriteFoods(t, dir, Foods(), Taxonomy())
	return dir
}

// WriteFoods writes foods and taxonomy into dir
func WriteFoods(t testing.TB, dir string, foods []types.Food, taxonomy *types.Taxonomy) {
	t.Helper()

	items := make([]indexItem, 0, len(foods))
	for _, fd := range foods {
		doc := foodDoc{
			ID:         fd.ID,
			Name:       fd.Name,
			FoodGroup:  fd.FoodGroup,
			Categories: fd.Categories,
		}
		for _, m := range fd.Measurements() {
			doc.Measurements = append(doc.Measurements, measurementDoc{Code: m.Code, Value: m.Value, Unit: m.Unit})
		}
		WriteJSON(t, filepath.Join(dir, "foods", fd.ID+".json"), doc)
		items = append(items, indexItem{ID: fd.ID, Name: fd.Name, FoodGroupCode: fd.FoodGroupCode, FoodGroup: fd.FoodGroup})
	}

	WriteJSON(t, filepath.Join(dir, "foods", "index.json"), map[string]any{
		"generated_at": "2025-01-01T00:00:00+00:00",
		"items":        items,
	})
	WriteJSON(t, filepath.Join(dir, "taxonomy.json"), taxonomy)
}

// WriteJSON marshals v to path, creating parent directories
func WriteJSON(t testing.TB, path string, v any) {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
