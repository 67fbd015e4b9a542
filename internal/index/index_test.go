package index

import (
	"testing"

	"github.com/noot-app/fct-api/internal/dataset"
	"github.com/noot-app/fct-api/internal/fixture"
	"github.com/noot-app/fct-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	foods := fixture.Foods()
	// shuffle input order; ids always come out sorted
	foods[0], foods[len(foods)-1] = foods[len(foods)-1], foods[0]

	idx := Build(foods, fixture.Taxonomy())

	assert.Equal(t, 7, idx.Len())
	assert.Equal(t, []string{"A001", "A002", "B001", "D001", "E001", "E002", "G001"}, idx.IDs())
	assert.False(t, idx.BuiltAt().IsZero())
	assert.Empty(t, idx.Fingerprint())

	food, ok := idx.Food("A002")
	require.True(t, ok)
	assert.Equal(t, "Rice, brown, cooked", food.Name)

	_, ok = idx.Food("Z999")
	assert.False(t, ok)

	entry, ok := idx.Entry("E002")
	require.True(t, ok)
	assert.Equal(t, []string{"pina", "ripe"}, entry.Tokens)
	assert.Equal(t, "pina, ripe", entry.SortName)
	assert.Equal(t, "fruits and products", entry.FoodGroup)

	v, ok := entry.Value("energy_kcal")
	assert.True(t, ok)
	assert.Equal(t, 52.0, v)
	_, ok = entry.Value("calcium_mg")
	assert.False(t, ok, "unmeasured nutrient")

	rice, _ := idx.Entry("A001")
	_, ok = rice.Value("iron_mg")
	assert.False(t, ok, "null nutrient")
}

func TestBuild_Deterministic(t *testing.T) {
	a := Build(fixture.Foods(), fixture.Taxonomy())
	b := Build(fixture.Foods(), fixture.Taxonomy())

	for _, q := range []string{"rice", "ri", "raw", "pina", "xyz", "cooked rice"} {
		ai, _ := a.Text(q)
		bi, _ := b.Text(q)
		assert.Equal(t, ai, bi, q)
	}
	assert.Equal(t, a.vocab, b.vocab)
	assert.Equal(t, a.Nutrient("iron_mg"), b.Nutrient("iron_mg"))
}

func TestBuild_DuplicateIDKeepsFirst(t *testing.T) {
	foods := []types.Food{
		{ID: "A001", Name: "First"},
		{ID: "A001", Name: "Second"},
	}
	idx := Build(foods, nil)

	assert.Equal(t, 1, idx.Len())
	food, _ := idx.Food("A001")
	assert.Equal(t, "First", food.Name)
	assert.NotNil(t, idx.Taxonomy())
}

func TestIndex_Text(t *testing.T) {
	idx := Build(fixture.Foods(), fixture.Taxonomy())

	tests := []struct {
		q      string
		want   []string
		active bool
	}{
		{"rice", []string{"A001", "A002"}, true},
		{"RICE", []string{"A001", "A002"}, true},
		{"ric", []string{"A001", "A002"}, true},
		{"brown rice", []string{"A002"}, true},
		{"raw", []string{"B001", "G001"}, true},
		{"milk", []string{"G001"}, true},
		{"piña", []string{"E002"}, true},
		{"pina", []string{"E002"}, true},
		{"rice banana", []string{}, true},
		{"quinoa", []string{}, true},
		{"", nil, false},
		{"  ,, ", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			ids, active := idx.Text(tt.q)
			assert.Equal(t, tt.active, active)
			if tt.active {
				assert.Equal(t, tt.want, ids)
			}
		})
	}
}

func TestIndex_FilterSets(t *testing.T) {
	idx := Build(fixture.Foods(), fixture.Taxonomy())

	assert.Equal(t, []string{"A001", "A002", "D001", "G001"}, idx.Category("minerals"))
	assert.Len(t, idx.Category("proximates"), 7)
	assert.Empty(t, idx.Category("ZZZ"))

	assert.Equal(t, []string{"A002", "D001", "G001"}, idx.Nutrient("iron_mg"))
	assert.Equal(t, []string{"A001", "A002", "B001", "E001", "E002", "G001"}, idx.Nutrient("fat_g"))
	assert.Len(t, idx.Nutrient("energy_kcal"), 7)
	assert.Empty(t, idx.Nutrient("zinc_mg"))

	assert.Equal(t, []string{"E001", "E002"}, idx.FoodGroupCode("E"))
	assert.Equal(t, []string{"E001", "E002"}, idx.FoodGroupCode("e"))
	assert.Empty(t, idx.FoodGroupCode("Z"))

	assert.Equal(t, []string{"A001", "A002"}, idx.FoodGroup("cereals AND products"))
	assert.Empty(t, idx.FoodGroup("Cereals"))

	assert.True(t, idx.IsNutrient("protein_g"))
	assert.False(t, idx.IsNutrient("name"))
}

func TestFromStore(t *testing.T) {
	store := &dataset.Store{
		Foods:       fixture.Foods(),
		Taxonomy:    fixture.Taxonomy(),
		Fingerprint: "abc123",
	}

	idx := FromStore(store)
	assert.Equal(t, "abc123", idx.Fingerprint())
	assert.Equal(t, 7, idx.Len())
}
