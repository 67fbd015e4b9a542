package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rice", "rice"},
		{"Piña", "pina"},
		{"PIÑA", "pina"},
		{"Café au lait", "cafe au lait"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"punctuation", "Rice, white, cooked", []string{"rice", "white", "cooked"}},
		{"parentheses", "Bangus (milkfish), raw", []string{"bangus", "milkfish", "raw"}},
		{"accents", "Piña, ripe", []string{"pina", "ripe"}},
		{"duplicates", "rice RICE Rice", []string{"rice"}},
		{"digits", "Vitamin B12", []string{"vitamin", "b12"}},
		{"slash", "Combination Foods/Mixed Dishes", []string{"combination", "foods", "mixed", "dishes"}},
		{"only separators", " ,;-() ", []string{}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestIntersect(t *testing.T) {
	assert.Equal(t, []string{"A002", "D001"}, Intersect([]string{"A001", "A002", "D001"}, []string{"A002", "B001", "D001"}))
	assert.Empty(t, Intersect([]string{"A001"}, nil))

	assert.Equal(t, []string{"B"}, IntersectAll([]string{"A", "B", "C"}, []string{"B", "C"}, []string{"B"}))
	assert.Nil(t, IntersectAll())
	assert.Empty(t, IntersectAll([]string{"A"}, []string{}))
}

func TestUnion(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C"}, union([]string{"A", "C"}, []string{"B", "C"}))
	assert.Equal(t, []string{}, union())
}
