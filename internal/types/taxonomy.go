package types

// Taxonomy holds the category and nutrient metadata shared by all foods
type Taxonomy struct {
	Categories []CategoryMeta `json:"categories" validate:"dive"`
	Nutrients  []NutrientMeta `json:"nutrients" validate:"dive"`
}

// CategoryMeta describes a nutrient category (a tab in the source report)
type CategoryMeta struct {
	Code        string   `json:"code" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Sections    []string `json:"sections"`
	AmountBasis *string  `json:"amount_basis,omitempty"`
	Count       *int     `json:"count,omitempty"`
}

// NutrientMeta describes a nutrient code and the unit its values use
type NutrientMeta struct {
	Code     string  `json:"code" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Unit     *string `json:"unit"`
	Category string  `json:"category"`
}

// UnitString returns the declared unit or "" when the nutrient is unitless
func (n NutrientMeta) UnitString() string {
	if n.Unit == nil {
		return ""
	}
	return *n.Unit
}

// Category returns the category metadata for code
func (t *Taxonomy) Category(code string) (CategoryMeta, bool) {
	for _, c := range t.Categories {
		if c.Code == code {
			return c, true
		}
	}
	return CategoryMeta{}, false
}

// Nutrient returns the nutrient metadata for code
func (t *Taxonomy) Nutrient(code string) (NutrientMeta, bool) {
	for _, n := range t.Nutrients {
		if n.Code == code {
			return n, true
		}
	}
	return NutrientMeta{}, false
}
