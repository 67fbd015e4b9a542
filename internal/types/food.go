package types

import "strings"

// Food represents a single food item from the PhilFCT dataset
// This is the canonical Food struct used throughout the application
type Food struct {
	ID               string        `json:"id" validate:"required"`
	Name             string        `json:"name" validate:"required"`
	FoodGroupCode    string        `json:"food_group_code" validate:"required"`
	FoodGroup        string        `json:"food_group"`
	ScientificName   *string       `json:"scientific_name"`
	AlternativeName  *string       `json:"alternative_name"`
	EdiblePortionPct *float64      `json:"edible_portion_pct"`
	ReportID         *string       `json:"report_id,omitempty"`
	ReportURL        *string       `json:"report_url,omitempty"`
	ImageID          *string       `json:"image_id,omitempty"`
	ImageURL         *string       `json:"image_url,omitempty"`
	Categories       []string      `json:"categories" validate:"dive,required"`
	Nutrients        []Measurement `json:"nutrients" validate:"dive"`
	Energy           []Measurement `json:"energy" validate:"dive"`
}

// Measurement is one reported nutrient or energy value for a food.
// Value is nil when the source reported nothing (blank, "-" or "tr").
type Measurement struct {
	Code     string   `json:"code" validate:"required"`
	Name     string   `json:"name,omitempty"`
	Value    *float64 `json:"value"`
	Unit     string   `json:"unit"`
	Category string   `json:"category,omitempty"`
}

// IsEnergy reports whether the measurement is expressed in an energy unit
func (m Measurement) IsEnergy() bool {
	return IsEnergyUnit(m.Unit)
}

// IsEnergyUnit reports whether unit is one of the energy units (kcal, kJ)
func IsEnergyUnit(unit string) bool {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "kcal", "kj", "kilocalorie", "kilojoule":
		return true
	default:
		return false
	}
}

// Measurements returns nutrient and energy measurements in document order,
// nutrients first
func (f *Food) Measurements() []Measurement {
	all := make([]Measurement, 0, len(f.Nutrients)+len(f.Energy))
	all = append(all, f.Nutrients...)
	all = append(all, f.Energy...)
	return all
}

// FoodSummary is the lean list representation returned by search
type FoodSummary struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	FoodGroupCode   string   `json:"food_group_code"`
	FoodGroup       string   `json:"food_group"`
	ScientificName  *string  `json:"scientific_name"`
	AlternativeName *string  `json:"alternative_name"`
	Categories      []string `json:"categories"`
}

// ToSummary converts a full Food to a FoodSummary
func (f *Food) ToSummary() FoodSummary {
	categories := f.Categories
	if categories == nil {
		categories = []string{}
	}
	return FoodSummary{
		ID:              f.ID,
		Name:            f.Name,
		FoodGroupCode:   f.FoodGroupCode,
		FoodGroup:       f.FoodGroup,
		ScientificName:  f.ScientificName,
		AlternativeName: f.AlternativeName,
		Categories:      categories,
	}
}
