package types

import "strings"

// foodGroups maps the leading letter of a PhilFCT food id to its food group
var foodGroups = map[string]string{
	"A": "Cereals and Products",
	"B": "Starchy Roots, Tubers and Products",
	"C": "Nuts, Dried Beans, Seeds and Products",
	"D": "Vegetables and Products",
	"E": "Fruits and Products",
	"F": "Meat and Other Animals and Products",
	"G": "Finfish, Shellfish and Other Aquatic Animals and Products",
	"H": "Eggs and Products",
	"J": "Milk and Products",
	"K": "Fats and Oils",
	"M": "Sugar, Syrup and Confectionery",
	"N": "Condiments and Spices",
	"P": "Alcoholic Beverages",
	"Q": "Non-Alcoholic Beverages",
	"R": "Combination Foods/Mixed Dishes",
	"S": "Baby Foods",
	"T": "Miscellaneous",
}

// FoodGroupCodeForID derives the food group code from a food id ("A001" -> "A")
func FoodGroupCodeForID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	return strings.ToUpper(id[:1])
}

// FoodGroupName returns the display name of a food group code
func FoodGroupName(code string) (string, bool) {
	name, ok := foodGroups[strings.ToUpper(code)]
	return name, ok
}
