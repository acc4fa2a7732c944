package classify

import "strings"

// Category labels form a fixed closed set.
const (
	CategoryDairyEggs = "Dairy & Eggs"
	CategoryFruitVeg  = "Fruit & Veg"
	CategoryMeatFish  = "Meat & Fish"
	CategoryBakery    = "Bakery"
	CategoryPantry    = "Pantry"
	CategoryFrozen    = "Frozen"
	CategoryDrinks    = "Drinks"
	CategorySnacks    = "Snacks"
	CategoryHousehold = "Household"
	CategoryOther     = "Other"
)

// Categories lists every label the classifier can produce.
var Categories = []string{
	CategoryDairyEggs,
	CategoryFruitVeg,
	CategoryMeatFish,
	CategoryBakery,
	CategoryPantry,
	CategoryFrozen,
	CategoryDrinks,
	CategorySnacks,
	CategoryHousehold,
	CategoryOther,
}

type categoryGroup struct {
	label        string
	nameKeywords []string
	hintKeywords []string
}

// categoryGroups is evaluated in order and the first match wins. The order is
// a behavioral contract: dairy is checked before frozen, so "Frozen Yogurt"
// classifies as Dairy & Eggs. Pantry is last before the Other fallthrough.
var categoryGroups = []categoryGroup{
	{
		label:        CategoryDairyEggs,
		nameKeywords: []string{"milk", "cheese", "yogurt", "butter", "cream", "egg"},
		hintKeywords: []string{"dairy", "milk"},
	},
	{
		label:        CategoryFruitVeg,
		nameKeywords: []string{"fruit", "vegetable", "apple", "banana", "carrot", "lettuce", "tomato", "potato", "onion"},
		hintKeywords: []string{"fruit", "vegetable"},
	},
	{
		label:        CategoryMeatFish,
		nameKeywords: []string{"meat", "chicken", "beef", "pork", "fish", "salmon", "tuna"},
		hintKeywords: []string{"meat", "fish"},
	},
	{
		label:        CategoryBakery,
		nameKeywords: []string{"bread", "cake", "biscuit", "pastry", "roll"},
		hintKeywords: []string{"bakery", "bread"},
	},
	{
		label:        CategoryFrozen,
		nameKeywords: []string{"frozen"},
		hintKeywords: []string{"frozen"},
	},
	{
		label:        CategoryDrinks,
		nameKeywords: []string{"juice", "water", "tea", "coffee", "drink", "cola", "beer", "wine"},
		hintKeywords: []string{"beverage"},
	},
	{
		label:        CategorySnacks,
		nameKeywords: []string{"crisp", "chip", "chocolate", "sweet", "candy", "snack"},
		hintKeywords: []string{"snack"},
	},
	{
		label:        CategoryHousehold,
		nameKeywords: []string{"clean", "detergent", "soap", "tissue", "toilet", "paper"},
		hintKeywords: []string{"household", "cleaning"},
	},
	{
		label:        CategoryPantry,
		nameKeywords: []string{"pasta", "rice", "sauce", "oil", "tin", "can"},
		hintKeywords: []string{"groceries"},
	},
}

// Category assigns one label from the fixed set by ordered keyword matching
// against the product name and an optional category hint. No match falls
// through to Other.
func Category(productName, categoryHint string) string {
	name := strings.ToLower(productName)
	hint := strings.ToLower(categoryHint)

	for _, group := range categoryGroups {
		for _, keyword := range group.nameKeywords {
			if strings.Contains(name, keyword) {
				return group.label
			}
		}
		if hint == "" {
			continue
		}
		for _, keyword := range group.hintKeywords {
			if strings.Contains(hint, keyword) {
				return group.label
			}
		}
	}

	return CategoryOther
}
