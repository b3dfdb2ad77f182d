// Package aisle sorts grocery items into store sections by name.
package aisle

import (
	"strings"

	"github.com/dukerupert/list42/internal/model"
)

const Other = "Other"

type section struct {
	name string
	// names are whole item names.
	names []string
	// keywords are matched anywhere in a name, earlier entries first.
	keywords []string
}

// matchOrder is the order keywords are tried in. Sections that share a
// keyword with a later one ("cream", "ice cream") win.
var matchOrder = []section{
	{
		name: "Meat & Seafood",
		names: []string{"chicken", "beef", "pork", "turkey", "bacon", "sausage", "ham", "steak",
			"salmon", "shrimp", "tuna", "fish", "ground beef", "ground turkey", "hot dogs",
			"deli meat", "lamb", "crab", "lobster", "tilapia"},
		keywords: []string{"chicken breast", "chicken thigh", "chicken wing", "ground beef",
			"ground turkey", "deli meat", "pork chop", "hot dog"},
	},
	{
		name: "Dairy",
		names: []string{"milk", "eggs", "butter", "cheese", "yogurt", "cream cheese", "sour cream",
			"heavy cream", "half and half", "cottage cheese", "leite", "queijo", "manteiga", "ovos"},
		keywords: []string{"cream cheese", "sour cream", "heavy cream", "cottage cheese",
			"half and half", "greek yogurt", "almond milk", "oat milk", "yogurt", "cheese", "milk",
			"butter", "cream", "egg"},
	},
	{
		name: "Produce",
		names: []string{"apple", "apples", "banana", "bananas", "orange", "oranges", "lemon", "lemons",
			"lime", "limes", "avocado", "avocados", "tomato", "tomatoes", "potato", "potatoes",
			"onion", "onions", "garlic", "lettuce", "spinach", "kale", "broccoli", "carrots", "celery",
			"cucumber", "cucumbers", "peppers", "mushrooms", "corn", "grapes", "strawberries",
			"blueberries", "raspberries", "watermelon", "pineapple", "mango", "peach", "peaches",
			"pear", "pears", "cilantro", "basil", "parsley", "ginger", "jalapeño", "zucchini",
			"asparagus", "green beans"},
		keywords: []string{"salad mix", "baby spinach", "green onion", "sweet potato", "bell pepper",
			"cherry tomato", "romaine", "arugula", "cabbage", "cauliflower", "squash", "melon",
			"berry", "berries", "fruit", "herb", "lettuce", "spinach", "kale", "apple", "banana",
			"tomato", "potato", "onion", "pepper", "carrot", "celery"},
	},
	{
		name:  "Bakery",
		names: []string{"bread", "bagels", "tortillas", "rolls", "buns", "muffins", "croissants", "pita", "pão"},
		keywords: []string{"sourdough", "whole wheat", "bread", "bagel", "tortilla", "bun", "roll",
			"muffin", "croissant"},
	},
	{
		name: "Pantry",
		names: []string{"rice", "pasta", "flour", "sugar", "salt", "pepper", "oil", "olive oil",
			"vinegar", "soy sauce", "ketchup", "mustard", "mayonnaise", "honey", "peanut butter",
			"jelly", "jam", "cereal", "oatmeal", "canned beans", "canned tomatoes", "soup", "broth",
			"beans", "lentils", "nuts", "almonds", "spaghetti", "noodles", "maple syrup",
			"hot sauce", "salsa"},
		keywords: []string{"peanut butter", "olive oil", "coconut oil", "maple syrup", "hot sauce",
			"soy sauce", "pasta sauce", "tomato sauce", "canned", "cereal", "oatmeal", "granola",
			"rice", "pasta", "noodle", "flour", "sugar", "spice", "seasoning", "sauce", "broth",
			"stock", "soup", "bean", "lentil"},
	},
	{
		name: "Frozen",
		names: []string{"ice cream", "frozen pizza", "frozen veggies", "frozen fruit",
			"frozen waffles", "popsicles"},
		keywords: []string{"frozen", "ice cream", "popsicle"},
	},
	{
		name: "Beverages",
		names: []string{"water", "juice", "coffee", "tea", "soda", "beer", "wine", "kombucha",
			"lemonade", "sparkling water"},
		keywords: []string{"sparkling water", "orange juice", "apple juice", "coffee", "tea",
			"juice", "soda", "water", "beer", "wine", "drink"},
	},
	{
		name: "Snacks",
		names: []string{"chips", "crackers", "cookies", "popcorn", "pretzels", "granola bars",
			"trail mix", "candy", "chocolate", "fruit snacks"},
		keywords: []string{"granola bar", "trail mix", "fruit snack", "chip", "cracker", "cookie",
			"popcorn", "pretzel", "candy", "chocolate", "snack"},
	},
	{
		name: "Household",
		names: []string{"paper towels", "toilet paper", "trash bags", "dish soap",
			"laundry detergent", "sponges", "aluminum foil", "plastic wrap", "zip bags",
			"ziplock bags", "light bulbs", "batteries", "napkins", "cleaning spray", "bleach"},
		keywords: []string{"paper towel", "toilet paper", "trash bag", "garbage bag", "dish soap",
			"laundry", "detergent", "cleaner", "cleaning", "sponge", "foil", "plastic wrap",
			"ziplock", "battery", "light bulb"},
	},
	{
		name: "Personal Care",
		names: []string{"shampoo", "conditioner", "soap", "body wash", "toothpaste", "toothbrush",
			"deodorant", "lotion", "sunscreen", "floss", "razors", "tissues", "band-aids"},
		keywords: []string{"body wash", "shampoo", "conditioner", "toothpaste", "toothbrush",
			"deodorant", "lotion", "sunscreen", "razor", "tissue", "band-aid"},
	},
}

// walkOrder is the order sections are printed in, entrance to checkout.
var walkOrder = []string{
	"Produce", "Bakery", "Meat & Seafood", "Dairy", "Frozen", "Pantry",
	"Snacks", "Beverages", "Household", "Personal Care", Other,
}

var byName = func() map[string]string {
	m := make(map[string]string)
	for _, s := range matchOrder {
		for _, n := range s.names {
			m[n] = s.name
		}
	}
	return m
}()

// Of returns the section for an item name. Whole-name matches win over
// keyword matches; names that match nothing are Other.
func Of(itemName string) string {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return Other
	}
	if s, ok := byName[name]; ok {
		return s
	}
	for _, s := range matchOrder {
		for _, kw := range s.keywords {
			if strings.Contains(name, kw) {
				return s.name
			}
		}
	}
	return Other
}

// Section is one store section and its items, in their original order.
type Section struct {
	Name  string
	Items []model.GroceryItem
}

// Group splits items into sections in walking order, leaving out empty ones.
func Group(items []model.GroceryItem) []Section {
	buckets := make(map[string][]model.GroceryItem)
	for _, it := range items {
		s := Of(it.Name)
		buckets[s] = append(buckets[s], it)
	}
	var out []Section
	for _, name := range walkOrder {
		if len(buckets[name]) > 0 {
			out = append(out, Section{Name: name, Items: buckets[name]})
		}
	}
	return out
}
