package domain

// Category is a spending category identifier. The string values are persisted
// in the transaction log and in the engagement state, so they must not change.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryEducation     Category = "education"
	CategorySnacks        Category = "snacks"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryUtilities     Category = "utilities"
	CategoryPersonalCare  Category = "personal_care"
	CategoryOthers        Category = "others"
)

// AllCategories lists every category in table order, with others last.
var AllCategories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryEducation,
	CategorySnacks,
	CategoryShopping,
	CategoryEntertainment,
	CategoryHealth,
	CategoryUtilities,
	CategoryPersonalCare,
	CategoryOthers,
}

// ParseCategory returns the category named s and whether it is known.
func ParseCategory(s string) (Category, bool) {
	for _, c := range AllCategories {
		if string(c) == s {
			return c, true
		}
	}
	return CategoryOthers, false
}

// Needs and wants buckets of the 50/30/20 budget rule.
var (
	NeedsCategories = []Category{CategoryFood, CategoryTransport, CategoryUtilities, CategoryHealth}
	WantsCategories = []Category{CategoryEntertainment, CategoryShopping, CategorySnacks, CategoryPersonalCare}
)
