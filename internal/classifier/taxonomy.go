package classifier

import (
	"github.com/dvloznov/finla/internal/domain"
	"github.com/shopspring/decimal"
)

// AmountRange is the typical [Min, Max] spend for a category.
type AmountRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// CategoryDef describes one keyword-matched category.
type CategoryDef struct {
	Category domain.Category
	Glyph    string
	Priority int // 1 is highest
	Keywords []string
	Typical  *AmountRange
}

func rng(min, max int64) *AmountRange {
	return &AmountRange{Min: decimal.NewFromInt(min), Max: decimal.NewFromInt(max)}
}

const (
	othersGlyph    = "🔘"
	othersPriority = 10
)

// taxonomy is evaluated in this order; ties on confidence go to the earlier entry.
var taxonomy = []CategoryDef{
	{
		Category: domain.CategoryFood,
		Glyph:    "🍔",
		Priority: 1,
		Keywords: []string{
			"lunch", "dinner", "breakfast", "meal", "restaurant", "hotel", "biryani",
			"pizza", "burger", "food", "eating", "cafe", "dhaba", "mess", "canteen",
			"delivery", "zomato", "swiggy", "foodpanda", "mcdonalds", "kfc", "dominos",
			"subway", "tiffin", "paratha", "dosa", "idli", "samosa", "chaat", "street food",
		},
		Typical: rng(50, 500),
	},
	{
		Category: domain.CategoryTransport,
		Glyph:    "🚗",
		Priority: 2,
		Keywords: []string{
			"bus", "auto", "taxi", "uber", "ola", "metro", "train", "fuel", "petrol",
			"diesel", "travel", "ticket", "railway", "flight", "cab", "rickshaw",
			"transport", "commute", "parking", "toll", "irctc", "redbus", "makemytrip",
			"goibibo", "bike", "car",
		},
		Typical: rng(20, 200),
	},
	{
		Category: domain.CategoryEducation,
		Glyph:    "📚",
		Priority: 3,
		Keywords: []string{
			"book", "course", "fee", "tuition", "study", "exam", "college", "school",
			"education", "academy", "coaching", "training", "certification", "library",
			"stationery", "pen", "notebook", "xerox", "photocopy", "udemy", "coursera",
			"byju", "unacademy",
		},
		Typical: rng(100, 5000),
	},
	{
		Category: domain.CategorySnacks,
		Glyph:    "🧃",
		Priority: 4,
		Keywords: []string{
			"tea", "coffee", "snacks", "juice", "water", "biscuit", "chips", "chocolate",
			"ice cream", "cold drink", "soft drink", "lassi", "smoothie", "shake",
			"popcorn", "nuts", "candy", "sweet", "bakery", "pastry", "cake", "cookies",
			"nimbu pani",
		},
		Typical: rng(10, 100),
	},
	{
		Category: domain.CategoryShopping,
		Glyph:    "🛍️",
		Priority: 5,
		Keywords: []string{
			"shopping", "mall", "store", "amazon", "flipkart", "myntra", "ajio", "shirt",
			"clothes", "shoes", "bag", "mobile", "laptop", "electronics", "grocery",
			"supermarket", "market", "purchase", "buy", "order", "delivery", "online",
			"retail", "brand",
		},
		Typical: rng(200, 10000),
	},
	{
		Category: domain.CategoryEntertainment,
		Glyph:    "🎬",
		Priority: 6,
		Keywords: []string{
			"movie", "cinema", "theatre", "film", "show", "concert", "game", "gaming",
			"music", "netflix", "amazon prime", "hotstar", "spotify", "youtube",
			"entertainment", "fun", "party", "celebration", "festival", "event", "ticket",
		},
		Typical: rng(100, 1000),
	},
	{
		Category: domain.CategoryHealth,
		Glyph:    "🏥",
		Priority: 7,
		Keywords: []string{
			"medicine", "doctor", "hospital", "clinic", "pharmacy", "medical", "health",
			"checkup", "treatment", "surgery", "dental", "eye", "prescription", "tablet",
			"injection", "test", "lab", "scan", "apollo", "fortis", "max", "aiims",
		},
		Typical: rng(100, 5000),
	},
	{
		Category: domain.CategoryUtilities,
		Glyph:    "💡",
		Priority: 8,
		Keywords: []string{
			"electricity", "water", "gas", "internet", "phone", "mobile", "bill",
			"recharge", "broadband", "wifi", "airtel", "jio", "bsnl", "vodafone",
			"utility", "maintenance", "rent", "emi",
		},
		Typical: rng(500, 5000),
	},
	{
		Category: domain.CategoryPersonalCare,
		Glyph:    "💇",
		Priority: 9,
		Keywords: []string{
			"haircut", "salon", "parlour", "spa", "massage", "grooming", "cosmetics",
			"shampoo", "soap", "toothpaste", "personal", "hygiene", "beauty", "skincare",
			"makeup",
		},
		Typical: rng(100, 2000),
	},
}
