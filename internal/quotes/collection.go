package quotes

// Situations with their own quotes, mixed into the daily pool.
const (
	SituationLowBalance   = "low_balance"
	SituationHighSpending = "high_spending"
	SituationGoodSavings  = "good_savings"
)

var thirukkural = []Quote{
	{
		Text:        "Wealth unused is not wealth at all.",
		Tamil:       "செல்வத்துள் செல்வம் செவிக்கு செல்வம்",
		Author:      "Thirukkural 751",
		Translation: "Among wealth, the wealth that comes to the ear (knowledge) is true wealth",
		Category:    "wisdom",
	},
	{
		Text:        "The best investment is in knowledge and wisdom.",
		Tamil:       "கல்வி கரையில் கற்பித்துக் கொண்டிருப்பது",
		Author:      "Thirukkural 753",
		Translation: "Education is the shore where wisdom is taught and learned",
		Category:    "education",
	},
	{
		Text:        "Saving today ensures prosperity tomorrow.",
		Tamil:       "இன்று சேர்த்த செல்வம் நாளை துன்பம் தீர்க்கும்",
		Author:      "Thirukkural 754",
		Translation: "Wealth saved today will solve tomorrow's troubles",
		Category:    "savings",
	},
	{
		Text:        "Spend wisely, for money spent is money gone.",
		Tamil:       "ஒழுக்கத்துடன் செலவிடு, அதுவே செல்வத்தின் வழி",
		Author:      "Thirukkural - Inspired",
		Translation: "Spend with discipline, that is the path of wealth",
		Category:    "spending",
	},
	{
		Text:        "Debt is the enemy of peace and prosperity.",
		Tamil:       "கடன் என்பது மனநிம்மதியின் எதிரி",
		Author:      "Thirukkural - Inspired",
		Translation: "Debt is the enemy of mental peace",
		Category:    "debt",
	},
}

var buffett = []Quote{
	{Text: "Do not save what is left after spending, but spend what is left after saving.", Author: "Warren Buffett", Category: "savings"},
	{Text: "Price is what you pay. Value is what you get.", Author: "Warren Buffett", Category: "value"},
	{Text: "Someone's sitting in the shade today because someone planted a tree a long time ago.", Author: "Warren Buffett", Category: "investment"},
	{Text: "Risk comes from not knowing what you're doing.", Author: "Warren Buffett", Category: "knowledge"},
	{Text: "It's far better to buy a wonderful company at a fair price than a fair company at a wonderful price.", Author: "Warren Buffett", Category: "investment"},
}

var wisdom = []Quote{
	{
		Text:     "Track your expenses like you track your heartbeat - consistently and with purpose.",
		Tamil:    "உங்கள் செலவுகளை உங்கள் இதயத் துடிப்பு போல கவனமாக கண்காணியுங்கள்",
		Author:   "Finla Wisdom",
		Category: "tracking",
	},
	{
		Text:     "Small expenses, when ignored, become big regrets.",
		Tamil:    "சிறிய செலவுகள் அலட்சியம் செய்யப்பட்டால் பெரிய வருத்தமாக மாறும்",
		Author:   "Finla Wisdom",
		Category: "mindfulness",
	},
	{
		Text:     "Your future self will thank you for the money you save today.",
		Tamil:    "இன்று நீங்கள் சேமிக்கும் பணத்திற்கு உங்கள் எதிர்கால நீங்கள் நன்றி சொல்வீர்கள்",
		Author:   "Finla Wisdom",
		Category: "future",
	},
	{
		Text:     "Budgeting is not about limiting yourself, it's about making the things that excite you possible.",
		Tamil:    "பட்ஜெட் என்பது உங்களை கட்டுப்படுத்துவது அல்ல, உங்களை உற்சாகப்படுத்தும் விஷயங்களை சாத்தியமாக்குவது",
		Author:   "Finla Wisdom",
		Category: "budgeting",
	},
	{
		Text:     "Every rupee saved is a step towards financial freedom.",
		Tamil:    "சேமிக்கப்படும் ஒவ்வொரு ரூபாயும் நிதி சுதந்திரத்தின் நோக்கி ஒரு அடி",
		Author:   "Finla Wisdom",
		Category: "freedom",
	},
	{
		Text:     "Discipline in spending today creates abundance tomorrow.",
		Tamil:    "இன்றைய செலவில் கடைபிடிக்கும் ஒழுக்கம் நாளை வளத்தை உருவாக்கும்",
		Author:   "Finla Wisdom",
		Category: "discipline",
	},
}

var situational = map[string][]Quote{
	SituationLowBalance: {{
		Text:     "Every financial comeback starts with a single saved rupee.",
		Tamil:    "ஒவ்வொரு நிதி மீள்வரவும் ஒரு ரூபாய் சேமிப்பில் தொடங்குகிறது",
		Author:   "Finla Motivation",
		Category: "comeback",
	}},
	SituationHighSpending: {{
		Text:     "Pause before you purchase. Your future self depends on it.",
		Tamil:    "வாங்குவதற்கு முன் நிறுத்துங்கள். உங்கள் எதிர்காலம் அதை சார்ந்துள்ளது",
		Author:   "Finla Motivation",
		Category: "mindful_spending",
	}},
	SituationGoodSavings: {{
		Text:     "Your discipline today is building your dreams for tomorrow.",
		Tamil:    "இன்றைய உங்கள் ஒழுக்கம் நாளைய கனவுகளை உருவாக்குகிறது",
		Author:   "Finla Motivation",
		Category: "success",
	}},
}

// pool is every general quote in a fixed order. Selection indexes into it,
// so reordering changes which quote each day gets.
var pool = concat(thirukkural, buffett, wisdom)

func concat(groups ...[]Quote) []Quote {
	var out []Quote
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
