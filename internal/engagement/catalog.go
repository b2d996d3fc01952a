package engagement

// Karma awarded per event.
const (
	KarmaTransactionLogged = 5
	KarmaUnderBudgetDay    = 10
	KarmaGoalProgress      = 15
	KarmaStreakBonus       = 20
	KarmaMindfulSpending   = 8
	KarmaCategoryDiversity = 12
)

// Achievement identifiers. They are persisted in the engagement state and
// must stay stable.
const (
	AchievementFirstTransaction    = "first_transaction"
	AchievementStreak5             = "streak_5"
	AchievementStreak10            = "streak_10"
	AchievementStreak30            = "streak_30"
	AchievementSaver100            = "saver_100"
	AchievementCategoryMaster      = "category_master"
	AchievementMindfulSpender      = "mindful_spender"
	AchievementGoalAchiever        = "goal_achiever"
	AchievementHundredTransactions = "hundred_transactions"
)

const (
	// mindfulAmount is the largest amount that still earns the mindful spending bonus.
	mindfulAmount = 100

	categoryMasterThreshold = 5
	centuryThreshold        = 100
	streakBonusThreshold    = 5
)

// Achievement describes one entry of the catalog.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Points      int    `json:"points"`
	Kind        string `json:"type"`
}

// catalog lists every achievement in display order. saver_100, mindful_spender
// and goal_achiever are shown but nothing awards them yet.
var catalog = []Achievement{
	{AchievementFirstTransaction, "First Step", "Added your first transaction", "🎯", 50, "milestone"},
	{AchievementStreak5, "Consistent Tracker", "Maintained 5-day tracking streak", "🔥", 100, "streak"},
	{AchievementStreak10, "Dedicated Tracker", "Maintained 10-day tracking streak", "⚡", 200, "streak"},
	{AchievementStreak30, "Habit Master", "Maintained 30-day tracking streak", "🏆", 500, "streak"},
	{AchievementSaver100, "Smart Saver", "Stayed under budget for a week", "💰", 150, "financial"},
	{AchievementCategoryMaster, "Category Master", "Transactions in all 5+ categories", "📊", 100, "diversity"},
	{AchievementMindfulSpender, "Mindful Spender", "Average transaction under ₹100 for a week", "🧘", 120, "mindfulness"},
	{AchievementGoalAchiever, "Goal Achiever", "Completed your first savings goal", "🎯", 300, "goal"},
	{AchievementHundredTransactions, "Century Club", "Recorded 100 transactions", "💯", 250, "milestone"},
}

var streakMilestones = []struct {
	Days int
	ID   string
}{
	{5, AchievementStreak5},
	{10, AchievementStreak10},
	{30, AchievementStreak30},
}

// Catalog returns a copy of every known achievement.
func Catalog() []Achievement {
	return append([]Achievement(nil), catalog...)
}

// Lookup returns the catalog entry for id.
func Lookup(id string) (Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}
