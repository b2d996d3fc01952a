package domain

import (
	"cloud.google.com/go/civil"
)

// DefaultStreakFreezes is the number of streak-freeze tokens a new user starts with.
const DefaultStreakFreezes = 3

// EngagementState is the single persisted gamification record.
type EngagementState struct {
	Streak               int                   `json:"streak"`
	MaxStreak            int                   `json:"max_streak"`
	LastEntryDate        *civil.Date           `json:"last_entry_date,omitempty"`
	KarmaPoints          int                   `json:"karma_points"`
	TotalKarmaEarned     int                   `json:"total_karma_earned"`
	TotalTransactions    int                   `json:"total_transactions"`
	Achievements         []string              `json:"achievements"`
	AchievementDates     map[string]civil.Date `json:"achievement_dates,omitempty"`
	Level                int                   `json:"level"`
	StreakFreezeCount    int                   `json:"streak_freeze_count"`
	CategoriesUsed       []Category            `json:"categories_used"`
	FirstTransactionDate *civil.Date           `json:"first_transaction_date,omitempty"`
}

// DefaultEngagementState returns the state of a user who has never logged anything.
func DefaultEngagementState() EngagementState {
	return EngagementState{
		Level:             1,
		StreakFreezeCount: DefaultStreakFreezes,
		Achievements:      []string{},
		AchievementDates:  map[string]civil.Date{},
		CategoriesUsed:    []Category{},
	}
}

// HasAchievement reports whether id has already been earned.
func (s *EngagementState) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// HasCategory reports whether c is already in the categories-used set.
func (s *EngagementState) HasCategory(c Category) bool {
	for _, used := range s.CategoriesUsed {
		if used == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot alias the stored slices and map.
func (s EngagementState) Clone() EngagementState {
	out := s
	out.Achievements = append([]string{}, s.Achievements...)
	out.CategoriesUsed = append([]Category{}, s.CategoriesUsed...)
	out.AchievementDates = make(map[string]civil.Date, len(s.AchievementDates))
	for k, v := range s.AchievementDates {
		out.AchievementDates[k] = v
	}
	if s.LastEntryDate != nil {
		d := *s.LastEntryDate
		out.LastEntryDate = &d
	}
	if s.FirstTransactionDate != nil {
		d := *s.FirstTransactionDate
		out.FirstTransactionDate = &d
	}
	return out
}
