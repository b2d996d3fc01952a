package engagement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// recentAchievementDays is how far back WeeklySummary looks for new achievements.
const recentAchievementDays = 7

// AchievementStatus is a catalog entry annotated with the user's progress.
type AchievementStatus struct {
	Achievement
	Earned     bool        `json:"earned"`
	EarnedDate *civil.Date `json:"earned_date,omitempty"`
}

// WeeklySummary covers activity since Monday of the current week.
type WeeklySummary struct {
	WeeklyTransactions    int                 `json:"weekly_transactions"`
	WeeklyKarma           int                 `json:"weekly_karma"`
	CurrentStreak         int                 `json:"current_streak"`
	MaxStreak             int                 `json:"max_streak"`
	AchievementsThisWeek  []EarnedAchievement `json:"achievements_this_week"`
	Level                 int                 `json:"level"`
	StreakFreezeAvailable int                 `json:"streak_freeze_available"`
}

// LeaderboardEntry is the user's standing. There is only ever one user.
type LeaderboardEntry struct {
	Rank              int `json:"rank"`
	TotalUsers        int `json:"total_users"`
	KarmaPoints       int `json:"karma_points"`
	Level             int `json:"level"`
	Streak            int `json:"streak"`
	AchievementsCount int `json:"achievements_count"`
	Percentile        int `json:"percentile"`
}

// Achievements lists the catalog, earned entries first, then by points
// descending. With earnedOnly set, unearned entries are left out.
func (t *Tracker) Achievements(ctx context.Context, earnedOnly bool) ([]AchievementStatus, error) {
	st, err := t.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("Achievements: %w", err)
	}

	list := make([]AchievementStatus, 0, len(catalog))
	for _, a := range catalog {
		status := AchievementStatus{Achievement: a, Earned: st.HasAchievement(a.ID)}
		if d, ok := st.AchievementDates[a.ID]; ok {
			status.EarnedDate = &d
		}
		if earnedOnly && !status.Earned {
			continue
		}
		list = append(list, status)
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Earned != list[j].Earned {
			return list[i].Earned
		}
		return list[i].Points > list[j].Points
	})
	return list, nil
}

// WeeklySummary reports this week's activity. Weekly karma counts only the
// base karma of each transaction.
func (t *Tracker) WeeklySummary(ctx context.Context) (WeeklySummary, error) {
	st, err := t.Stats(ctx)
	if err != nil {
		return WeeklySummary{}, fmt.Errorf("WeeklySummary: %w", err)
	}
	txs, err := t.activity.ListTransactions(ctx)
	if err != nil {
		return WeeklySummary{}, fmt.Errorf("WeeklySummary: list transactions: %w", err)
	}

	today := t.today()
	weekStart := WeekStart(today)

	count := 0
	for _, tx := range txs {
		if !tx.Date.Before(weekStart) {
			count++
		}
	}

	recent := []EarnedAchievement{}
	since := today.AddDays(-recentAchievementDays)
	for _, id := range st.Achievements {
		d, ok := st.AchievementDates[id]
		if !ok || !d.After(since) {
			continue
		}
		if a, ok := Lookup(id); ok {
			recent = append(recent, EarnedAchievement{Achievement: a, EarnedDate: d})
		}
	}

	return WeeklySummary{
		WeeklyTransactions:    count,
		WeeklyKarma:           count * KarmaTransactionLogged,
		CurrentStreak:         st.Streak,
		MaxStreak:             st.MaxStreak,
		AchievementsThisWeek:  recent,
		Level:                 st.Level,
		StreakFreezeAvailable: st.StreakFreezeCount,
	}, nil
}

// Leaderboard returns the single-user leaderboard entry.
func (t *Tracker) Leaderboard(ctx context.Context) (LeaderboardEntry, error) {
	st, err := t.Stats(ctx)
	if err != nil {
		return LeaderboardEntry{}, fmt.Errorf("Leaderboard: %w", err)
	}
	return LeaderboardEntry{
		Rank:              1,
		TotalUsers:        1,
		KarmaPoints:       st.KarmaPoints,
		Level:             st.Level,
		Streak:            st.Streak,
		AchievementsCount: len(st.Achievements),
		Percentile:        100,
	}, nil
}

// WeekStart returns the Monday on or before d.
func WeekStart(d civil.Date) civil.Date {
	offset := (int(d.In(time.UTC).Weekday()) + 6) % 7
	return d.AddDays(-offset)
}
