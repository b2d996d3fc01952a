package engagement

import (
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/domain"
)

// Repair returns st with its counters made consistent. Negative counters are
// clamped to zero, the achievement and category sets lose duplicates, and
// the streak, max streak and level are reconciled with the rest of the record.
func Repair(st domain.EngagementState) domain.EngagementState {
	out := st.Clone()

	out.Streak = max(out.Streak, 0)
	out.KarmaPoints = max(out.KarmaPoints, 0)
	out.TotalTransactions = max(out.TotalTransactions, 0)
	out.StreakFreezeCount = max(out.StreakFreezeCount, 0)
	out.TotalKarmaEarned = max(out.TotalKarmaEarned, out.KarmaPoints)

	switch {
	case out.LastEntryDate == nil:
		out.Streak = 0
	case out.Streak == 0:
		out.Streak = 1
	}
	out.MaxStreak = max(out.MaxStreak, out.Streak)

	out.Achievements = dedupe(out.Achievements)
	out.CategoriesUsed = dedupe(out.CategoriesUsed)
	for id := range out.AchievementDates {
		if !out.HasAchievement(id) {
			delete(out.AchievementDates, id)
		}
	}
	if out.AchievementDates == nil {
		out.AchievementDates = map[string]civil.Date{}
	}

	out.Level = LevelFor(out.KarmaPoints)
	return out
}

func dedupe[T comparable](in []T) []T {
	out := make([]T, 0, len(in))
	seen := make(map[T]bool, len(in))
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
