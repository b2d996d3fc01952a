package engagement

import (
	"context"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/shopspring/decimal"
)

func TestAchievements(t *testing.T) {
	store := storedState(func(st *domain.EngagementState) {
		st.Achievements = []string{AchievementFirstTransaction, AchievementStreak5}
		st.AchievementDates = map[string]civil.Date{AchievementStreak5: testToday}
	})
	tracker := newTestTracker(store, activeToday())

	all, err := tracker.Achievements(context.Background(), false)
	if err != nil {
		t.Fatalf("Achievements() error = %v", err)
	}
	want := []string{
		AchievementStreak5, AchievementFirstTransaction,
		AchievementStreak30, AchievementGoalAchiever, AchievementHundredTransactions,
		AchievementStreak10, AchievementSaver100, AchievementMindfulSpender, AchievementCategoryMaster,
	}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i, id := range want {
		if all[i].ID != id {
			t.Errorf("achievements[%d] = %s, want %s", i, all[i].ID, id)
		}
	}
	if all[0].EarnedDate == nil || *all[0].EarnedDate != testToday {
		t.Errorf("earned_date = %v, want %s", all[0].EarnedDate, testToday)
	}
	if all[1].EarnedDate != nil {
		t.Errorf("earned_date = %v, want none for an undated award", all[1].EarnedDate)
	}

	earned, err := tracker.Achievements(context.Background(), true)
	if err != nil {
		t.Fatalf("Achievements() error = %v", err)
	}
	if len(earned) != 2 || !earned[0].Earned || !earned[1].Earned {
		t.Errorf("earned only = %+v, want two earned", earned)
	}
}

func TestWeeklySummary(t *testing.T) {
	monday := civil.Date{Year: 2025, Month: 6, Day: 16}
	store := storedState(func(st *domain.EngagementState) {
		st.Streak = 6
		st.MaxStreak = 9
		st.LastEntryDate = &testToday
		st.KarmaPoints = 450
		st.StreakFreezeCount = 2
		st.Achievements = []string{AchievementFirstTransaction, AchievementStreak5}
		st.AchievementDates = map[string]civil.Date{
			AchievementFirstTransaction: {Year: 2025, Month: 6, Day: 1},
			AchievementStreak5:          {Year: 2025, Month: 6, Day: 12},
		}
	})
	activity := &fakeActivity{txs: []domain.Transaction{
		{Date: monday.AddDays(-1), Amount: decimal.NewFromInt(10)},
		{Date: monday, Amount: decimal.NewFromInt(10)},
		{Date: testToday, Amount: decimal.NewFromInt(10)},
	}}

	got, err := newTestTracker(store, activity).WeeklySummary(context.Background())
	if err != nil {
		t.Fatalf("WeeklySummary() error = %v", err)
	}
	if got.WeeklyTransactions != 2 || got.WeeklyKarma != 10 {
		t.Errorf("weekly = %d tx / %d karma, want 2 / 10", got.WeeklyTransactions, got.WeeklyKarma)
	}
	if got.CurrentStreak != 6 || got.MaxStreak != 9 || got.Level != 3 || got.StreakFreezeAvailable != 2 {
		t.Errorf("summary = %+v", got)
	}
	if len(got.AchievementsThisWeek) != 1 || got.AchievementsThisWeek[0].ID != AchievementStreak5 {
		t.Errorf("achievements this week = %+v, want streak_5", got.AchievementsThisWeek)
	}
}

func TestLeaderboard(t *testing.T) {
	store := storedState(func(st *domain.EngagementState) {
		st.KarmaPoints = 320
		st.Streak = 2
		st.LastEntryDate = &testToday
		st.Achievements = []string{AchievementFirstTransaction}
	})

	got, err := newTestTracker(store, activeToday()).Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	want := LeaderboardEntry{Rank: 1, TotalUsers: 1, KarmaPoints: 320, Level: 3, Streak: 2, AchievementsCount: 1, Percentile: 100}
	if got != want {
		t.Errorf("Leaderboard() = %+v, want %+v", got, want)
	}
}

func TestWeekStart(t *testing.T) {
	monday := civil.Date{Year: 2025, Month: 6, Day: 16}
	for i := 0; i < 7; i++ {
		if got := WeekStart(monday.AddDays(i)); got != monday {
			t.Errorf("WeekStart(%s) = %s, want %s", monday.AddDays(i), got, monday)
		}
	}
	if got := WeekStart(monday.AddDays(-1)); got != monday.AddDays(-7) {
		t.Errorf("WeekStart(sunday) = %s, want previous monday", got)
	}
}
