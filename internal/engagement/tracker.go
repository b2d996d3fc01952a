// Package engagement maintains the persisted gamification record: the
// tracking streak, karma points, levels and achievements.
package engagement

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// StateStore persists the engagement-state record.
type StateStore interface {
	LoadState(ctx context.Context) (domain.EngagementState, bool, error)
	SaveState(ctx context.Context, state domain.EngagementState) error
}

// AtomicStateStore is a StateStore that can run a load-modify-save as one
// step against writers in other processes. fn may run more than once when
// another writer commits first; it must start from the state it is given.
type AtomicStateStore interface {
	StateStore
	UpdateState(ctx context.Context, fn func(st *domain.EngagementState, found bool) bool) error
}

// ActivitySource answers questions about the transaction log.
type ActivitySource interface {
	HasTransactionOn(ctx context.Context, day civil.Date) (bool, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// Tracker owns the engagement state. Every mutation runs as one
// load-modify-save under mu, and atomically in the store when it supports it.
type Tracker struct {
	mu       sync.Mutex
	store    StateStore
	activity ActivitySource
	clock    clock.Clock
	log      zerolog.Logger
}

// New creates a Tracker.
func New(store StateStore, activity ActivitySource, clk clock.Clock, log zerolog.Logger) *Tracker {
	return &Tracker{store: store, activity: activity, clock: clk, log: log}
}

// EarnedAchievement is an achievement together with the day it was earned.
type EarnedAchievement struct {
	Achievement
	EarnedDate civil.Date `json:"earned_date"`
}

// StreakResult reports the outcome of a streak check.
type StreakResult struct {
	Streak            int                 `json:"streak"`
	MaxStreak         int                 `json:"max_streak"`
	StreakFreezeCount int                 `json:"streak_freeze_count"`
	FreezeUsed        bool                `json:"freeze_used"`
	KarmaEarned       int                 `json:"karma_earned"`
	NewAchievements   []EarnedAchievement `json:"new_achievements"`
}

// KarmaResult reports the karma awarded for one transaction.
type KarmaResult struct {
	KarmaEarned       int                 `json:"karma_earned"`
	AchievementPoints int                 `json:"achievement_points"`
	KarmaPoints       int                 `json:"karma_points"`
	Level             int                 `json:"level"`
	LevelUp           bool                `json:"level_up"`
	NewAchievements   []EarnedAchievement `json:"new_achievements"`
}

func (t *Tracker) today() civil.Date {
	return clock.Today(t.clock)
}

// load returns the stored state, or the default state when nothing has been
// saved. Stored state is repaired before use.
func (t *Tracker) load(ctx context.Context) (domain.EngagementState, error) {
	st, found, err := t.store.LoadState(ctx)
	if err != nil {
		return domain.EngagementState{}, fmt.Errorf("load state: %w", err)
	}
	if !found {
		return domain.DefaultEngagementState(), nil
	}
	return Repair(st), nil
}

// update runs fn against the current state and saves the result when fn
// reports a change. The level is recomputed before saving. Stores that
// implement AtomicStateStore run the whole step there, so fn may be retried.
func (t *Tracker) update(ctx context.Context, op string, fn func(st *domain.EngagementState) bool) (domain.EngagementState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if as, ok := t.store.(AtomicStateStore); ok {
		var final domain.EngagementState
		err := as.UpdateState(ctx, func(st *domain.EngagementState, found bool) bool {
			if found {
				*st = Repair(*st)
			} else {
				*st = domain.DefaultEngagementState()
			}
			changed := fn(st)
			if changed {
				st.Level = LevelFor(st.KarmaPoints)
			}
			final = st.Clone()
			return changed
		})
		if err != nil {
			return domain.EngagementState{}, fmt.Errorf("%s: update state: %w", op, err)
		}
		return final, nil
	}

	st, err := t.load(ctx)
	if err != nil {
		return domain.EngagementState{}, fmt.Errorf("%s: %w", op, err)
	}
	if !fn(&st) {
		return st, nil
	}
	st.Level = LevelFor(st.KarmaPoints)
	if err := t.store.SaveState(ctx, st); err != nil {
		return domain.EngagementState{}, fmt.Errorf("%s: save state: %w", op, err)
	}
	return st.Clone(), nil
}

// UpdateStreak advances the tracking streak when a transaction is dated
// today. It is a no-op when there is none, or when today was already counted.
func (t *Tracker) UpdateStreak(ctx context.Context) (StreakResult, error) {
	today := t.today()
	logged, err := t.activity.HasTransactionOn(ctx, today)
	if err != nil {
		return StreakResult{}, fmt.Errorf("UpdateStreak: check activity: %w", err)
	}

	res := StreakResult{NewAchievements: []EarnedAchievement{}}
	st, err := t.update(ctx, "UpdateStreak", func(st *domain.EngagementState) bool {
		res = StreakResult{NewAchievements: []EarnedAchievement{}}
		if !logged {
			return false
		}
		changed, freezeUsed := advanceStreak(st, today)
		if !changed {
			return false
		}
		res.FreezeUsed = freezeUsed
		res.NewAchievements = checkStreakAchievements(st, today)
		if st.Streak >= streakBonusThreshold {
			addKarma(st, KarmaStreakBonus)
			res.KarmaEarned = KarmaStreakBonus
		}
		return true
	})
	if err != nil {
		return StreakResult{}, err
	}

	res.Streak = st.Streak
	res.MaxStreak = st.MaxStreak
	res.StreakFreezeCount = st.StreakFreezeCount

	t.log.Debug().Int("streak", st.Streak).Bool("freeze_used", res.FreezeUsed).Msg("Streak checked")
	t.logAchievements(res.NewAchievements)
	return res, nil
}

// advanceStreak applies one day's streak transition. changed is false when
// today has already been counted.
func advanceStreak(st *domain.EngagementState, today civil.Date) (changed, freezeUsed bool) {
	if st.LastEntryDate == nil {
		st.Streak = 1
		if st.FirstTransactionDate == nil {
			first := today
			st.FirstTransactionDate = &first
		}
	} else {
		switch gap := today.DaysSince(*st.LastEntryDate); {
		case gap == 0:
			return false, false
		case gap == 1:
			st.Streak++
		case gap == 2 && st.StreakFreezeCount > 0:
			st.StreakFreezeCount--
			freezeUsed = true
		default:
			st.Streak = 1
		}
	}

	st.MaxStreak = max(st.MaxStreak, st.Streak)
	last := today
	st.LastEntryDate = &last
	return true, freezeUsed
}

// RecordTransaction awards karma for one classified transaction.
func (t *Tracker) RecordTransaction(ctx context.Context, category domain.Category, amount decimal.Decimal) (KarmaResult, error) {
	today := t.today()

	res := KarmaResult{NewAchievements: []EarnedAchievement{}}
	var before int
	st, err := t.update(ctx, "RecordTransaction", func(st *domain.EngagementState) bool {
		before = LevelFor(st.KarmaPoints)

		earned := KarmaTransactionLogged
		if amount.LessThanOrEqual(decimal.NewFromInt(mindfulAmount)) {
			earned += KarmaMindfulSpending
		}
		if !st.HasCategory(category) {
			earned += KarmaCategoryDiversity
			st.CategoriesUsed = append(st.CategoriesUsed, category)
		}
		addKarma(st, earned)
		st.TotalTransactions++
		res.KarmaEarned = earned

		karmaBefore := st.KarmaPoints
		res.NewAchievements = checkTransactionAchievements(st, today)
		res.AchievementPoints = st.KarmaPoints - karmaBefore
		return true
	})
	if err != nil {
		return KarmaResult{}, err
	}

	res.KarmaPoints = st.KarmaPoints
	res.Level = st.Level
	res.LevelUp = st.Level > before

	t.log.Debug().
		Str("category", string(category)).
		Int("karma_earned", res.KarmaEarned).
		Int("karma_points", st.KarmaPoints).
		Msg("Karma awarded")
	if res.LevelUp {
		t.log.Info().Int("level", st.Level).Msg("Level up")
	}
	t.logAchievements(res.NewAchievements)
	return res, nil
}

// Stats returns the current engagement state.
func (t *Tracker) Stats(ctx context.Context) (domain.EngagementState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, err := t.load(ctx)
	if err != nil {
		return domain.EngagementState{}, fmt.Errorf("Stats: %w", err)
	}
	return st, nil
}

// LevelProgress returns progress through the current level.
func (t *Tracker) LevelProgress(ctx context.Context) (LevelProgress, error) {
	st, err := t.Stats(ctx)
	if err != nil {
		return LevelProgress{}, fmt.Errorf("LevelProgress: %w", err)
	}
	return ProgressFor(st.KarmaPoints), nil
}

// UseStreakFreeze spends one streak-freeze token. It reports false when none
// are left.
func (t *Tracker) UseStreakFreeze(ctx context.Context) (bool, error) {
	used := false
	_, err := t.update(ctx, "UseStreakFreeze", func(st *domain.EngagementState) bool {
		used = false
		if st.StreakFreezeCount <= 0 {
			return false
		}
		st.StreakFreezeCount--
		used = true
		return true
	})
	if err != nil {
		return false, err
	}
	return used, nil
}

func (t *Tracker) logAchievements(earned []EarnedAchievement) {
	for _, a := range earned {
		t.log.Info().Str("achievement", a.ID).Int("points", a.Points).Msg("Achievement unlocked")
	}
}

func addKarma(st *domain.EngagementState, points int) {
	st.KarmaPoints += points
	st.TotalKarmaEarned += points
}

// award grants id once, adding its points. It reports false when id was
// already earned.
func award(st *domain.EngagementState, id string, today civil.Date) (EarnedAchievement, bool) {
	if st.HasAchievement(id) {
		return EarnedAchievement{}, false
	}
	a, ok := Lookup(id)
	if !ok {
		return EarnedAchievement{}, false
	}
	st.Achievements = append(st.Achievements, id)
	if st.AchievementDates == nil {
		st.AchievementDates = map[string]civil.Date{}
	}
	st.AchievementDates[id] = today
	addKarma(st, a.Points)
	return EarnedAchievement{Achievement: a, EarnedDate: today}, true
}

func checkStreakAchievements(st *domain.EngagementState, today civil.Date) []EarnedAchievement {
	earned := []EarnedAchievement{}
	for _, m := range streakMilestones {
		if st.Streak < m.Days {
			continue
		}
		if a, ok := award(st, m.ID, today); ok {
			earned = append(earned, a)
		}
	}
	return earned
}

func checkTransactionAchievements(st *domain.EngagementState, today civil.Date) []EarnedAchievement {
	var ids []string
	if st.TotalTransactions >= 1 {
		ids = append(ids, AchievementFirstTransaction)
	}
	if st.TotalTransactions >= centuryThreshold {
		ids = append(ids, AchievementHundredTransactions)
	}
	if len(st.CategoriesUsed) >= categoryMasterThreshold {
		ids = append(ids, AchievementCategoryMaster)
	}

	earned := []EarnedAchievement{}
	for _, id := range ids {
		if a, ok := award(st, id, today); ok {
			earned = append(earned, a)
		}
	}
	return earned
}
