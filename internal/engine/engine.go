// Package engine records transactions and assembles the dashboard. It is the
// only writer of the transaction log: every append goes through the engine
// mutex so that the engagement tracker sees appends in order.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/classifier"
	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/engagement"
	"github.com/dvloznov/finla/internal/ledger"
	"github.com/dvloznov/finla/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidAmount is returned for negative transaction amounts.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInvalidGoal is returned when a goal has no name or a non-positive target.
var ErrInvalidGoal = errors.New("invalid goal")

// Records is the part of the store the engine writes to.
type Records interface {
	repository.TransactionRepository
	repository.AccountRepository
	repository.GoalRepository
}

// Engine coordinates the classifier, the transaction log and the engagement tracker.
type Engine struct {
	mu        sync.Mutex
	records   Records
	analytics *ledger.Analytics
	tracker   *engagement.Tracker
	clock     clock.Clock
	log       zerolog.Logger
	newID     func() string
}

// New creates an Engine.
func New(records Records, analytics *ledger.Analytics, tracker *engagement.Tracker, clk clock.Clock, log zerolog.Logger) *Engine {
	return &Engine{
		records:   records,
		analytics: analytics,
		tracker:   tracker,
		clock:     clk,
		log:       log,
		newID:     uuid.NewString,
	}
}

// AddResult is the outcome of recording one transaction. Streak and Karma are
// nil when the engagement update failed; EngagementError then says why.
type AddResult struct {
	Transaction     domain.Transaction       `json:"transaction"`
	Streak          *engagement.StreakResult `json:"streak,omitempty"`
	Karma           *engagement.KarmaResult  `json:"karma,omitempty"`
	EngagementError string                   `json:"engagement_error,omitempty"`
}

// ImportResult is the outcome of a batch import.
type ImportResult struct {
	Added           int                            `json:"added"`
	Transactions    []domain.Transaction           `json:"transactions"`
	Streak          *engagement.StreakResult       `json:"streak,omitempty"`
	KarmaEarned     int                            `json:"karma_earned"`
	NewAchievements []engagement.EarnedAchievement `json:"new_achievements"`
	EngagementError string                         `json:"engagement_error,omitempty"`
}

// Prepare turns input into a finalized transaction without storing it: the
// date defaults to today, the bank is resolved and the category classified.
func (e *Engine) Prepare(ctx context.Context, in domain.NewTransaction) (domain.Transaction, error) {
	accounts, err := e.records.ListAccounts(ctx)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("Prepare: list accounts: %w", err)
	}
	return e.finalize(in, accounts)
}

func (e *Engine) finalize(in domain.NewTransaction, accounts []domain.Account) (domain.Transaction, error) {
	if in.Amount.IsNegative() {
		return domain.Transaction{}, fmt.Errorf("amount %s: %w", in.Amount, ErrInvalidAmount)
	}

	now := e.clock.Now()
	date := civil.DateOf(now)
	if in.Date != nil {
		date = *in.Date
	}
	description := strings.TrimSpace(in.Description)
	method := strings.TrimSpace(in.PaymentMethod)
	result := classifier.Classify(in.Description, in.Amount)

	return domain.Transaction{
		ID:            e.newID(),
		Date:          date,
		Amount:        in.Amount,
		Description:   description,
		Category:      result.Category,
		Confidence:    result.Confidence,
		PaymentMethod: method,
		Bank:          ledger.ResolveBank(method, accounts),
		CreatedAt:     now,
	}, nil
}

// AddTransaction classifies and appends one transaction, then updates the
// streak and awards karma. An engagement failure is logged and reported on
// the result; the transaction stays recorded.
func (e *Engine) AddTransaction(ctx context.Context, in domain.NewTransaction) (AddResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.Prepare(ctx, in)
	if err != nil {
		return AddResult{}, fmt.Errorf("AddTransaction: %w", err)
	}
	if err := e.records.AppendTransaction(ctx, &tx); err != nil {
		return AddResult{}, fmt.Errorf("AddTransaction: append: %w", err)
	}
	e.log.Info().
		Str("transaction_id", tx.ID).
		Str("category", string(tx.Category)).
		Str("amount", tx.Amount.String()).
		Str("bank", tx.Bank).
		Msg("Transaction recorded")

	res := AddResult{Transaction: tx}
	streak, err := e.tracker.UpdateStreak(ctx)
	if err != nil {
		e.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Unable to update streak")
		res.EngagementError = err.Error()
		return res, nil
	}
	res.Streak = &streak

	karma, err := e.tracker.RecordTransaction(ctx, tx.Category, tx.Amount)
	if err != nil {
		e.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Unable to award karma")
		res.EngagementError = err.Error()
		return res, nil
	}
	res.Karma = &karma
	return res, nil
}

// ImportTransactions appends a batch. Every row is validated before anything
// is written, and the batch is stored atomically, so a bad row or a failed
// write leaves the log unchanged. Karma is awarded per row; the streak is
// checked once after the batch.
func (e *Engine) ImportTransactions(ctx context.Context, in []domain.NewTransaction) (ImportResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	accounts, err := e.records.ListAccounts(ctx)
	if err != nil {
		return ImportResult{}, fmt.Errorf("ImportTransactions: list accounts: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(in))
	for i, row := range in {
		tx, err := e.finalize(row, accounts)
		if err != nil {
			return ImportResult{}, fmt.Errorf("ImportTransactions: row %d: %w", i+1, err)
		}
		txs = append(txs, tx)
	}

	res := ImportResult{Transactions: []domain.Transaction{}, NewAchievements: []engagement.EarnedAchievement{}}
	if len(txs) == 0 {
		return res, nil
	}
	if err := e.records.AppendTransactions(ctx, txs); err != nil {
		return ImportResult{}, fmt.Errorf("ImportTransactions: append: %w", err)
	}
	res.Added = len(txs)
	res.Transactions = txs
	e.log.Info().Int("count", res.Added).Msg("Transactions imported")

	streak, err := e.tracker.UpdateStreak(ctx)
	if err != nil {
		e.log.Error().Err(err).Msg("Unable to update streak after import")
		res.EngagementError = err.Error()
		return res, nil
	}
	res.Streak = &streak
	res.KarmaEarned += streak.KarmaEarned
	res.NewAchievements = append(res.NewAchievements, streak.NewAchievements...)

	for _, tx := range res.Transactions {
		karma, err := e.tracker.RecordTransaction(ctx, tx.Category, tx.Amount)
		if err != nil {
			e.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Unable to award karma")
			res.EngagementError = err.Error()
			return res, nil
		}
		res.KarmaEarned += karma.KarmaEarned + karma.AchievementPoints
		res.NewAchievements = append(res.NewAchievements, karma.NewAchievements...)
	}
	return res, nil
}

// Transactions returns the log ordered by date, newest first. limit <= 0
// returns everything.
func (e *Engine) Transactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	txs, err := e.records.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("Transactions: %w", err)
	}
	return newestFirst(txs, limit), nil
}

// TransactionLog returns the log in insertion order.
func (e *Engine) TransactionLog(ctx context.Context) ([]domain.Transaction, error) {
	txs, err := e.records.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("TransactionLog: %w", err)
	}
	return txs, nil
}

// newestFirst orders by date descending; same-day entries keep the most
// recently appended first.
func newestFirst(txs []domain.Transaction, limit int) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		out[len(txs)-1-i] = tx
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AddGoal validates and stores a savings goal dated today.
func (e *Engine) AddGoal(ctx context.Context, g domain.Goal) (domain.Goal, error) {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" || !g.TargetAmount.IsPositive() || g.CurrentAmount.IsNegative() {
		return domain.Goal{}, fmt.Errorf("AddGoal: %q: %w", g.Name, ErrInvalidGoal)
	}
	g.CreatedDate = clock.Today(e.clock)
	if err := e.records.AddGoal(ctx, &g); err != nil {
		return domain.Goal{}, fmt.Errorf("AddGoal: %w", err)
	}
	e.log.Info().Int64("goal_id", g.ID).Str("name", g.Name).Msg("Goal added")
	return g, nil
}
