// Package repository declares the storage contracts shared by the engine,
// the analytics and the engagement tracker. Implementations live under
// internal/store.
package repository

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/domain"
)

var (
	// ErrNotFound is returned when a keyed record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a transaction ID is already in the log.
	ErrDuplicate = errors.New("duplicate")
)

// TransactionRepository provides the append-only transaction log.
type TransactionRepository interface {
	// AppendTransaction appends a finalized transaction to the log.
	// Returns ErrDuplicate if the ID is already present.
	AppendTransaction(ctx context.Context, tx *domain.Transaction) error

	// AppendTransactions appends a batch atomically: either every
	// transaction is stored or none is.
	AppendTransactions(ctx context.Context, txs []domain.Transaction) error

	// ListTransactions returns every transaction in insertion order.
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)

	// HasTransactionOn reports whether any transaction is dated day.
	HasTransactionOn(ctx context.Context, day civil.Date) (bool, error)
}

// AccountRepository provides bank account configuration.
type AccountRepository interface {
	// ListAccounts returns all accounts ordered by name.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// UpsertAccount creates or replaces the account with the same name.
	UpsertAccount(ctx context.Context, acc domain.Account) error

	// DeleteAccount removes an account. Returns ErrNotFound if absent.
	DeleteAccount(ctx context.Context, name string) error
}

// GoalRepository provides savings goals.
type GoalRepository interface {
	// ListGoals returns all goals ordered by id.
	ListGoals(ctx context.Context) ([]domain.Goal, error)

	// AddGoal stores g and assigns its ID.
	AddGoal(ctx context.Context, g *domain.Goal) error
}

// EngagementStateRepository persists the single engagement-state record.
type EngagementStateRepository interface {
	// LoadState returns the stored state. found is false when nothing has been saved yet.
	LoadState(ctx context.Context) (state domain.EngagementState, found bool, err error)

	// SaveState replaces the stored state.
	SaveState(ctx context.Context, state domain.EngagementState) error
}

// Store bundles every repository behind one handle.
type Store interface {
	TransactionRepository
	AccountRepository
	GoalRepository
	EngagementStateRepository

	// Close releases the underlying resources.
	Close() error
}
