package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/repository"
)

// Store is an in-memory implementation of repository.Store.
// It is safe for concurrent use. Data is lost on restart; use the sqlite
// store for persistence.
type Store struct {
	mu       sync.RWMutex
	txs      []domain.Transaction
	txIDs    map[string]bool
	accounts map[string]domain.Account
	goals    []domain.Goal
	state    *domain.EngagementState
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		txIDs:    make(map[string]bool),
		accounts: make(map[string]domain.Account),
	}
}

// AppendTransaction implements repository.TransactionRepository.
func (s *Store) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("AppendTransaction: transaction ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.txIDs[tx.ID] {
		return fmt.Errorf("AppendTransaction: %s: %w", tx.ID, repository.ErrDuplicate)
	}
	s.txIDs[tx.ID] = true
	s.txs = append(s.txs, *tx)
	return nil
}

// AppendTransactions implements repository.TransactionRepository. The whole
// batch is checked before any of it is stored.
func (s *Store) AppendTransactions(ctx context.Context, txs []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]bool, len(txs))
	for i, tx := range txs {
		if tx.ID == "" {
			return fmt.Errorf("AppendTransactions: row %d: transaction ID is required", i+1)
		}
		if s.txIDs[tx.ID] || batch[tx.ID] {
			return fmt.Errorf("AppendTransactions: row %d: %s: %w", i+1, tx.ID, repository.ErrDuplicate)
		}
		batch[tx.ID] = true
	}
	for _, tx := range txs {
		s.txIDs[tx.ID] = true
		s.txs = append(s.txs, tx)
	}
	return nil
}

// ListTransactions implements repository.TransactionRepository.
func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Transaction{}, s.txs...), nil
}

// HasTransactionOn implements repository.TransactionRepository.
func (s *Store) HasTransactionOn(ctx context.Context, day civil.Date) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, tx := range s.txs {
		if tx.Date == day {
			return true, nil
		}
	}
	return false, nil
}

// ListAccounts implements repository.AccountRepository.
func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		result = append(result, copyAccount(acc))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// UpsertAccount implements repository.AccountRepository.
func (s *Store) UpsertAccount(ctx context.Context, acc domain.Account) error {
	if acc.Name == "" {
		return fmt.Errorf("UpsertAccount: account name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[acc.Name] = copyAccount(acc)
	return nil
}

// DeleteAccount implements repository.AccountRepository.
func (s *Store) DeleteAccount(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[name]; !exists {
		return fmt.Errorf("DeleteAccount: %s: %w", name, repository.ErrNotFound)
	}
	delete(s.accounts, name)
	return nil
}

// ListGoals implements repository.GoalRepository.
func (s *Store) ListGoals(ctx context.Context) ([]domain.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Goal{}, s.goals...), nil
}

// AddGoal implements repository.GoalRepository.
func (s *Store) AddGoal(ctx context.Context, g *domain.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = int64(len(s.goals) + 1)
	s.goals = append(s.goals, *g)
	return nil
}

// LoadState implements repository.EngagementStateRepository.
func (s *Store) LoadState(ctx context.Context) (domain.EngagementState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return domain.EngagementState{}, false, nil
	}
	return s.state.Clone(), true, nil
}

// SaveState implements repository.EngagementStateRepository.
func (s *Store) SaveState(ctx context.Context, state domain.EngagementState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := state.Clone()
	s.state = &st
	return nil
}

// Close implements repository.Store. It is a no-op.
func (s *Store) Close() error {
	return nil
}

func copyAccount(acc domain.Account) domain.Account {
	acc.LinkedPaymentAliases = append([]string(nil), acc.LinkedPaymentAliases...)
	return acc
}

// Ensure Store implements the repository interfaces.
var _ repository.Store = (*Store)(nil)
