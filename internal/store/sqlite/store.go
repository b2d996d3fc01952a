// Package sqlite implements repository.Store on a single SQLite file using
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/repository"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	date TEXT NOT NULL,
	amount TEXT NOT NULL,
	description TEXT NOT NULL,
	category TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	payment_method TEXT NOT NULL DEFAULT '',
	bank TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS transactions_date ON transactions (date);

CREATE TABLE IF NOT EXISTS accounts (
	name TEXT PRIMARY KEY,
	initial_balance TEXT NOT NULL,
	min_balance TEXT NOT NULL,
	aliases TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS goals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	target_amount TEXT NOT NULL,
	current_amount TEXT NOT NULL,
	target_date TEXT NOT NULL,
	created_date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS engagement_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	data TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store is a SQLite-backed repository.Store.
type Store struct {
	db    *sql.DB
	clock clock.Clock
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open opens or creates the database at path and applies the schema.
// The parent directory is created when missing. clk stamps state updates.
func Open(ctx context.Context, path string, clk clock.Clock) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("Open: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	// one writer at a time; this also keeps ":memory:" databases on one connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: apply schema: %w", err)
	}
	return &Store{db: db, clock: clk}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendTransaction implements repository.TransactionRepository.
func (s *Store) AppendTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := insertTransaction(ctx, s.db, tx); err != nil {
		return fmt.Errorf("AppendTransaction: %w", err)
	}
	return nil
}

// AppendTransactions implements repository.TransactionRepository. The batch
// is written in one SQL transaction.
func (s *Store) AppendTransactions(ctx context.Context, txs []domain.Transaction) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("AppendTransactions: begin: %w", err)
	}
	defer dbtx.Rollback()

	for i := range txs {
		if err := insertTransaction(ctx, dbtx, &txs[i]); err != nil {
			return fmt.Errorf("AppendTransactions: row %d: %w", i+1, err)
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("AppendTransactions: commit: %w", err)
	}
	return nil
}

func insertTransaction(ctx context.Context, db execer, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("transaction ID is required")
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO transactions (id, date, amount, description, category, confidence, payment_method, bank, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		tx.ID, tx.Date.String(), tx.Amount, tx.Description, string(tx.Category), tx.Confidence,
		tx.PaymentMethod, tx.Bank, tx.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", tx.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", tx.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", tx.ID, repository.ErrDuplicate)
	}
	return nil
}

// ListTransactions implements repository.TransactionRepository.
func (s *Store) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, amount, description, category, confidence, payment_method, bank, created_at
		FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		var (
			tx        domain.Transaction
			date      string
			category  string
			createdAt string
		)
		if err := rows.Scan(&tx.ID, &date, &tx.Amount, &tx.Description, &category, &tx.Confidence,
			&tx.PaymentMethod, &tx.Bank, &createdAt); err != nil {
			return nil, fmt.Errorf("ListTransactions: scan: %w", err)
		}
		if tx.Date, err = civil.ParseDate(date); err != nil {
			return nil, fmt.Errorf("ListTransactions: %s: date: %w", tx.ID, err)
		}
		if tx.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("ListTransactions: %s: created_at: %w", tx.ID, err)
		}
		tx.Category = domain.Category(category)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return txs, nil
}

// HasTransactionOn implements repository.TransactionRepository.
func (s *Store) HasTransactionOn(ctx context.Context, day civil.Date) (bool, error) {
	var found bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE date = ?)`, day.String()).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("HasTransactionOn: %w", err)
	}
	return found, nil
}

// ListAccounts implements repository.AccountRepository.
func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, initial_balance, min_balance, aliases FROM accounts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		var (
			acc     domain.Account
			aliases string
		)
		if err := rows.Scan(&acc.Name, &acc.InitialBalance, &acc.MinBalance, &aliases); err != nil {
			return nil, fmt.Errorf("ListAccounts: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(aliases), &acc.LinkedPaymentAliases); err != nil {
			return nil, fmt.Errorf("ListAccounts: %s: aliases: %w", acc.Name, err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

// UpsertAccount implements repository.AccountRepository.
func (s *Store) UpsertAccount(ctx context.Context, acc domain.Account) error {
	if acc.Name == "" {
		return fmt.Errorf("UpsertAccount: account name is required")
	}
	aliases := acc.LinkedPaymentAliases
	if aliases == nil {
		aliases = []string{}
	}
	data, err := json.Marshal(aliases)
	if err != nil {
		return fmt.Errorf("UpsertAccount: %s: aliases: %w", acc.Name, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (name, initial_balance, min_balance, aliases) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			initial_balance = excluded.initial_balance,
			min_balance = excluded.min_balance,
			aliases = excluded.aliases`,
		acc.Name, acc.InitialBalance, acc.MinBalance, string(data))
	if err != nil {
		return fmt.Errorf("UpsertAccount: %s: %w", acc.Name, err)
	}
	return nil
}

// DeleteAccount implements repository.AccountRepository.
func (s *Store) DeleteAccount(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("DeleteAccount: %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteAccount: %s: rows affected: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("DeleteAccount: %s: %w", name, repository.ErrNotFound)
	}
	return nil
}

// ListGoals implements repository.GoalRepository.
func (s *Store) ListGoals(ctx context.Context) ([]domain.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, target_amount, current_amount, target_date, created_date
		FROM goals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: %w", err)
	}
	defer rows.Close()

	goals := []domain.Goal{}
	for rows.Next() {
		var (
			g                   domain.Goal
			targetDate, created string
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &targetDate, &created); err != nil {
			return nil, fmt.Errorf("ListGoals: scan: %w", err)
		}
		if g.TargetDate, err = civil.ParseDate(targetDate); err != nil {
			return nil, fmt.Errorf("ListGoals: %d: target_date: %w", g.ID, err)
		}
		if g.CreatedDate, err = civil.ParseDate(created); err != nil {
			return nil, fmt.Errorf("ListGoals: %d: created_date: %w", g.ID, err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListGoals: %w", err)
	}
	return goals, nil
}

// AddGoal implements repository.GoalRepository.
func (s *Store) AddGoal(ctx context.Context, g *domain.Goal) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (name, target_amount, current_amount, target_date, created_date)
		VALUES (?, ?, ?, ?, ?)`,
		g.Name, g.TargetAmount, g.CurrentAmount, g.TargetDate.String(), g.CreatedDate.String())
	if err != nil {
		return fmt.Errorf("AddGoal: %s: %w", g.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("AddGoal: %s: last insert id: %w", g.Name, err)
	}
	g.ID = id
	return nil
}

// LoadState implements repository.EngagementStateRepository.
func (s *Store) LoadState(ctx context.Context) (domain.EngagementState, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM engagement_state WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EngagementState{}, false, nil
	}
	if err != nil {
		return domain.EngagementState{}, false, fmt.Errorf("LoadState: %w", err)
	}

	var st domain.EngagementState
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return domain.EngagementState{}, false, fmt.Errorf("LoadState: decode: %w", err)
	}
	return st, true, nil
}

// SaveState implements repository.EngagementStateRepository.
func (s *Store) SaveState(ctx context.Context, state domain.EngagementState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("SaveState: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO engagement_state (id, data, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(data), s.clock.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("SaveState: %w", err)
	}
	return nil
}

// Ensure Store implements the repository interfaces.
var _ repository.Store = (*Store)(nil)
