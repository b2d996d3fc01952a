// Package export copies the ledger to external systems. Each target lives in
// its own subpackage and implements Exporter; Runner takes a snapshot of the
// store and hands it to the exporter for the requested target.
package export

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/finla/internal/clock"
	"github.com/dvloznov/finla/internal/domain"
	"github.com/rs/zerolog"
)

// Target names an export destination.
type Target string

const (
	TargetBigQuery Target = "bigquery"
	TargetGCS      Target = "gcs"
	TargetNotion   Target = "notion"
)

var (
	// ErrUnknownTarget is returned for a target name that is not recognised.
	ErrUnknownTarget = errors.New("unknown export target")

	// ErrNotConfigured is returned for a known target with no exporter registered.
	ErrNotConfigured = errors.New("export target not configured")
)

// ParseTarget parses a target name, case-insensitively.
func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.ToLower(strings.TrimSpace(s))); t {
	case TargetBigQuery, TargetGCS, TargetNotion:
		return t, nil
	}
	return "", fmt.Errorf("ParseTarget: %q: %w", s, ErrUnknownTarget)
}

// Snapshot is a consistent copy of everything that can be exported.
type Snapshot struct {
	GeneratedAt  time.Time               `json:"generated_at"`
	Transactions []domain.Transaction    `json:"transactions"`
	Accounts     []domain.Account        `json:"accounts"`
	Goals        []domain.Goal           `json:"goals"`
	State        *domain.EngagementState `json:"engagement_state,omitempty"`
}

// Result summarises one export run.
type Result struct {
	Target   Target `json:"target"`
	Exported int    `json:"exported"`
	Skipped  int    `json:"skipped"`
	Location string `json:"location,omitempty"`
}

// Exporter writes a snapshot to one target.
type Exporter interface {
	Target() Target
	Export(ctx context.Context, snap Snapshot) (Result, error)
}

// Source is the read side of the store a snapshot is taken from.
type Source interface {
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	ListGoals(ctx context.Context) ([]domain.Goal, error)
	LoadState(ctx context.Context) (domain.EngagementState, bool, error)
}

// TakeSnapshot reads every record set from src.
func TakeSnapshot(ctx context.Context, src Source, clk clock.Clock) (Snapshot, error) {
	txs, err := src.ListTransactions(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("TakeSnapshot: transactions: %w", err)
	}
	accounts, err := src.ListAccounts(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("TakeSnapshot: accounts: %w", err)
	}
	goals, err := src.ListGoals(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("TakeSnapshot: goals: %w", err)
	}
	snap := Snapshot{
		GeneratedAt:  clk.Now().UTC(),
		Transactions: txs,
		Accounts:     accounts,
		Goals:        goals,
	}

	st, found, err := src.LoadState(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("TakeSnapshot: engagement state: %w", err)
	}
	if found {
		snap.State = &st
	}
	return snap, nil
}

// Runner dispatches exports to the registered exporters.
type Runner struct {
	src       Source
	clock     clock.Clock
	log       zerolog.Logger
	exporters map[Target]Exporter
}

// NewRunner creates a Runner over src with the given exporters.
func NewRunner(src Source, clk clock.Clock, log zerolog.Logger, exporters ...Exporter) *Runner {
	r := &Runner{src: src, clock: clk, log: log, exporters: make(map[Target]Exporter, len(exporters))}
	for _, e := range exporters {
		r.exporters[e.Target()] = e
	}
	return r
}

// Targets returns the configured targets in name order.
func (r *Runner) Targets() []Target {
	out := make([]Target, 0, len(r.exporters))
	for t := range r.exporters {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Run snapshots the store and exports it to target.
func (r *Runner) Run(ctx context.Context, target Target) (Result, error) {
	exp, ok := r.exporters[target]
	if !ok {
		return Result{}, fmt.Errorf("Run: %s: %w", target, ErrNotConfigured)
	}

	snap, err := TakeSnapshot(ctx, r.src, r.clock)
	if err != nil {
		return Result{}, fmt.Errorf("Run: %w", err)
	}

	start := r.clock.Now()
	res, err := exp.Export(ctx, snap)
	if err != nil {
		r.log.Error().Err(err).Str("target", string(target)).Msg("Export failed")
		return res, fmt.Errorf("Run: %s: %w", target, err)
	}
	res.Target = target

	r.log.Info().
		Str("target", string(target)).
		Int("exported", res.Exported).
		Int("skipped", res.Skipped).
		Str("location", res.Location).
		Dur("duration", r.clock.Now().Sub(start)).
		Msg("Export completed")
	return res, nil
}
