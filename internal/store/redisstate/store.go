// Package redisstate keeps the engagement-state record in Redis, for
// deployments where several processes share one user's progress. Updates
// use WATCH/MULTI/EXEC on the state key and retry when another process
// commits in between.
package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dvloznov/finla/internal/domain"
	"github.com/dvloznov/finla/internal/engagement"
	"github.com/go-redis/redis"
	"github.com/rs/zerolog"
)

// DefaultKey is the key the state is stored under when none is configured.
const DefaultKey = "finla:engagement_state"

// DefaultMaxAttempts bounds the optimistic retries of one update.
const DefaultMaxAttempts = 20

// ErrContention is returned when an update keeps losing to other writers.
var ErrContention = errors.New("engagement state kept changing")

// backend is the part of Redis the store needs. watch runs fn on the current
// value of key and writes what fn returns in one transaction; it fails with
// redis.TxFailedErr when key changed after it was read. A nil result from
// fn writes nothing.
type backend interface {
	get(ctx context.Context, key string) ([]byte, error)
	set(ctx context.Context, key string, value []byte) error
	watch(ctx context.Context, key string, fn func(current []byte, exists bool) ([]byte, error)) error
}

type clientBackend struct {
	client *redis.Client
}

func (b clientBackend) get(ctx context.Context, key string) ([]byte, error) {
	return b.client.WithContext(ctx).Get(key).Bytes()
}

func (b clientBackend) set(ctx context.Context, key string, value []byte) error {
	return b.client.WithContext(ctx).Set(key, value, 0).Err()
}

func (b clientBackend) watch(ctx context.Context, key string, fn func(current []byte, exists bool) ([]byte, error)) error {
	return b.client.WithContext(ctx).Watch(func(tx *redis.Tx) error {
		current, err := tx.Get(key).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		next, err := fn(current, err == nil)
		if err != nil || next == nil {
			return err
		}
		_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
			pipe.Set(key, next, 0)
			return nil
		})
		return err
	}, key)
}

// Options configures the Redis connection.
type Options struct {
	Addr        string
	Password    string
	DB          int
	Key         string
	MaxAttempts int
}

// Store implements engagement.AtomicStateStore on a single Redis key.
type Store struct {
	backend     backend
	close       func() error
	key         string
	maxAttempts int
	log         zerolog.Logger
}

// New connects to Redis and verifies the connection with PING.
func New(opts Options, log zerolog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("New: ping %s: %w", opts.Addr, err)
	}
	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("Connected to Redis")
	return newStore(clientBackend{client: client}, client.Close, opts, log), nil
}

func newStore(b backend, closeFn func() error, opts Options, log zerolog.Logger) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Store{backend: b, close: closeFn, key: opts.Key, maxAttempts: opts.MaxAttempts, log: log}
}

// LoadState implements repository.EngagementStateRepository.
func (s *Store) LoadState(ctx context.Context) (domain.EngagementState, bool, error) {
	data, err := s.backend.get(ctx, s.key)
	if err == redis.Nil {
		return domain.EngagementState{}, false, nil
	}
	if err != nil {
		return domain.EngagementState{}, false, fmt.Errorf("LoadState: get %s: %w", s.key, err)
	}

	st, err := s.decode(data)
	if err != nil {
		return domain.EngagementState{}, false, fmt.Errorf("LoadState: %w", err)
	}
	return st, true, nil
}

// SaveState implements repository.EngagementStateRepository.
func (s *Store) SaveState(ctx context.Context, state domain.EngagementState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("SaveState: encode: %w", err)
	}
	if err := s.backend.set(ctx, s.key, data); err != nil {
		s.log.Error().Err(err).Str("key", s.key).Msg("Unable to save engagement state")
		return fmt.Errorf("SaveState: set %s: %w", s.key, err)
	}
	return nil
}

// UpdateState implements engagement.AtomicStateStore. fn runs again on the
// fresh value whenever another writer changed the key first.
func (s *Store) UpdateState(ctx context.Context, fn func(st *domain.EngagementState, found bool) bool) error {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := s.backend.watch(ctx, s.key, func(current []byte, exists bool) ([]byte, error) {
			var st domain.EngagementState
			if exists {
				decoded, err := s.decode(current)
				if err != nil {
					return nil, err
				}
				st = decoded
			}
			if !fn(&st, exists) {
				return nil, nil
			}
			return json.Marshal(st)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			s.log.Error().Err(err).Str("key", s.key).Msg("Unable to update engagement state")
			return fmt.Errorf("UpdateState: %s: %w", s.key, err)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("UpdateState: %w", err)
		}
		s.log.Debug().Str("key", s.key).Int("attempt", attempt).Msg("Engagement state changed concurrently, retrying")
	}
	return fmt.Errorf("UpdateState: %s after %d attempts: %w", s.key, s.maxAttempts, ErrContention)
}

func (s *Store) decode(data []byte) (domain.EngagementState, error) {
	var st domain.EngagementState
	if err := json.Unmarshal(data, &st); err != nil {
		return domain.EngagementState{}, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return st, nil
}

// Close closes the connection.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Ensure Store implements AtomicStateStore.
var _ engagement.AtomicStateStore = (*Store)(nil)
