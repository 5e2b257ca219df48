// Package redis persists arena snapshots in Redis, one key per game
// under the "arena:game:" namespace.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/storage"
)

const keyPrefix = "arena:game:"

var _ storage.Store = (*Store)(nil)

// Store is a Redis-backed snapshot store.
type Store struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection with a ping.
//
// Postcondition: Returns a connected Store or a non-nil error.
func New(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &Store{client: client}, nil
}

// Save writes the snapshot for state.GameID, replacing any previous one.
func (s *Store) Save(ctx context.Context, state *arena.State) error {
	data, err := storage.EncodeState(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+state.GameID, data, 0).Err(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for gameID.
//
// Postcondition: Returns the decoded State, or storage.ErrSnapshotNotFound
// if no key exists for gameID.
func (s *Store) Load(ctx context.Context, gameID string) (*arena.State, error) {
	data, err := s.client.Get(ctx, keyPrefix+gameID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return storage.DecodeState(data)
}

// List returns every stored snapshot, ordered by game ID. SCAN returns
// keys in no particular order, so the keys are sorted before fetching
// to keep restores deterministic.
func (s *Store) List(ctx context.Context) ([]*arena.State, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot keys: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return []*arena.State{}, nil
	}
	sort.Strings(keys)

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetching snapshots: %w", err)
	}

	states := make([]*arena.State, 0, len(values))
	for i, value := range values {
		// A key can expire between SCAN and MGET.
		if value == nil {
			continue
		}
		raw, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("snapshot %s has unexpected type %T", keys[i], value)
		}
		state, err := storage.DecodeState([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", keys[i], err)
		}
		states = append(states, state)
	}
	return states, nil
}

// Delete removes the snapshot for gameID.
//
// Postcondition: Returns storage.ErrSnapshotNotFound if no key existed.
func (s *Store) Delete(ctx context.Context, gameID string) error {
	deleted, err := s.client.Del(ctx, keyPrefix+gameID).Result()
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if deleted == 0 {
		return storage.ErrSnapshotNotFound
	}
	return nil
}

// Close releases the client connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
