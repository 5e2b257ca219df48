// Package storage persists arena snapshots. Three backends implement
// the same Store interface: flat JSON files, PostgreSQL, and Redis.
// The engine treats every backend as write-behind, so a Store only
// needs durability, not transactional coupling with game state.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/character"
)

// ErrSnapshotNotFound is returned when a game ID has no stored snapshot.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store persists full game snapshots keyed by game ID.
type Store interface {
	// Save writes the snapshot for state.GameID, replacing any previous one.
	Save(ctx context.Context, state *arena.State) error
	// Load returns the snapshot for gameID, or ErrSnapshotNotFound.
	Load(ctx context.Context, gameID string) (*arena.State, error)
	// List returns every stored snapshot.
	List(ctx context.Context) ([]*arena.State, error)
	// Delete removes the snapshot for gameID, or returns ErrSnapshotNotFound.
	Delete(ctx context.Context, gameID string) error
}

// EncodeState serializes a snapshot to its JSON document form.
//
// Precondition: state must be non-nil with a non-empty GameID.
func EncodeState(state *arena.State) ([]byte, error) {
	if state == nil {
		return nil, errors.New("encoding snapshot: state is nil")
	}
	if state.GameID == "" {
		return nil, errors.New("encoding snapshot: game ID is empty")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// DecodeState parses a JSON snapshot document back into a State.
//
// Postcondition: Returns a State with a non-nil character map and a
// non-empty GameID, or an error for malformed or truncated payloads.
func DecodeState(data []byte) (*arena.State, error) {
	var state arena.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if state.GameID == "" {
		return nil, errors.New("decoding snapshot: game ID is empty")
	}
	if state.Characters == nil {
		state.Characters = make(map[string]*character.Character)
	}
	return &state, nil
}
