// Package file persists arena snapshots as flat JSON files, one
// `<game id>.json` per game in a single directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store is a file-backed snapshot store. Writes go to a temp file in
// the same directory and are renamed into place, so a crash mid-write
// never leaves a truncated snapshot under the real name.
type Store struct {
	dir    string
	logger *zap.Logger
}

// New creates a Store rooted at dir, creating the directory if needed.
//
// Postcondition: Returns a Store whose directory exists, or a non-nil
// error.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("file store: directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save writes the snapshot for state.GameID, replacing any previous one.
//
// Postcondition: On success the snapshot file contains the complete new
// document; on failure the previous file, if any, is untouched.
func (s *Store) Save(ctx context.Context, state *arena.State) error {
	data, err := storage.EncodeState(state)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, state.GameID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path(state.GameID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for gameID.
//
// Postcondition: Returns the decoded State, or storage.ErrSnapshotNotFound
// if no file exists for gameID.
func (s *Store) Load(ctx context.Context, gameID string) (*arena.State, error) {
	data, err := os.ReadFile(s.path(gameID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return storage.DecodeState(data)
}

// List returns every readable snapshot in the directory. Files that
// fail to decode are logged and skipped rather than failing the whole
// restore, so one corrupt snapshot cannot keep the server from booting.
func (s *Store) List(ctx context.Context) ([]*arena.State, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot directory: %w", err)
	}

	states := make([]*arena.State, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading snapshot %s: %w", entry.Name(), err)
		}
		state, err := storage.DecodeState(data)
		if err != nil {
			s.logger.Warn("skipping corrupt snapshot",
				zap.String("file", entry.Name()),
				zap.Error(err),
			)
			continue
		}
		states = append(states, state)
	}
	return states, nil
}

// Delete removes the snapshot for gameID.
//
// Postcondition: Returns storage.ErrSnapshotNotFound if no file existed.
func (s *Store) Delete(ctx context.Context, gameID string) error {
	if err := os.Remove(s.path(gameID)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return storage.ErrSnapshotNotFound
		}
		return fmt.Errorf("removing snapshot: %w", err)
	}
	return nil
}

func (s *Store) path(gameID string) string {
	return filepath.Join(s.dir, gameID+".json")
}
