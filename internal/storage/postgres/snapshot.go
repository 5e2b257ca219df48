package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/storage"
)

var _ storage.Store = (*SnapshotRepository)(nil)

// SnapshotRepository persists arena snapshots as jsonb documents in the
// arena_snapshots table, one row per game.
type SnapshotRepository struct {
	db *pgxpool.Pool
}

// NewSnapshotRepository creates a SnapshotRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts the snapshot for state.GameID.
//
// Postcondition: The row for state.GameID holds the complete new
// document and a fresh updated_at.
func (r *SnapshotRepository) Save(ctx context.Context, state *arena.State) error {
	data, err := storage.EncodeState(state)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO arena_snapshots (game_id, snapshot)
		VALUES ($1, $2)
		ON CONFLICT (game_id) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = NOW()`,
		state.GameID, data,
	)
	if err != nil {
		return fmt.Errorf("upserting snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for gameID.
//
// Postcondition: Returns the decoded State, or storage.ErrSnapshotNotFound
// if no row exists for gameID.
func (r *SnapshotRepository) Load(ctx context.Context, gameID string) (*arena.State, error) {
	var data []byte
	err := r.db.QueryRow(ctx,
		`SELECT snapshot FROM arena_snapshots WHERE game_id = $1`,
		gameID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	return storage.DecodeState(data)
}

// List returns every stored snapshot, oldest first. Unlike the file
// store there is no skip-on-corrupt here: every row was written through
// the codec, so a row that fails to decode is a bug worth surfacing.
func (r *SnapshotRepository) List(ctx context.Context) ([]*arena.State, error) {
	rows, err := r.db.Query(ctx,
		`SELECT snapshot FROM arena_snapshots ORDER BY created_at ASC, game_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	states := make([]*arena.State, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		state, err := storage.DecodeState(data)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

// Delete removes the snapshot for gameID.
//
// Postcondition: Returns storage.ErrSnapshotNotFound if no row existed.
func (r *SnapshotRepository) Delete(ctx context.Context, gameID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM arena_snapshots WHERE game_id = $1`,
		gameID,
	)
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrSnapshotNotFound
	}
	return nil
}
