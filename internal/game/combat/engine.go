// Package combat orchestrates arena games: the lobby, initiative, the
// turn loop, action resolution, NPC turns, and win detection.
package combat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/grid"
	"github.com/cory-johannsen/arena/internal/game/npc"
)

// GameStore persists arena snapshots between restarts. The engine treats
// persistence as write-behind: a failed save is logged and the in-memory
// game remains authoritative.
type GameStore interface {
	Save(ctx context.Context, state *arena.State) error
	List(ctx context.Context) ([]*arena.State, error)
}

// Engine manages all arena games, keyed by game ID.
// All methods are safe for concurrent use.
type Engine struct {
	mu    sync.RWMutex
	games map[string]*Game
	order []string

	cfg        config.ArenaConfig
	roller     *dice.Roller
	controller *npc.Controller
	spawner    *npc.Spawner
	store      GameStore
	logger     *zap.Logger
}

// NewEngine creates an empty Engine. store may be nil, in which case
// games live only in memory.
//
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(
	cfg config.ArenaConfig,
	roller *dice.Roller,
	controller *npc.Controller,
	spawner *npc.Spawner,
	store GameStore,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		games:      make(map[string]*Game),
		cfg:        cfg,
		roller:     roller,
		controller: controller,
		spawner:    spawner,
		store:      store,
		logger:     logger,
	}
}

// CreateGame registers a new game in the waiting phase with a fresh grid
// and the configured NPCs already placed.
//
// Postcondition: Returns a non-nil Game registered under a new UUID.
func (e *Engine) CreateGame(ctx context.Context, name string) (*Game, error) {
	if name == "" {
		name = "Arena"
	}
	state := arena.NewState(
		uuid.NewString(),
		name,
		grid.New(e.cfg.GridWidth, e.cfg.GridHeight, e.cfg.SquareSizeFt),
	)
	if err := e.spawner.SpawnInto(state); err != nil {
		return nil, fmt.Errorf("spawning npcs: %w", err)
	}

	game := &Game{id: state.GameID, state: state, eng: e}

	e.mu.Lock()
	e.games[game.id] = game
	e.order = append(e.order, game.id)
	e.mu.Unlock()

	game.mu.Lock()
	game.persistLocked(ctx)
	game.mu.Unlock()

	e.logger.Info("game created",
		zap.String("game_id", game.id),
		zap.String("name", name),
	)
	return game, nil
}

// Game returns the game registered under gameID.
//
// Postcondition: Returns (game, true) if found, or (nil, false) otherwise.
func (e *Engine) Game(gameID string) (*Game, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g, ok := e.games[gameID]
	return g, ok
}

// Games returns all registered games in creation order.
func (e *Engine) Games() []*Game {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Game, 0, len(e.order))
	for _, id := range e.order {
		if g, ok := e.games[id]; ok {
			out = append(out, g)
		}
	}
	return out
}

// RestoreAll loads every persisted game from the store and registers it.
// Games already registered keep their in-memory state.
//
// Postcondition: Returns the number of games restored.
func (e *Engine) RestoreAll(ctx context.Context) (int, error) {
	if e.store == nil {
		return 0, nil
	}
	states, err := e.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing snapshots: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	restored := 0
	for _, state := range states {
		if _, exists := e.games[state.GameID]; exists {
			continue
		}
		e.games[state.GameID] = &Game{id: state.GameID, state: state, eng: e}
		e.order = append(e.order, state.GameID)
		restored++
	}
	if restored > 0 {
		e.logger.Info("games restored", zap.Int("count", restored))
	}
	return restored, nil
}

// newDeadline stamps the advisory deadline for the turn that is
// starting. Nothing enforces it server-side; clients use it to pace
// their bots.
func (e *Engine) newDeadline() *time.Time {
	deadline := time.Now().UTC().Add(e.cfg.TurnTimeout)
	return &deadline
}
