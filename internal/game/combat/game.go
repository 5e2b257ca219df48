package combat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/grid"
	"github.com/cory-johannsen/arena/internal/game/rules"
)

// Lobby rejections. The text is the wire detail shown to clients, so it
// reads as a sentence rather than a Go error string.
var (
	// ErrCombatInProgress rejects joins while combat is active.
	ErrCombatInProgress = errors.New("Combat is in progress. Cannot join until it ends.")
	// ErrGameFull rejects joins once the roster is at capacity.
	ErrGameFull = errors.New("Game is full")
	// ErrAlreadyStarted rejects starting a game that is not waiting.
	ErrAlreadyStarted = errors.New("Game has already started")
	// ErrNotEnoughPlayers rejects starting with fewer than two distinct
	// player characters. NPCs do not count.
	ErrNotEnoughPlayers = errors.New("Need at least 2 player characters to start combat")
)

// Game is one arena. Its mutex serializes every mutation, so distinct
// games proceed in parallel while a single game has one logical writer.
type Game struct {
	id string

	mu    sync.Mutex
	state *arena.State
	eng   *Engine
}

// ID returns the game's immutable identifier.
func (g *Game) ID() string {
	return g.id
}

// JoinResult is the outcome of a join or reconnect.
type JoinResult struct {
	CharacterID string `json:"character_id"`
	Message     string `json:"message"`
}

// StartResult reports the opening initiative roster.
type StartResult struct {
	Message         string   `json:"message"`
	InitiativeOrder []string `json:"initiative_order"`
}

// Join adds a character for ownerID, built from sheet.
//
// An owner with a living character reconnects to it and sheet is
// ignored. An owner whose character has died gets a replacement. The
// roster cap counts NPCs, so a full arena turns new owners away until
// someone falls.
//
// Precondition: the game must be in the waiting phase.
func (g *Game) Join(ctx context.Context, ownerID string, sheet character.Sheet) (*JoinResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := g.state
	if state.Status != arena.StatusWaiting {
		return nil, ErrCombatInProgress
	}

	existing := state.FindByOwner(ownerID)

	if existing != nil && existing.IsAlive {
		g.persistLocked(ctx)
		return &JoinResult{
			CharacterID: existing.ID,
			Message:     fmt.Sprintf("Reconnected to %s", existing.Name),
		}, nil
	}

	if existing != nil && !existing.IsAlive {
		oldName := existing.Name
		state.RemoveCharacter(existing.ID)

		c, err := g.enterLocked(ownerID, sheet)
		if err != nil {
			return nil, err
		}
		g.persistLocked(ctx)
		return &JoinResult{
			CharacterID: c.ID,
			Message: fmt.Sprintf(
				"Your previous character %s has fallen. %s has entered the arena.",
				oldName, c.Name,
			),
		}, nil
	}

	if len(state.Characters) >= g.eng.cfg.MaxPlayers {
		return nil, ErrGameFull
	}

	c, err := g.enterLocked(ownerID, sheet)
	if err != nil {
		return nil, err
	}
	g.persistLocked(ctx)
	return &JoinResult{
		CharacterID: c.ID,
		Message:     fmt.Sprintf("%s has entered the arena.", c.Name),
	}, nil
}

// enterLocked builds a character from sheet and places it at the next
// lobby spawn slot.
func (g *Game) enterLocked(ownerID string, sheet character.Sheet) (*character.Character, error) {
	c, err := character.Build(uuid.NewString(), ownerID, sheet)
	if err != nil {
		return nil, err
	}
	if err := g.state.Place(c, g.spawnPositionLocked()); err != nil {
		return nil, err
	}
	g.eng.logger.Info("character joined",
		zap.String("game_id", g.id),
		zap.String("character_id", c.ID),
		zap.String("name", c.Name),
		zap.String("owner_id", ownerID),
	)
	return c, nil
}

// spawnPositionLocked picks the lobby spawn point for the next joiner,
// cycling corner and midpoint slots by roster size and shifting to the
// nearest open square when the slot is taken.
func (g *Game) spawnPositionLocked() grid.Position {
	gr := g.state.Grid
	w, h := gr.Width(), gr.Height()
	slots := []grid.Position{
		{X: 1, Y: 1},
		{X: w - 2, Y: h - 2},
		{X: w - 2, Y: 1},
		{X: 1, Y: h - 2},
		{X: w / 2, Y: 1},
		{X: w / 2, Y: h - 2},
	}
	pos := slots[len(g.state.Characters)%len(slots)]
	if cell := gr.CellAt(pos); cell != nil && cell.OccupantID != "" {
		if open, ok := gr.NearestOpen(pos); ok {
			pos = open
		}
	}
	return pos
}

// Start rolls initiative for the whole roster, NPCs included, and
// begins combat.
//
// Postcondition: On success the game is active, the initiative order is
// sorted descending by (initiative, dexterity), the turn index is 0, any
// previous winner is cleared, and the first turn deadline is stamped.
func (g *Game) Start(ctx context.Context) (*StartResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := g.state
	if state.Status != arena.StatusWaiting {
		return nil, ErrAlreadyStarted
	}
	players := 0
	for _, c := range state.CharactersInOrder() {
		if !c.IsNPC {
			players++
		}
	}
	if players < 2 {
		return nil, ErrNotEnoughPlayers
	}

	ranked := state.CharactersInOrder()
	for _, c := range ranked {
		c.Initiative = rules.RollInitiative(c, g.eng.roller)
	}
	sortByInitiativeDesc(ranked)

	order := make([]string, len(ranked))
	lines := make([]string, len(ranked))
	for i, c := range ranked {
		order[i] = c.ID
		lines[i] = fmt.Sprintf("%s (initiative %d)", c.Name, c.Initiative)
	}

	state.InitiativeOrder = order
	state.CurrentTurnIndex = 0
	state.WinnerID = ""
	state.Status = arena.StatusActive
	state.TurnDeadline = g.eng.newDeadline()
	g.persistLocked(ctx)

	g.eng.logger.Info("combat started",
		zap.String("game_id", g.id),
		zap.Int("combatants", len(order)),
	)
	return &StartResult{Message: "Combat started", InitiativeOrder: lines}, nil
}

// Reset forces the game back to the waiting phase for a fresh match.
// Dead characters are removed and survivors keep their state, but unlike
// the transition after a decided combat, the winner and the event log
// are discarded rather than archived.
func (g *Game) Reset(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state := g.state
	g.removeDeadLocked()
	state.InitiativeOrder = nil
	state.CurrentTurnIndex = 0
	state.RoundNumber = 1
	state.TurnDeadline = nil
	state.WinnerID = ""
	state.EventLog = nil
	state.Status = arena.StatusWaiting
	g.persistLocked(ctx)
}

// Snapshot returns a deep copy of the game state for read-side use.
func (g *Game) Snapshot() *arena.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone()
}

// persistLocked saves the current state through the engine's store.
// Persistence is write-behind: failures are logged, never surfaced, and
// the in-memory state stays authoritative.
func (g *Game) persistLocked(ctx context.Context) {
	if g.eng.store == nil {
		return
	}
	if err := g.eng.store.Save(ctx, g.state.Clone()); err != nil {
		g.eng.logger.Error("snapshot save failed",
			zap.String("game_id", g.id),
			zap.Error(err),
		)
	}
}

// sortByInitiativeDesc sorts in place, highest rank first. Insertion
// keeps the sort stable so roster joins break full ties.
func sortByInitiativeDesc(chars []*character.Character) {
	n := len(chars)
	for i := 1; i < n; i++ {
		for j := i; j > 0 && ranksAbove(chars[j], chars[j-1]); j-- {
			chars[j], chars[j-1] = chars[j-1], chars[j]
		}
	}
}

// ranksAbove reports whether a outranks b in the turn order, breaking
// initiative ties by raw dexterity.
func ranksAbove(a, b *character.Character) bool {
	if a.Initiative != b.Initiative {
		return a.Initiative > b.Initiative
	}
	return a.Abilities.Dexterity > b.Abilities.Dexterity
}
