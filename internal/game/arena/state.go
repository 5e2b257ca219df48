// Package arena holds the shared combat state model: the game lifecycle
// status, the character roster, the initiative order, and the event log
// that every other engine package mutates or reads.
package arena

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/grid"
)

// Status is the lifecycle phase of a game.
type Status string

const (
	// StatusWaiting is the lobby phase where characters join.
	StatusWaiting Status = "waiting"
	// StatusActive means combat is in progress.
	StatusActive Status = "active"
	// StatusCompleted means combat has resolved and a winner (or draw)
	// has been recorded.
	StatusCompleted Status = "completed"
)

// State is the full state of one game.
//
// Invariant: CharacterOrder lists exactly the keys of Characters, in join
// order, so iteration over the roster is deterministic.
type State struct {
	GameID           string                          `json:"game_id"`
	Name             string                          `json:"name"`
	Status           Status                          `json:"status"`
	Grid             *grid.Grid                      `json:"grid"`
	Characters       map[string]*character.Character `json:"characters"`
	CharacterOrder   []string                        `json:"character_order"`
	InitiativeOrder  []string                        `json:"initiative_order"`
	CurrentTurnIndex int                             `json:"current_turn_index"`
	RoundNumber      int                             `json:"round_number"`
	TurnDeadline     *time.Time                      `json:"turn_deadline,omitempty"`
	EventLog         []Event                         `json:"event_log"`
	WinnerID         string                          `json:"winner_id,omitempty"`
	CombatLogHistory [][]Event                       `json:"combat_log_history,omitempty"`
}

// NewState creates a fresh game in the waiting phase with an empty roster.
func NewState(gameID, name string, g *grid.Grid) *State {
	return &State{
		GameID:      gameID,
		Name:        name,
		Status:      StatusWaiting,
		Grid:        g,
		Characters:  make(map[string]*character.Character),
		RoundNumber: 1,
	}
}

// Character returns the roster entry for id, or nil.
func (s *State) Character(id string) *character.Character {
	return s.Characters[id]
}

// AddCharacter appends c to the roster. The caller is responsible for grid
// placement.
func (s *State) AddCharacter(c *character.Character) {
	s.Characters[c.ID] = c
	s.CharacterOrder = append(s.CharacterOrder, c.ID)
}

// Place puts c on the grid at pos and adds it to the roster. A bad
// position here is a bug in the calling layer, not a player mistake, so
// it is returned as an error rather than a structured action failure.
//
// Precondition: pos must be in bounds, unoccupied, and not a wall.
func (s *State) Place(c *character.Character, pos grid.Position) error {
	if !s.Grid.InBounds(pos) {
		return fmt.Errorf("Position %s is out of bounds", pos)
	}
	cell := s.Grid.CellAt(pos)
	if cell.OccupantID != "" {
		return fmt.Errorf("Position %s is already occupied", pos)
	}
	if cell.Terrain == grid.TerrainWall {
		return fmt.Errorf("Position %s is a wall", pos)
	}
	c.Position = &pos
	cell.OccupantID = c.ID
	s.AddCharacter(c)
	return nil
}

// RemoveCharacter drops id from the roster and clears its grid cell.
// Removing an unknown id is a no-op.
func (s *State) RemoveCharacter(id string) {
	c, ok := s.Characters[id]
	if !ok {
		return
	}
	if c.Position != nil {
		s.Grid.Vacate(*c.Position, id)
	}
	delete(s.Characters, id)
	for i, existing := range s.CharacterOrder {
		if existing == id {
			s.CharacterOrder = append(s.CharacterOrder[:i], s.CharacterOrder[i+1:]...)
			break
		}
	}
}

// CharactersInOrder returns the roster in join order.
func (s *State) CharactersInOrder() []*character.Character {
	out := make([]*character.Character, 0, len(s.CharacterOrder))
	for _, id := range s.CharacterOrder {
		if c, ok := s.Characters[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// FindByOwner returns the first roster entry owned by ownerID, or nil.
func (s *State) FindByOwner(ownerID string) *character.Character {
	for _, c := range s.CharactersInOrder() {
		if c.OwnerID == ownerID {
			return c
		}
	}
	return nil
}

// Clone returns a deep copy of the state. Callers can serialize or
// inspect the copy while the original keeps mutating under its own lock.
func (s *State) Clone() *State {
	out := &State{
		GameID:           s.GameID,
		Name:             s.Name,
		Status:           s.Status,
		Grid:             s.Grid.Clone(),
		Characters:       make(map[string]*character.Character, len(s.Characters)),
		CharacterOrder:   append([]string(nil), s.CharacterOrder...),
		InitiativeOrder:  append([]string(nil), s.InitiativeOrder...),
		CurrentTurnIndex: s.CurrentTurnIndex,
		RoundNumber:      s.RoundNumber,
		EventLog:         cloneEvents(s.EventLog),
		WinnerID:         s.WinnerID,
	}
	for id, c := range s.Characters {
		out.Characters[id] = c.Clone()
	}
	if s.TurnDeadline != nil {
		deadline := *s.TurnDeadline
		out.TurnDeadline = &deadline
	}
	if s.CombatLogHistory != nil {
		out.CombatLogHistory = make([][]Event, len(s.CombatLogHistory))
		for i, log := range s.CombatLogHistory {
			out.CombatLogHistory[i] = cloneEvents(log)
		}
	}
	return out
}

// CurrentTurnCharacter returns the combatant whose turn it is. Outside
// active combat there is no turn-holder, so it returns nil, which is what
// makes any action submitted to a waiting or completed game fail the turn
// check.
func (s *State) CurrentTurnCharacter() *character.Character {
	if s.Status != StatusActive {
		return nil
	}
	if len(s.InitiativeOrder) == 0 {
		return nil
	}
	if s.CurrentTurnIndex < 0 || s.CurrentTurnIndex >= len(s.InitiativeOrder) {
		return nil
	}
	return s.Characters[s.InitiativeOrder[s.CurrentTurnIndex]]
}
