package npc

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/grid"
)

// Spawner places configured NPCs into a game. Spawning is idempotent: a
// template whose named NPC is already alive in the roster is skipped, so
// it is safe to call on game creation and again after every combat.
type Spawner struct {
	templates []*Template
	logger    *zap.Logger
}

// NewSpawner builds a spawner for the given templates, spawned in order.
func NewSpawner(templates []*Template, logger *zap.Logger) *Spawner {
	return &Spawner{templates: templates, logger: logger}
}

// SpawnInto ensures one living NPC per configured template exists in the
// state. The preferred cell is the template's spawn point (grid center
// when unset); if that cell is taken the nearest open cell is used.
func (s *Spawner) SpawnInto(state *arena.State) error {
	for _, tmpl := range s.templates {
		if hasLivingNPC(state, tmpl.Name) {
			continue
		}

		c, err := tmpl.Instantiate(uuid.NewString())
		if err != nil {
			return err
		}

		pos := grid.Position{X: state.Grid.Width() / 2, Y: state.Grid.Height() / 2}
		if tmpl.Spawn != nil {
			pos = grid.Position{X: tmpl.Spawn.X, Y: tmpl.Spawn.Y}
		}
		if cell := state.Grid.CellAt(pos); cell != nil && cell.OccupantID != "" {
			open, ok := state.Grid.NearestOpen(pos)
			if !ok {
				return fmt.Errorf("spawning npc %q: no open cell on the grid", tmpl.Name)
			}
			pos = open
		}

		if err := state.Place(c, pos); err != nil {
			return fmt.Errorf("spawning npc %q: %w", tmpl.Name, err)
		}
		s.logger.Info("npc spawned",
			zap.String("game_id", state.GameID),
			zap.String("character_id", c.ID),
			zap.String("name", c.Name),
			zap.Int("x", pos.X),
			zap.Int("y", pos.Y))
	}
	return nil
}

func hasLivingNPC(state *arena.State, name string) bool {
	for _, c := range state.CharactersInOrder() {
		if c.Name == name && c.IsAlive {
			return true
		}
	}
	return false
}
