package npc

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/character"
)

// Controller decides the turns of server-controlled combatants. It holds
// the loaded templates so an NPC's behavior is dispatched by the template
// it was spawned from.
type Controller struct {
	byName map[string]*Template
	logger *zap.Logger
}

// NewController builds a controller over the given templates.
//
// Precondition: logger must not be nil.
func NewController(templates []*Template, logger *zap.Logger) *Controller {
	byName := make(map[string]*Template, len(templates))
	for _, tmpl := range templates {
		byName[tmpl.Name] = tmpl
	}
	return &Controller{byName: byName, logger: logger}
}

// DecideTurn returns the action an NPC takes on its turn. An NPC with no
// matching template, or whose archetype has nothing to do, simply ends
// its turn.
//
// Postcondition: The returned request is never nil and always carries the
// NPC's own character id.
func (c *Controller) DecideTurn(npc *character.Character, state *arena.State) *arena.ActionRequest {
	tmpl := c.byName[npc.Name]
	if tmpl == nil {
		c.logger.Warn("npc has no template, ending turn",
			zap.String("game_id", state.GameID),
			zap.String("character_id", npc.ID),
			zap.String("name", npc.Name))
		return endTurn(npc)
	}

	switch tmpl.Archetype {
	case ArchetypeStationaryGuardian:
		return c.guardianTurn(npc, state)
	}
	return endTurn(npc)
}

// guardianTurn retaliates once per provocation: the first adjacent living
// enemy in roster order is struck, and the provoked flag is cleared
// whether or not anyone was in reach.
func (c *Controller) guardianTurn(npc *character.Character, state *arena.State) *arena.ActionRequest {
	if !npc.HasCondition(character.ConditionProvoked) {
		return endTurn(npc)
	}

	for _, other := range state.CharactersInOrder() {
		if other.ID == npc.ID || !other.IsAlive {
			continue
		}
		if other.Position == nil || npc.Position == nil {
			continue
		}
		if state.Grid.IsAdjacent(*npc.Position, *other.Position) {
			npc.RemoveCondition(character.ConditionProvoked)
			c.logger.Debug("guardian retaliates",
				zap.String("game_id", state.GameID),
				zap.String("character_id", npc.ID),
				zap.String("target_id", other.ID))
			return &arena.ActionRequest{
				CharacterID: npc.ID,
				ActionType:  arena.ActionAttack,
				TargetID:    other.ID,
			}
		}
	}

	// Provoked but nobody adjacent: the grudge expires unspent.
	npc.RemoveCondition(character.ConditionProvoked)
	return endTurn(npc)
}

func endTurn(npc *character.Character) *arena.ActionRequest {
	return &arena.ActionRequest{
		CharacterID: npc.ID,
		ActionType:  arena.ActionEndTurn,
	}
}
