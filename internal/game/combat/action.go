package combat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/rules"
)

// ProcessAction validates and resolves one action for characterID,
// advancing the turn when the action ends it.
//
// Player mistakes (acting out of turn, invalid targets, illegal moves)
// come back as failed ActionResults with a reason. The error return is
// reserved for invariant violations such as a malformed damage dice
// expression on a stat block.
func (g *Game) ProcessAction(ctx context.Context, characterID string, req *arena.ActionRequest) (*arena.ActionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	result, err := g.resolveActionLocked(characterID, req, false)
	if err != nil {
		return nil, err
	}
	g.persistLocked(ctx)
	return result, nil
}

// resolveActionLocked runs the action pipeline: actor lookup, turn
// check, rules validation, dispatch, event logging, then win check and
// turn advancement for turn-ending successes.
//
// bypassTurnCheck is set for NPC turns resolved from inside
// advanceTurnLocked: the NPC never holds the externally visible turn,
// and advancement stays with the caller.
func (g *Game) resolveActionLocked(characterID string, req *arena.ActionRequest, bypassTurnCheck bool) (*arena.ActionResult, error) {
	state := g.state

	actor := state.Character(characterID)
	if actor == nil {
		return arena.Failure(req.ActionType, "Character not found"), nil
	}

	if !bypassTurnCheck {
		current := state.CurrentTurnCharacter()
		if current == nil || current.ID != characterID {
			return arena.Failure(req.ActionType, "It's not your turn"), nil
		}
	}

	if ok, reason := rules.ValidateAction(
		req.ActionType, actor, state,
		req.TargetID, req.TargetPosition, req.WeaponName,
	); !ok {
		return arena.Failure(req.ActionType, reason), nil
	}

	result, err := g.dispatchLocked(actor, req)
	if err != nil {
		return nil, err
	}

	if result.Success {
		state.EventLog = append(state.EventLog, arena.Event{
			Round:       state.RoundNumber,
			CharacterID: characterID,
			ActionType:  req.ActionType.String(),
			Description: result.Description,
			Details: arena.EventDetails{
				AttackRoll:  result.AttackRoll,
				Hit:         result.Hit,
				DamageDealt: result.DamageDealt,
			},
			Timestamp: time.Now().UTC(),
		})
	}

	if result.Success && req.ActionType.EndsTurn() {
		if winnerID, won := checkWinCondition(state); won {
			state.WinnerID = winnerID
			state.Status = arena.StatusCompleted
			g.eng.logger.Info("combat won",
				zap.String("game_id", g.id),
				zap.String("winner_id", winnerID),
			)
			// Straight back to waiting: survivors persist and new
			// characters can join the next match.
			g.endCombatLocked()
		} else if !bypassTurnCheck {
			g.advanceTurnLocked()
		}
	}

	return result, nil
}

// dispatchLocked executes a validated action and builds its result.
func (g *Game) dispatchLocked(actor *character.Character, req *arena.ActionRequest) (*arena.ActionResult, error) {
	state := g.state

	switch req.ActionType {
	case arena.ActionMove:
		target := *req.TargetPosition
		path, err := state.Grid.Move(actor.ID, *actor.Position, target, actor.Speed)
		if err != nil {
			return arena.Failure(arena.ActionMove, err.Error()), nil
		}
		actor.Position = &target
		return &arena.ActionResult{
			Success:      true,
			ActionType:   arena.ActionMove,
			Description:  fmt.Sprintf("%s moves to %s.", actor.Name, target),
			MovementPath: path,
		}, nil

	case arena.ActionAttack:
		target := state.Character(req.TargetID)
		weapon := actor.AttackNamed(req.WeaponName)
		return rules.ResolveAttack(actor, target, weapon, g.eng.roller)

	case arena.ActionDodge:
		actor.AddCondition(character.ConditionDodging)
		return &arena.ActionResult{
			Success:    true,
			ActionType: arena.ActionDodge,
			Description: fmt.Sprintf(
				"%s takes the Dodge action. Attacks against them have disadvantage.",
				actor.Name,
			),
		}, nil

	case arena.ActionDash:
		return &arena.ActionResult{
			Success:    true,
			ActionType: arena.ActionDash,
			Description: fmt.Sprintf(
				"%s takes the Dash action, gaining %dft extra movement.",
				actor.Name, actor.Speed,
			),
		}, nil

	case arena.ActionDisengage:
		return &arena.ActionResult{
			Success:     true,
			ActionType:  arena.ActionDisengage,
			Description: fmt.Sprintf("%s takes the Disengage action.", actor.Name),
		}, nil

	case arena.ActionEndTurn:
		return &arena.ActionResult{
			Success:     true,
			ActionType:  arena.ActionEndTurn,
			Description: fmt.Sprintf("%s ends their turn.", actor.Name),
		}, nil
	}

	return arena.Failure(req.ActionType, "Unknown action type"), nil
}

// advanceTurnLocked hands the turn to the next living player character,
// resolving NPC turns along the way and skipping the dead. Wrapping past
// the end of the order starts a new round. The dodging stance is cleared
// from the character whose turn is ending.
func (g *Game) advanceTurnLocked() {
	state := g.state
	if len(state.InitiativeOrder) == 0 {
		return
	}

	if current := state.CurrentTurnCharacter(); current != nil {
		current.RemoveCondition(character.ConditionDodging)
	}

	orderLen := len(state.InitiativeOrder)
	attempts := 0
	for attempts < orderLen {
		state.CurrentTurnIndex = (state.CurrentTurnIndex + 1) % orderLen
		if state.CurrentTurnIndex == 0 {
			state.RoundNumber++
		}

		next := state.Character(state.InitiativeOrder[state.CurrentTurnIndex])
		if next != nil && next.IsAlive {
			if next.IsNPC {
				g.resolveNPCTurnLocked(next)
				if state.Status != arena.StatusActive {
					// The NPC's action decided the combat. The order has
					// been torn down, so there is no next turn to stamp.
					return
				}
				attempts++
				continue
			}
			break
		}
		attempts++
	}

	state.TurnDeadline = g.eng.newDeadline()
}

// resolveNPCTurnLocked lets the NPC controller pick an action and runs
// it with the turn check bypassed.
func (g *Game) resolveNPCTurnLocked(npcChar *character.Character) {
	req := g.eng.controller.DecideTurn(npcChar, g.state)
	result, err := g.resolveActionLocked(npcChar.ID, req, true)
	if err != nil {
		g.eng.logger.Error("npc turn failed",
			zap.String("game_id", g.id),
			zap.String("character_id", npcChar.ID),
			zap.Error(err),
		)
		return
	}
	if !result.Success {
		g.eng.logger.Warn("npc action rejected",
			zap.String("game_id", g.id),
			zap.String("character_id", npcChar.ID),
			zap.String("reason", result.Error),
		)
	}
}

// checkWinCondition reports the winning owner once exactly one owner has
// living player characters. NPCs are scenery, not a team. With zero
// living owners the fight is a draw and nobody wins.
func checkWinCondition(state *arena.State) (string, bool) {
	owners := make(map[string]bool)
	for _, c := range state.CharactersInOrder() {
		if c.IsAlive && !c.IsNPC {
			owners[c.OwnerID] = true
		}
	}
	if len(owners) != 1 {
		return "", false
	}
	for owner := range owners {
		return owner, true
	}
	return "", false
}

// removeDeadLocked clears every dead character from the roster and the
// grid.
func (g *Game) removeDeadLocked() {
	var deadIDs []string
	for _, c := range g.state.CharactersInOrder() {
		if !c.IsAlive {
			deadIDs = append(deadIDs, c.ID)
		}
	}
	for _, id := range deadIDs {
		g.state.RemoveCharacter(id)
	}
}

// endCombatLocked transitions a decided combat back to the waiting
// phase. The world persists: dead characters are removed, survivors keep
// their state, NPCs heal to full, the combat log is archived, and fallen
// NPCs respawn. The winner stays recorded until the next combat starts.
func (g *Game) endCombatLocked() {
	state := g.state

	g.removeDeadLocked()

	for _, c := range state.CharactersInOrder() {
		if c.IsNPC {
			c.CurrentHP = c.MaxHP
			c.ClearConditions()
		}
	}

	if len(state.EventLog) > 0 {
		archived := make([]arena.Event, len(state.EventLog))
		copy(archived, state.EventLog)
		state.CombatLogHistory = append(state.CombatLogHistory, archived)
		state.EventLog = nil
	}

	state.InitiativeOrder = nil
	state.CurrentTurnIndex = 0
	state.RoundNumber = 1
	state.TurnDeadline = nil
	state.Status = arena.StatusWaiting

	if err := g.eng.spawner.SpawnInto(state); err != nil {
		g.eng.logger.Error("npc respawn failed",
			zap.String("game_id", g.id),
			zap.Error(err),
		)
	}
}
