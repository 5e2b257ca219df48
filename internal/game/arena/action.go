package arena

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/grid"
)

// ActionType enumerates the actions a combatant can take on their turn.
type ActionType string

const (
	ActionMove      ActionType = "move"
	ActionAttack    ActionType = "attack"
	ActionDodge     ActionType = "dodge"
	ActionDash      ActionType = "dash"
	ActionDisengage ActionType = "disengage"
	ActionEndTurn   ActionType = "end_turn"
)

// AllActionTypes returns every action type in declaration order.
func AllActionTypes() []ActionType {
	return []ActionType{
		ActionMove, ActionAttack, ActionDodge,
		ActionDash, ActionDisengage, ActionEndTurn,
	}
}

// ParseActionType converts a wire string into an ActionType.
func ParseActionType(s string) (ActionType, error) {
	switch ActionType(s) {
	case ActionMove, ActionAttack, ActionDodge, ActionDash, ActionDisengage, ActionEndTurn:
		return ActionType(s), nil
	default:
		return "", fmt.Errorf("unknown action type %q", s)
	}
}

// String returns the wire form of the action type.
func (t ActionType) String() string {
	return string(t)
}

// EndsTurn reports whether a successful action of this type passes the
// turn to the next combatant. Movement does not end the turn, so a
// combatant can reposition and still attack.
func (t ActionType) EndsTurn() bool {
	return t != ActionMove
}

// ActionRequest is a combatant's requested action as submitted over the
// wire.
type ActionRequest struct {
	CharacterID    string         `json:"character_id"`
	ActionType     ActionType     `json:"action_type"`
	TargetID       string         `json:"target_id,omitempty"`
	TargetPosition *grid.Position `json:"target_position,omitempty"`
	WeaponName     string         `json:"weapon_name,omitempty"`
}

// ActionResult is what the engine reports after processing an action.
// Pointer fields are only present for the action types they describe.
type ActionResult struct {
	Success           bool            `json:"success"`
	ActionType        ActionType      `json:"action_type"`
	Description       string          `json:"description"`
	AttackRoll        *int            `json:"attack_roll,omitempty"`
	Hit               *bool           `json:"hit,omitempty"`
	DamageDealt       *int            `json:"damage_dealt,omitempty"`
	TargetHPRemaining *int            `json:"target_hp_remaining,omitempty"`
	MovementPath      []grid.Position `json:"movement_path,omitempty"`
	Error             string          `json:"error,omitempty"`
}

// Failure builds the structured result for an action that was rejected.
func Failure(actionType ActionType, reason string) *ActionResult {
	return &ActionResult{
		Success:     false,
		ActionType:  actionType,
		Description: reason,
		Error:       reason,
	}
}
