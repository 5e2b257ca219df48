// Package rules implements the tabletop combat rules: ability modifiers,
// initiative, action validation, attack resolution, and damage.
package rules

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/grid"
)

// AbilityModifier computes the standard ability modifier using floor
// division: floor((score - 10) / 2).
//
// Postcondition: Returns floor((score - 10) / 2), so score 7 gives -2.
func AbilityModifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// RollInitiative rolls a combatant's initiative: d20 plus dexterity
// modifier.
func RollInitiative(c *character.Character, roller *dice.Roller) int {
	return roller.RollD20(false, false) + AbilityModifier(c.Abilities.Dexterity)
}

// ValidateAction checks whether an action is legal for the acting
// combatant against the current state. It returns legality plus a
// human-readable reason on rejection. Turn ownership is not checked here;
// that is the action processor's concern.
func ValidateAction(
	actionType arena.ActionType,
	actor *character.Character,
	state *arena.State,
	targetID string,
	targetPosition *grid.Position,
	weaponName string,
) (bool, string) {
	if !actor.IsAlive {
		return false, "Character is dead"
	}
	if actor.Position == nil {
		return false, "Character has no position"
	}

	switch actionType {
	case arena.ActionEndTurn:
		return true, ""

	case arena.ActionMove:
		if targetPosition == nil {
			return false, "Move action requires a target_position"
		}
		return true, ""

	case arena.ActionAttack:
		if targetID == "" {
			return false, "Attack action requires a target_id"
		}
		target := state.Character(targetID)
		if target == nil {
			return false, fmt.Sprintf("Target '%s' not found", targetID)
		}
		if !target.IsAlive {
			return false, "Target is already dead"
		}
		if target.Position == nil {
			return false, "Target has no position"
		}

		if weaponName == "" && len(actor.Attacks) == 0 {
			return false, "Character has no attacks"
		}
		weapon := actor.AttackNamed(weaponName)
		if weapon == nil {
			return false, fmt.Sprintf("Weapon '%s' not found", weaponName)
		}

		dist := state.Grid.DistanceFt(*actor.Position, *target.Position)
		if weapon.IsRanged() {
			if dist > weapon.RangeNormal {
				return false, fmt.Sprintf("Target is out of range (%dft, max %dft)", dist, weapon.RangeNormal)
			}
		} else {
			if dist > weapon.Reach {
				return false, fmt.Sprintf("Target is out of reach (%dft, reach %dft)", dist, weapon.Reach)
			}
		}

		if !state.Grid.LineOfSight(*actor.Position, *target.Position) {
			return false, "No line of sight to target"
		}
		return true, ""

	case arena.ActionDodge, arena.ActionDash, arena.ActionDisengage:
		return true, ""
	}

	return false, fmt.Sprintf("Unknown action type: %s", actionType)
}

// ResolveAttack rolls to hit, rolls damage on a hit, and applies it. A
// dodging target imposes disadvantage on the attack roll. The returned
// result is successful for both hits and misses; a miss is a resolved
// attack, not a failed action.
//
// The error return only fires on a malformed damage dice expression,
// which indicates a bad stat block rather than a player mistake.
func ResolveAttack(
	attacker, target *character.Character,
	weapon *character.Attack,
	roller *dice.Roller,
) (*arena.ActionResult, error) {
	disadvantage := target.HasCondition(character.ConditionDodging)

	attackRoll := roller.RollD20(false, disadvantage)
	totalAttack := attackRoll + weapon.AttackBonus

	hit := totalAttack >= target.ArmorClass
	if !hit {
		description := fmt.Sprintf(
			"%s attacks %s with %s! Roll: %d+%d=%d vs AC %d — MISS!",
			attacker.Name, target.Name, weapon.Name,
			attackRoll, weapon.AttackBonus, totalAttack, target.ArmorClass,
		)
		zero := 0
		hp := target.CurrentHP
		return &arena.ActionResult{
			Success:           true,
			ActionType:        arena.ActionAttack,
			Description:       description,
			AttackRoll:        &totalAttack,
			Hit:               &hit,
			DamageDealt:       &zero,
			TargetHPRemaining: &hp,
		}, nil
	}

	damageRoll, err := roller.RollExpr(weapon.DamageDice)
	if err != nil {
		return nil, fmt.Errorf("weapon %q has invalid damage dice: %w", weapon.Name, err)
	}
	totalDamage := damageRoll.Total() + weapon.DamageBonus
	if totalDamage < 0 {
		totalDamage = 0
	}
	ApplyDamage(target, totalDamage)

	description := fmt.Sprintf(
		"%s attacks %s with %s! Roll: %d+%d=%d vs AC %d — HIT! Damage: %d+%d=%d %s. %s has %d HP remaining.",
		attacker.Name, target.Name, weapon.Name,
		attackRoll, weapon.AttackBonus, totalAttack, target.ArmorClass,
		damageRoll.Total(), weapon.DamageBonus, totalDamage, weapon.DamageType,
		target.Name, target.CurrentHP,
	)
	if !target.IsAlive {
		description += fmt.Sprintf(" %s has been slain!", target.Name)
	}

	hp := target.CurrentHP
	return &arena.ActionResult{
		Success:           true,
		ActionType:        arena.ActionAttack,
		Description:       description,
		AttackRoll:        &totalAttack,
		Hit:               &hit,
		DamageDealt:       &totalDamage,
		TargetHPRemaining: &hp,
	}, nil
}

// ApplyDamage reduces the target's hit points, clamped at zero. A lethal
// hit flips the alive flag. A surviving NPC is marked provoked so its
// controller retaliates on its next turn; a corpse does not retaliate.
func ApplyDamage(c *character.Character, damage int) {
	c.CurrentHP -= damage
	if c.CurrentHP < 0 {
		c.CurrentHP = 0
	}
	if c.CurrentHP <= 0 {
		c.IsAlive = false
		return
	}
	if c.IsNPC {
		c.AddCondition(character.ConditionProvoked)
	}
}
