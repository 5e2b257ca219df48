// Package character defines the combatant domain model shared by the rules
// engine, the NPC controller, and the persistence layer.
package character

import (
	"strings"

	"github.com/cory-johannsen/arena/internal/game/grid"
)

// Condition names attached to combatants during play.
const (
	// ConditionDodging grants attackers disadvantage until the dodger's
	// next turn begins.
	ConditionDodging = "dodging"
	// ConditionProvoked marks an NPC that took damage and will retaliate
	// on its next turn.
	ConditionProvoked = "provoked"
)

// AbilityScores holds the six core ability values for a combatant.
type AbilityScores struct {
	Strength     int `json:"strength" yaml:"strength"`
	Dexterity    int `json:"dexterity" yaml:"dexterity"`
	Constitution int `json:"constitution" yaml:"constitution"`
	Intelligence int `json:"intelligence" yaml:"intelligence"`
	Wisdom       int `json:"wisdom" yaml:"wisdom"`
	Charisma     int `json:"charisma" yaml:"charisma"`
}

// DefaultAbilityScores returns a full set of scores at the baseline of 10.
func DefaultAbilityScores() AbilityScores {
	return AbilityScores{
		Strength: 10, Dexterity: 10, Constitution: 10,
		Intelligence: 10, Wisdom: 10, Charisma: 10,
	}
}

// Attack is a weapon or natural attack a combatant can make. RangeNormal
// zero means a melee attack governed by Reach; nonzero means a ranged
// attack governed by RangeNormal.
type Attack struct {
	Name        string `json:"name" yaml:"name"`
	AttackBonus int    `json:"attack_bonus" yaml:"attack_bonus"`
	DamageDice  string `json:"damage_dice" yaml:"damage_dice"`
	DamageBonus int    `json:"damage_bonus" yaml:"damage_bonus"`
	DamageType  string `json:"damage_type" yaml:"damage_type"`
	Reach       int    `json:"reach" yaml:"reach"`
	RangeNormal int    `json:"range_normal,omitempty" yaml:"range_normal,omitempty"`
	RangeLong   int    `json:"range_long,omitempty" yaml:"range_long,omitempty"`
}

// IsRanged reports whether the attack uses ranged distance rules.
func (a Attack) IsRanged() bool {
	return a.RangeNormal > 0
}

// Character represents one combatant on the battlefield, player-controlled
// or NPC.
//
// Invariant: 0 <= CurrentHP <= MaxHP, and IsAlive is false exactly when
// CurrentHP has reached zero.
type Character struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	OwnerID    string         `json:"owner_id"`
	Abilities  AbilityScores  `json:"ability_scores"`
	MaxHP      int            `json:"max_hp"`
	CurrentHP  int            `json:"current_hp"`
	ArmorClass int            `json:"armor_class"`
	Speed      int            `json:"speed"`
	Position   *grid.Position `json:"position,omitempty"`
	Initiative int            `json:"initiative"`
	IsAlive    bool           `json:"is_alive"`
	Conditions []string       `json:"conditions"`
	Attacks    []Attack       `json:"attacks"`
	IsNPC      bool           `json:"is_npc"`
}

// HasCondition reports whether the named condition is present.
func (c *Character) HasCondition(name string) bool {
	for _, cond := range c.Conditions {
		if cond == name {
			return true
		}
	}
	return false
}

// AddCondition attaches the named condition. Adding a condition the
// combatant already has is a no-op.
func (c *Character) AddCondition(name string) {
	if !c.HasCondition(name) {
		c.Conditions = append(c.Conditions, name)
	}
}

// RemoveCondition detaches the named condition if present.
func (c *Character) RemoveCondition(name string) {
	for i, cond := range c.Conditions {
		if cond == name {
			c.Conditions = append(c.Conditions[:i], c.Conditions[i+1:]...)
			return
		}
	}
}

// ClearConditions drops every condition.
func (c *Character) ClearConditions() {
	c.Conditions = nil
}

// AttackNamed resolves which attack a weapon name refers to. An empty name
// selects the combatant's first attack. Name matching is case-insensitive.
//
// Postcondition: Returns nil when the name does not match, or when the
// name is empty and the combatant has no attacks at all.
func (c *Character) AttackNamed(name string) *Attack {
	if name == "" {
		if len(c.Attacks) == 0 {
			return nil
		}
		return &c.Attacks[0]
	}
	for i := range c.Attacks {
		if strings.EqualFold(c.Attacks[i].Name, name) {
			return &c.Attacks[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the combatant, safe to hand to callers
// outside the engine's lock.
func (c *Character) Clone() *Character {
	dup := *c
	if c.Position != nil {
		pos := *c.Position
		dup.Position = &pos
	}
	if c.Conditions != nil {
		dup.Conditions = append([]string(nil), c.Conditions...)
	}
	if c.Attacks != nil {
		dup.Attacks = append([]Attack(nil), c.Attacks...)
	}
	return &dup
}
