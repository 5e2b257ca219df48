package character

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/dice"
)

// Sheet is the caller-supplied template for a new combatant: the stats a
// player registers with, or an NPC template's stat block.
type Sheet struct {
	Name       string
	Abilities  AbilityScores
	MaxHP      int
	ArmorClass int
	Speed      int
	Attacks    []Attack
}

// Build constructs a living, unplaced combatant from a sheet. Attack reach
// defaults to 5ft when unset, and every damage dice expression is checked
// up front so a bad stat block fails at registration rather than mid-swing.
//
// Precondition: id and ownerID must be non-empty.
// Postcondition: Returns a Character at full HP with no position and no
// conditions, or a non-nil error describing the first invalid field.
func Build(id, ownerID string, sheet Sheet) (*Character, error) {
	if id == "" {
		return nil, errors.New("character id must not be empty")
	}
	if ownerID == "" {
		return nil, errors.New("character owner id must not be empty")
	}
	if sheet.Name == "" {
		return nil, errors.New("character name must not be empty")
	}
	if sheet.MaxHP < 1 {
		return nil, fmt.Errorf("character max hp must be at least 1, got %d", sheet.MaxHP)
	}
	if sheet.ArmorClass < 1 {
		return nil, fmt.Errorf("character armor class must be at least 1, got %d", sheet.ArmorClass)
	}
	if sheet.Speed < 0 {
		return nil, fmt.Errorf("character speed must not be negative, got %d", sheet.Speed)
	}

	attacks := make([]Attack, len(sheet.Attacks))
	for i, atk := range sheet.Attacks {
		if atk.Name == "" {
			return nil, fmt.Errorf("attack %d has no name", i)
		}
		if _, err := dice.Parse(atk.DamageDice); err != nil {
			return nil, fmt.Errorf("attack %q has invalid damage dice: %w", atk.Name, err)
		}
		if atk.Reach == 0 {
			atk.Reach = 5
		}
		attacks[i] = atk
	}

	return &Character{
		ID:         id,
		Name:       sheet.Name,
		OwnerID:    ownerID,
		Abilities:  sheet.Abilities,
		MaxHP:      sheet.MaxHP,
		CurrentHP:  sheet.MaxHP,
		ArmorClass: sheet.ArmorClass,
		Speed:      sheet.Speed,
		IsAlive:    true,
		Attacks:    attacks,
	}, nil
}
