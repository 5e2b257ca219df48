// Package npc provides NPC templates, spawning, and the server-side
// controller that plays NPC turns.
package npc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/dice"
)

// OwnerID is the reserved owning identity for all server NPCs. No real
// player token ever maps to it.
const OwnerID = "__npc__"

// Archetypes dispatched by the controller. New behaviors are added as new
// archetype cases, not as a generic planner.
const (
	// ArchetypeStationaryGuardian stands still and retaliates once per
	// provocation against the first adjacent living enemy.
	ArchetypeStationaryGuardian = "stationary_guardian"
)

// SpawnPoint is an explicit grid coordinate for a template's spawn.
type SpawnPoint struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Template defines a reusable NPC archetype loaded from YAML.
type Template struct {
	ID          string                  `yaml:"id"`
	Name        string                  `yaml:"name"`
	Description string                  `yaml:"description"`
	Archetype   string                  `yaml:"archetype"`
	Abilities   character.AbilityScores `yaml:"abilities"`
	MaxHP       int                     `yaml:"max_hp"`
	AC          int                     `yaml:"ac"`
	Speed       int                     `yaml:"speed"`
	Attacks     []character.Attack      `yaml:"attacks"`
	// Spawn is the preferred placement. Nil means the grid center.
	Spawn *SpawnPoint `yaml:"spawn"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID, Name, and a known Archetype are set,
// MaxHP >= 1, AC >= 1, Speed >= 0, and every attack has a parseable
// damage dice expression; returns an error on the first violation.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	switch t.Archetype {
	case ArchetypeStationaryGuardian:
	default:
		return fmt.Errorf("npc template %q: unknown archetype %q", t.ID, t.Archetype)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("npc template %q: max_hp must be >= 1", t.ID)
	}
	if t.AC < 1 {
		return fmt.Errorf("npc template %q: ac must be >= 1", t.ID)
	}
	if t.Speed < 0 {
		return fmt.Errorf("npc template %q: speed must not be negative", t.ID)
	}
	for _, atk := range t.Attacks {
		if atk.Name == "" {
			return fmt.Errorf("npc template %q: attack name must not be empty", t.ID)
		}
		if _, err := dice.Parse(atk.DamageDice); err != nil {
			return fmt.Errorf("npc template %q: attack %q: %w", t.ID, atk.Name, err)
		}
	}
	return nil
}

// Instantiate creates a fresh living combatant from the template.
//
// Postcondition: The character is owned by OwnerID, flagged as an NPC, at
// full HP, and unplaced.
func (t *Template) Instantiate(id string) (*character.Character, error) {
	c, err := character.Build(id, OwnerID, character.Sheet{
		Name:       t.Name,
		Abilities:  t.Abilities,
		MaxHP:      t.MaxHP,
		ArmorClass: t.AC,
		Speed:      t.Speed,
		Attacks:    t.Attacks,
	})
	if err != nil {
		return nil, fmt.Errorf("instantiating npc template %q: %w", t.ID, err)
	}
	c.IsNPC = true
	return c, nil
}

// LoadTemplateFromBytes parses a single NPC template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed
// templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
