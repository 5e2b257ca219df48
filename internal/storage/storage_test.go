package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/grid"
	"github.com/cory-johannsen/arena/internal/storage"
)

// richState builds a mid-combat snapshot touching every serialized
// field: occupied cells, a wall, conditions, event details, archived
// logs, a winner, and a turn deadline.
func richState(t *testing.T) *arena.State {
	t.Helper()
	g := grid.New(20, 20, 5)
	g.CellAt(grid.Position{X: 4, Y: 4}).Terrain = grid.TerrainWall

	state := arena.NewState("game-1", "Test Arena", g)

	alice := &character.Character{
		ID:         "char-alice",
		Name:       "Alice",
		OwnerID:    "owner-a",
		Abilities:  character.AbilityScores{Strength: 14, Dexterity: 16, Constitution: 12, Intelligence: 10, Wisdom: 10, Charisma: 8},
		MaxHP:      20,
		CurrentHP:  13,
		ArmorClass: 15,
		Speed:      30,
		Initiative: 18,
		IsAlive:    true,
		Conditions: []string{"dodging"},
		Attacks: []character.Attack{
			{Name: "Longsword", AttackBonus: 4, DamageDice: "1d8", DamageBonus: 2, DamageType: "slashing", Reach: 5},
		},
	}
	golem := &character.Character{
		ID:         "char-golem",
		Name:       "GOLEM",
		OwnerID:    "",
		Abilities:  character.AbilityScores{Strength: 22, Dexterity: 9, Constitution: 20, Intelligence: 3, Wisdom: 11, Charisma: 1},
		MaxHP:      100,
		CurrentHP:  93,
		ArmorClass: 8,
		Speed:      20,
		Initiative: -1,
		IsAlive:    true,
		Attacks: []character.Attack{
			{Name: "Stone Fist", AttackBonus: 6, DamageDice: "1d10", DamageBonus: 0, DamageType: "bludgeoning", Reach: 5},
		},
		IsNPC: true,
	}
	require.NoError(t, state.Place(golem, grid.Position{X: 10, Y: 10}))
	require.NoError(t, state.Place(alice, grid.Position{X: 1, Y: 1}))

	state.Status = arena.StatusActive
	state.InitiativeOrder = []string{"char-alice", "char-golem"}
	state.CurrentTurnIndex = 1
	state.RoundNumber = 3
	deadline := time.Date(2026, 8, 25, 12, 30, 0, 0, time.UTC)
	state.TurnDeadline = &deadline

	roll, hit, dmg := 19, true, 7
	state.EventLog = []arena.Event{
		{
			Round:       2,
			CharacterID: "char-alice",
			ActionType:  "attack",
			Description: "Alice attacks GOLEM with Longsword! Roll: 15+4=19 vs AC 8 — HIT! Damage: 5+2=7 slashing. GOLEM has 93 HP remaining.",
			Details:     arena.EventDetails{AttackRoll: &roll, Hit: &hit, DamageDealt: &dmg},
			Timestamp:   time.Date(2026, 8, 25, 12, 29, 40, 0, time.UTC),
		},
	}
	state.CombatLogHistory = [][]arena.Event{
		{
			{
				Round:       1,
				CharacterID: "char-alice",
				ActionType:  "end_turn",
				Description: "Alice ends their turn.",
				Timestamp:   time.Date(2026, 8, 25, 11, 0, 0, 0, time.UTC),
			},
		},
	}
	state.WinnerID = "owner-a"
	return state
}

// TestEncodeDecodeRoundTrip verifies that a full snapshot survives the
// codec without losing any field.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	state := richState(t)

	data, err := storage.EncodeState(state)
	require.NoError(t, err)

	decoded, err := storage.DecodeState(data)
	require.NoError(t, err)
	require.Equal(t, state, decoded)

	cell := decoded.Grid.CellAt(grid.Position{X: 10, Y: 10})
	assert.Equal(t, "char-golem", cell.OccupantID)
	assert.Equal(t, grid.TerrainWall, decoded.Grid.CellAt(grid.Position{X: 4, Y: 4}).Terrain)
}

// TestEncodeStateRejectsInvalid covers the encoder preconditions.
func TestEncodeStateRejectsInvalid(t *testing.T) {
	_, err := storage.EncodeState(nil)
	require.Error(t, err)

	_, err = storage.EncodeState(&arena.State{})
	require.Error(t, err)
}

// TestDecodeStateRejectsMalformed verifies that truncated or empty
// payloads are reported instead of yielding a half-built state.
func TestDecodeStateRejectsMalformed(t *testing.T) {
	_, err := storage.DecodeState([]byte("{not json"))
	require.Error(t, err)

	_, err = storage.DecodeState([]byte(`{"name":"missing id"}`))
	require.Error(t, err)
}

// TestDecodeStateNormalizesNilCharacters verifies that a snapshot with
// a null roster decodes to a usable map so restored games accept joins.
func TestDecodeStateNormalizesNilCharacters(t *testing.T) {
	decoded, err := storage.DecodeState([]byte(`{"game_id":"g1","characters":null}`))
	require.NoError(t, err)
	require.NotNil(t, decoded.Characters)
	assert.Empty(t, decoded.Characters)
}
