package npc_test

import (
	"testing"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/character"
	"github.com/cory-johannsen/arena/internal/game/grid"
	"github.com/cory-johannsen/arena/internal/game/npc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func golemTemplate(t *testing.T) *npc.Template {
	t.Helper()
	tmpl, err := npc.LoadTemplateFromBytes([]byte(golemYAML))
	require.NoError(t, err)
	return tmpl
}

func newController(t *testing.T) *npc.Controller {
	t.Helper()
	return npc.NewController([]*npc.Template{golemTemplate(t)}, zap.NewNop())
}

func spawnGolemAt(t *testing.T, state *arena.State, pos grid.Position) *character.Character {
	t.Helper()
	golem, err := golemTemplate(t).Instantiate("golem-1")
	require.NoError(t, err)
	require.NoError(t, state.Place(golem, pos))
	return golem
}

func addFighterAt(t *testing.T, state *arena.State, id, owner string, pos grid.Position) *character.Character {
	t.Helper()
	c, err := character.Build(id, owner, character.Sheet{
		Name:       "Fighter " + id,
		Abilities:  character.DefaultAbilityScores(),
		MaxHP:      20,
		ArmorClass: 14,
		Speed:      30,
		Attacks: []character.Attack{
			{Name: "Sword", AttackBonus: 4, DamageDice: "1d8", DamageBonus: 2, DamageType: "slashing"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, state.Place(c, pos))
	return c
}

func TestDecideTurn_UnprovokedGuardianPasses(t *testing.T) {
	state := arena.NewState("g1", "Arena", grid.New(10, 10, 5))
	golem := spawnGolemAt(t, state, grid.Position{X: 5, Y: 5})
	addFighterAt(t, state, "p1", "owner-1", grid.Position{X: 5, Y: 6})

	req := newController(t).DecideTurn(golem, state)
	require.NotNil(t, req)
	assert.Equal(t, arena.ActionEndTurn, req.ActionType)
	assert.Equal(t, "golem-1", req.CharacterID)
}

func TestDecideTurn_ProvokedGuardianStrikesAdjacentEnemy(t *testing.T) {
	state := arena.NewState("g1", "Arena", grid.New(10, 10, 5))
	golem := spawnGolemAt(t, state, grid.Position{X: 5, Y: 5})
	enemy := addFighterAt(t, state, "p1", "owner-1", grid.Position{X: 6, Y: 6})
	golem.AddCondition(character.ConditionProvoked)

	req := newController(t).DecideTurn(golem, state)
	require.NotNil(t, req)
	assert.Equal(t, arena.ActionAttack, req.ActionType)
	assert.Equal(t, enemy.ID, req.TargetID)
	assert.Equal(t, "golem-1", req.CharacterID)
	assert.False(t, golem.HasCondition(character.ConditionProvoked), "one retaliation per provocation")
}

func TestDecideTurn_ProvokedGuardianPicksFirstInRosterOrder(t *testing.T) {
	state := arena.NewState("g1", "Arena", grid.New(10, 10, 5))
	golem := spawnGolemAt(t, state, grid.Position{X: 5, Y: 5})
	first := addFighterAt(t, state, "p1", "owner-1", grid.Position{X: 4, Y: 5})
	addFighterAt(t, state, "p2", "owner-2", grid.Position{X: 6, Y: 5})
	golem.AddCondition(character.ConditionProvoked)

	req := newController(t).DecideTurn(golem, state)
	assert.Equal(t, first.ID, req.TargetID)
}

func TestDecideTurn_ProvokedGuardianSkipsDeadNeighbors(t *testing.T) {
	state := arena.NewState("g1", "Arena", grid.New(10, 10, 5))
	golem := spawnGolemAt(t, state, grid.Position{X: 5, Y: 5})
	corpse := addFighterAt(t, state, "p1", "owner-1", grid.Position{X: 4, Y: 5})
	corpse.IsAlive = false
	living := addFighterAt(t, state, "p2", "owner-2", grid.Position{X: 6, Y: 5})
	golem.AddCondition(character.ConditionProvoked)

	req := newController(t).DecideTurn(golem, state)
	assert.Equal(t, arena.ActionAttack, req.ActionType)
	assert.Equal(t, living.ID, req.TargetID)
}

func TestDecideTurn_ProvokedWithNothingAdjacentClearsAndPasses(t *testing.T) {
	state := arena.NewState("g1", "Arena", grid.New(10, 10, 5))
	golem := spawnGolemAt(t, state, grid.Position{X: 5, Y: 5})
	addFighterAt(t, state, "p1", "owner-1", grid.Position{X: 0, Y: 0})
	golem.AddCondition(character.ConditionProvoked)

	req := newController(t).DecideTurn(golem, state)
	assert.Equal(t, arena.ActionEndTurn, req.ActionType)
	assert.False(t, golem.HasCondition(character.ConditionProvoked), "the grudge expires unspent")
}

func TestDecideTurn_UnknownTemplatePasses(t *testing.T) {
	state := arena.NewState("g1", "Arena", grid.New(10, 10, 5))
	stray, err := character.Build("stray-1", npc.OwnerID, character.Sheet{
		Name: "Mimic", MaxHP: 10, ArmorClass: 10, Speed: 0,
	})
	require.NoError(t, err)
	stray.IsNPC = true
	require.NoError(t, state.Place(stray, grid.Position{X: 2, Y: 2}))
	stray.AddCondition(character.ConditionProvoked)

	req := newController(t).DecideTurn(stray, state)
	assert.Equal(t, arena.ActionEndTurn, req.ActionType)
}
