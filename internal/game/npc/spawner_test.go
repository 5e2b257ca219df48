package npc_test

import (
	"testing"

	"github.com/cory-johannsen/arena/internal/game/arena"
	"github.com/cory-johannsen/arena/internal/game/grid"
	"github.com/cory-johannsen/arena/internal/game/npc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSpawnInto_PlacesAtGridCenter(t *testing.T) {
	state := arena.NewState("g1", "Arena", grid.New(20, 20, 5))
	spawner := npc.NewSpawner([]*npc.Template{golemTemplate(t)}, zap.NewNop())

	require.NoError(t, spawner.SpawnInto(state))

	require.Len(t, state.Characters, 1)
	golem := state.CharactersInOrder()[0]
	assert.Equal(t, "GOLEM", golem.Name)
	assert.True(t, golem.IsNPC)
	assert.Equal(t, npc.OwnerID, golem.OwnerID)
	require.NotNil(t, golem.Position)
	assert.Equal(t, grid.Position{X: 10, Y: 10}, *golem.Position)
	assert.Equal(t, golem.ID, state.Grid.CellAt(*golem.Position).OccupantID)
}

func TestSpawnInto_IsIdempotent(t *testing.T) {
	state := arena.NewState("g1", "Arena", grid.New(20, 20, 5))
	spawner := npc.NewSpawner([]*npc.Template{golemTemplate(t)}, zap.NewNop())

	require.NoError(t, spawner.SpawnInto(state))
	require.NoError(t, spawner.SpawnInto(state))

	assert.Len(t, state.Characters, 1)
}

func TestSpawnInto_ReplacesDeadNPC(t *testing.T) {
	state := arena.NewState("g1", "Arena", grid.New(20, 20, 5))
	spawner := npc.NewSpawner([]*npc.Template{golemTemplate(t)}, zap.NewNop())

	require.NoError(t, spawner.SpawnInto(state))
	first := state.CharactersInOrder()[0]
	first.IsAlive = false

	require.NoError(t, spawner.SpawnInto(state))
	assert.Len(t, state.Characters, 2, "a dead golem does not block a fresh spawn")
}

func TestSpawnInto_OccupiedCenterShiftsToNearestOpen(t *testing.T) {
	state := arena.NewState("g1", "Arena", grid.New(20, 20, 5))
	addFighterAt(t, state, "p1", "owner-1", grid.Position{X: 10, Y: 10})

	spawner := npc.NewSpawner([]*npc.Template{golemTemplate(t)}, zap.NewNop())
	require.NoError(t, spawner.SpawnInto(state))

	var golemPos grid.Position
	for _, c := range state.CharactersInOrder() {
		if c.IsNPC {
			golemPos = *c.Position
		}
	}
	assert.Equal(t, grid.Position{X: 10, Y: 11}, golemPos, "scan shifts down the column first")
}

func TestSpawnInto_ExplicitSpawnPoint(t *testing.T) {
	tmpl := golemTemplate(t)
	tmpl.Spawn = &npc.SpawnPoint{X: 3, Y: 7}

	state := arena.NewState("g1", "Arena", grid.New(20, 20, 5))
	spawner := npc.NewSpawner([]*npc.Template{tmpl}, zap.NewNop())
	require.NoError(t, spawner.SpawnInto(state))

	golem := state.CharactersInOrder()[0]
	assert.Equal(t, grid.Position{X: 3, Y: 7}, *golem.Position)
}
