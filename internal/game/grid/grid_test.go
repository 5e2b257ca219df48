package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewGridAllOpen(t *testing.T) {
	g := New(4, 3, 5)
	require.Equal(t, 4, g.Width())
	require.Equal(t, 3, g.Height())
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			cell := g.CellAt(Position{X: x, Y: y})
			require.NotNil(t, cell)
			assert.Equal(t, TerrainOpen, cell.Terrain)
			assert.Empty(t, cell.OccupantID)
			assert.Equal(t, x, cell.X)
			assert.Equal(t, y, cell.Y)
		}
	}
}

func TestNewGridPanicsOnInvalidDimensions(t *testing.T) {
	assert.Panics(t, func() { New(0, 3, 5) })
	assert.Panics(t, func() { New(3, 0, 5) })
	assert.Panics(t, func() { New(3, 3, 0) })
}

func TestInBounds(t *testing.T) {
	g := New(10, 8, 5)
	tests := []struct {
		name string
		pos  Position
		want bool
	}{
		{name: "origin", pos: Position{X: 0, Y: 0}, want: true},
		{name: "far corner", pos: Position{X: 9, Y: 7}, want: true},
		{name: "x too large", pos: Position{X: 10, Y: 0}, want: false},
		{name: "y too large", pos: Position{X: 0, Y: 8}, want: false},
		{name: "negative x", pos: Position{X: -1, Y: 0}, want: false},
		{name: "negative y", pos: Position{X: 0, Y: -1}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.InBounds(tt.pos))
		})
	}
}

func TestDistanceFt(t *testing.T) {
	g := New(20, 20, 5)
	tests := []struct {
		name string
		a, b Position
		want int
	}{
		{name: "same square", a: Position{X: 3, Y: 3}, b: Position{X: 3, Y: 3}, want: 0},
		{name: "one east", a: Position{X: 3, Y: 3}, b: Position{X: 4, Y: 3}, want: 5},
		{name: "one diagonal", a: Position{X: 3, Y: 3}, b: Position{X: 4, Y: 4}, want: 5},
		{name: "three north", a: Position{X: 5, Y: 5}, b: Position{X: 5, Y: 2}, want: 15},
		{name: "knight shape", a: Position{X: 0, Y: 0}, b: Position{X: 2, Y: 1}, want: 10},
		{name: "long diagonal", a: Position{X: 0, Y: 0}, b: Position{X: 19, Y: 19}, want: 95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.DistanceFt(tt.a, tt.b))
			assert.Equal(t, tt.want, g.DistanceFt(tt.b, tt.a))
		})
	}
}

func TestIsAdjacent(t *testing.T) {
	g := New(10, 10, 5)
	center := Position{X: 5, Y: 5}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			assert.True(t, g.IsAdjacent(center, Position{X: 5 + dx, Y: 5 + dy}))
		}
	}
	assert.False(t, g.IsAdjacent(center, Position{X: 7, Y: 5}))
	assert.False(t, g.IsAdjacent(center, Position{X: 7, Y: 7}))
}

func TestOccupyAndVacate(t *testing.T) {
	g := New(5, 5, 5)
	pos := Position{X: 2, Y: 2}

	require.NoError(t, g.Occupy(pos, "alice"))
	assert.Equal(t, "alice", g.CellAt(pos).OccupantID)

	err := g.Occupy(pos, "bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already occupied")

	// Vacating with the wrong id leaves the cell held.
	g.Vacate(pos, "bob")
	assert.Equal(t, "alice", g.CellAt(pos).OccupantID)

	g.Vacate(pos, "alice")
	assert.Empty(t, g.CellAt(pos).OccupantID)
}

func TestOccupyOutOfBounds(t *testing.T) {
	g := New(5, 5, 5)
	err := g.Occupy(Position{X: 9, Y: 9}, "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of bounds")
}

func TestReachableCoversOpenBoard(t *testing.T) {
	g := New(10, 10, 5)
	start := Position{X: 5, Y: 5}
	require.NoError(t, g.Occupy(start, "mover"))

	reachable := g.Reachable(start, 30)

	set := make(map[Position]bool, len(reachable))
	for _, p := range reachable {
		set[p] = true
	}
	assert.False(t, set[start], "start square is not a destination")
	assert.True(t, set[Position{X: 5, Y: 0}], "six squares straight north is in budget")
	assert.True(t, set[Position{X: 0, Y: 0}], "five-square diagonal is in budget")
	// Every other square of a 10x10 board is within six Chebyshev squares
	// of the center.
	assert.Len(t, reachable, 99)
}

func TestReachableBlockedByWallsAndOccupants(t *testing.T) {
	g := New(5, 5, 5)
	start := Position{X: 0, Y: 0}
	require.NoError(t, g.Occupy(start, "mover"))
	require.NoError(t, g.SetTerrain(Position{X: 1, Y: 0}, TerrainWall))
	require.NoError(t, g.Occupy(Position{X: 0, Y: 1}, "blocker"))

	reachable := g.Reachable(start, 10)

	set := make(map[Position]bool, len(reachable))
	for _, p := range reachable {
		set[p] = true
	}
	assert.False(t, set[Position{X: 1, Y: 0}], "walls are never destinations")
	assert.False(t, set[Position{X: 0, Y: 1}], "occupied squares are never destinations")
	assert.True(t, set[Position{X: 1, Y: 1}], "diagonal slips past both blockers")
	assert.True(t, set[Position{X: 2, Y: 0}], "route around the wall exists")
}

func TestReachableDifficultTerrainCostsDouble(t *testing.T) {
	// A 1x4 corridor of difficult terrain: budget of two squares only
	// enters the first difficult cell.
	g := New(4, 1, 5)
	start := Position{X: 0, Y: 0}
	for x := 1; x < 4; x++ {
		require.NoError(t, g.SetTerrain(Position{X: x, Y: 0}, TerrainDifficult))
	}

	reachable := g.Reachable(start, 10)
	require.Len(t, reachable, 1)
	assert.Equal(t, Position{X: 1, Y: 0}, reachable[0])
}

func TestReachableZeroSpeed(t *testing.T) {
	g := New(5, 5, 5)
	assert.Empty(t, g.Reachable(Position{X: 2, Y: 2}, 0))
}

func TestReachableOutOfBoundsStart(t *testing.T) {
	g := New(5, 5, 5)
	assert.Empty(t, g.Reachable(Position{X: 7, Y: 7}, 30))
}

func TestMoveSuccess(t *testing.T) {
	g := New(10, 10, 5)
	start := Position{X: 2, Y: 2}
	target := Position{X: 4, Y: 4}
	require.NoError(t, g.Occupy(start, "alice"))

	path, err := g.Move("alice", start, target, 30)
	require.NoError(t, err)
	assert.Equal(t, []Position{start, target}, path)
	assert.Empty(t, g.CellAt(start).OccupantID)
	assert.Equal(t, "alice", g.CellAt(target).OccupantID)
}

func TestMoveRejections(t *testing.T) {
	g := New(10, 10, 5)
	start := Position{X: 2, Y: 2}
	require.NoError(t, g.Occupy(start, "alice"))
	require.NoError(t, g.SetTerrain(Position{X: 3, Y: 2}, TerrainWall))
	require.NoError(t, g.Occupy(Position{X: 2, Y: 3}, "bob"))

	tests := []struct {
		name    string
		target  Position
		budget  int
		wantErr string
	}{
		{name: "out of bounds", target: Position{X: 20, Y: 2}, budget: 200, wantErr: "out of bounds"},
		{name: "wall", target: Position{X: 3, Y: 2}, budget: 30, wantErr: "Cannot move into a wall"},
		{name: "occupied", target: Position{X: 2, Y: 3}, budget: 30, wantErr: "Target square is occupied"},
		{name: "beyond budget", target: Position{X: 9, Y: 2}, budget: 30, wantErr: "Not enough movement: need 35ft, have 30ft remaining"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Move("alice", start, tt.target, tt.budget)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			// Failed moves leave the board untouched.
			assert.Equal(t, "alice", g.CellAt(start).OccupantID)
		})
	}
}

func TestLineOfSight(t *testing.T) {
	g := New(10, 10, 5)
	require.NoError(t, g.SetTerrain(Position{X: 5, Y: 5}, TerrainWall))

	tests := []struct {
		name string
		a, b Position
		want bool
	}{
		{name: "clear horizontal", a: Position{X: 0, Y: 0}, b: Position{X: 9, Y: 0}, want: true},
		{name: "wall between horizontally", a: Position{X: 3, Y: 5}, b: Position{X: 7, Y: 5}, want: false},
		{name: "wall between diagonally", a: Position{X: 3, Y: 3}, b: Position{X: 7, Y: 7}, want: false},
		{name: "around the wall", a: Position{X: 3, Y: 5}, b: Position{X: 7, Y: 9}, want: true},
		{name: "self", a: Position{X: 2, Y: 2}, b: Position{X: 2, Y: 2}, want: true},
		{name: "adjacent to wall", a: Position{X: 4, Y: 5}, b: Position{X: 4, Y: 6}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.LineOfSight(tt.a, tt.b))
			assert.Equal(t, tt.want, g.LineOfSight(tt.b, tt.a))
		})
	}
}

func TestLineOfSightEndpointWallsDoNotBlock(t *testing.T) {
	g := New(5, 5, 5)
	a := Position{X: 0, Y: 0}
	b := Position{X: 2, Y: 0}
	require.NoError(t, g.SetTerrain(a, TerrainWall))
	require.NoError(t, g.SetTerrain(b, TerrainWall))
	assert.True(t, g.LineOfSight(a, b))

	require.NoError(t, g.SetTerrain(Position{X: 1, Y: 0}, TerrainWall))
	assert.False(t, g.LineOfSight(a, b))
}

func TestNearestOpen(t *testing.T) {
	g := New(4, 4, 5)
	center := Position{X: 2, Y: 2}

	got, ok := g.NearestOpen(center)
	require.True(t, ok)
	assert.Equal(t, center, got)

	require.NoError(t, g.Occupy(center, "golem"))
	got, ok = g.NearestOpen(center)
	require.True(t, ok)
	assert.Equal(t, Position{X: 2, Y: 3}, got, "scan shifts down the column first")
}

func TestNearestOpenFullBoard(t *testing.T) {
	g := New(2, 2, 5)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			require.NoError(t, g.SetTerrain(Position{X: x, Y: y}, TerrainWall))
		}
	}
	_, ok := g.NearestOpen(Position{X: 0, Y: 0})
	assert.False(t, ok)
}

func TestDistanceProperties(t *testing.T) {
	g := New(20, 20, 5)
	rapid.Check(t, func(t *rapid.T) {
		a := Position{
			X: rapid.IntRange(0, 19).Draw(t, "ax"),
			Y: rapid.IntRange(0, 19).Draw(t, "ay"),
		}
		b := Position{
			X: rapid.IntRange(0, 19).Draw(t, "bx"),
			Y: rapid.IntRange(0, 19).Draw(t, "by"),
		}
		d := g.DistanceFt(a, b)
		if d != g.DistanceFt(b, a) {
			t.Fatalf("distance not symmetric: %d vs %d", d, g.DistanceFt(b, a))
		}
		if (d == 0) != (a == b) {
			t.Fatalf("distance %d between %s and %s", d, a, b)
		}
		if d%g.SquareSizeFt != 0 {
			t.Fatalf("distance %d is not a whole number of squares", d)
		}
		if g.IsAdjacent(a, b) != (d <= g.SquareSizeFt) {
			t.Fatalf("adjacency disagrees with distance %d", d)
		}
	})
}

func TestReachableProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := New(8, 8, 5)
		start := Position{
			X: rapid.IntRange(0, 7).Draw(t, "sx"),
			Y: rapid.IntRange(0, 7).Draw(t, "sy"),
		}
		walls := rapid.IntRange(0, 10).Draw(t, "walls")
		for i := 0; i < walls; i++ {
			p := Position{
				X: rapid.IntRange(0, 7).Draw(t, "wx"),
				Y: rapid.IntRange(0, 7).Draw(t, "wy"),
			}
			if p != start {
				_ = g.SetTerrain(p, TerrainWall)
			}
		}
		budget := rapid.IntRange(0, 40).Draw(t, "budget")

		for _, p := range g.Reachable(start, budget) {
			if p == start {
				t.Fatalf("reachable contains start %s", p)
			}
			cell := g.CellAt(p)
			if cell == nil {
				t.Fatalf("reachable contains out-of-bounds %s", p)
			}
			if cell.Terrain == TerrainWall {
				t.Fatalf("reachable contains wall %s", p)
			}
			if g.DistanceFt(start, p) > budget {
				t.Fatalf("reachable contains %s beyond straight-line budget", p)
			}
		}
	})
}

func TestLineOfSightProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := New(10, 10, 5)
		walls := rapid.IntRange(0, 20).Draw(t, "walls")
		for i := 0; i < walls; i++ {
			p := Position{
				X: rapid.IntRange(0, 9).Draw(t, "wx"),
				Y: rapid.IntRange(0, 9).Draw(t, "wy"),
			}
			_ = g.SetTerrain(p, TerrainWall)
		}
		a := Position{
			X: rapid.IntRange(0, 9).Draw(t, "ax"),
			Y: rapid.IntRange(0, 9).Draw(t, "ay"),
		}
		// Self-sight and adjacent sight hold no matter how the board is
		// walled, because only intermediate cells block.
		if !g.LineOfSight(a, a) {
			t.Fatalf("position %s cannot see itself", a)
		}
		dx := rapid.IntRange(-1, 1).Draw(t, "dx")
		dy := rapid.IntRange(-1, 1).Draw(t, "dy")
		b := Position{X: a.X + dx, Y: a.Y + dy}
		if g.InBounds(b) && !g.LineOfSight(a, b) {
			t.Fatalf("adjacent positions %s and %s cannot see each other", a, b)
		}
	})
}
