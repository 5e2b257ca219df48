// Package grid implements the arena board: terrain, occupancy, distance,
// movement reachability, and line of sight.
package grid

import "fmt"

// Terrain classifies a cell.
type Terrain string

const (
	// TerrainOpen is plain ground costing one square of movement.
	TerrainOpen Terrain = "open"
	// TerrainWall blocks both movement and line of sight.
	TerrainWall Terrain = "wall"
	// TerrainDifficult costs two squares of movement to enter.
	TerrainDifficult Terrain = "difficult"
)

// Position is a cell coordinate. X grows rightward, Y grows downward.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String returns the coordinate in "(x, y)" form.
func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Cell is one square of the board.
//
// Invariant: OccupantID is empty or the id of exactly one living character
// whose Position matches this cell.
type Cell struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Terrain    Terrain `json:"terrain"`
	OccupantID string  `json:"occupant_id,omitempty"`
}

// Grid is a bounded rectangular board indexed Cells[y][x].
type Grid struct {
	SquareSizeFt int      `json:"square_size_ft"`
	Cells        [][]Cell `json:"cells"`
}

// New creates a grid of the given dimensions with all cells open.
//
// Precondition: width >= 1, height >= 1, squareSizeFt >= 1.
func New(width, height, squareSizeFt int) *Grid {
	if width < 1 || height < 1 {
		panic(fmt.Sprintf("grid: invalid dimensions %dx%d", width, height))
	}
	if squareSizeFt < 1 {
		panic(fmt.Sprintf("grid: invalid square size %d", squareSizeFt))
	}
	cells := make([][]Cell, height)
	for y := range cells {
		row := make([]Cell, width)
		for x := range row {
			row[x] = Cell{X: x, Y: y, Terrain: TerrainOpen}
		}
		cells[y] = row
	}
	return &Grid{SquareSizeFt: squareSizeFt, Cells: cells}
}

// Width returns the number of columns.
func (g *Grid) Width() int {
	if len(g.Cells) == 0 {
		return 0
	}
	return len(g.Cells[0])
}

// Height returns the number of rows.
func (g *Grid) Height() int {
	return len(g.Cells)
}

// InBounds reports whether p lies on the board.
func (g *Grid) InBounds(p Position) bool {
	return p.Y >= 0 && p.Y < g.Height() && p.X >= 0 && p.X < g.Width()
}

// CellAt returns the cell at p for mutation, or nil when p is out of bounds.
func (g *Grid) CellAt(p Position) *Cell {
	if !g.InBounds(p) {
		return nil
	}
	return &g.Cells[p.Y][p.X]
}

// SetTerrain replaces the terrain at p.
//
// Precondition: p must be in bounds.
func (g *Grid) SetTerrain(p Position, t Terrain) error {
	cell := g.CellAt(p)
	if cell == nil {
		return fmt.Errorf("grid: position %s is out of bounds", p)
	}
	cell.Terrain = t
	return nil
}

// Occupy marks p as held by occupantID.
//
// Precondition: p in bounds and currently unoccupied.
func (g *Grid) Occupy(p Position, occupantID string) error {
	cell := g.CellAt(p)
	if cell == nil {
		return fmt.Errorf("grid: position %s is out of bounds", p)
	}
	if cell.OccupantID != "" {
		return fmt.Errorf("grid: position %s is already occupied", p)
	}
	cell.OccupantID = occupantID
	return nil
}

// Vacate clears the occupant at p if it matches occupantID. Clearing an
// already-empty or differently-held cell is a no-op.
func (g *Grid) Vacate(p Position, occupantID string) {
	cell := g.CellAt(p)
	if cell != nil && cell.OccupantID == occupantID {
		cell.OccupantID = ""
	}
}

// DistanceFt returns the distance between two positions in feet, using
// Chebyshev distance so a diagonal step costs the same as a cardinal step.
//
// Postcondition: DistanceFt(a,b) == DistanceFt(b,a); zero iff a == b.
func (g *Grid) DistanceFt(a, b Position) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	if dy > dx {
		dx = dy
	}
	return dx * g.SquareSizeFt
}

// IsAdjacent reports whether a and b are within one square of each other,
// diagonals included. A position is adjacent to itself.
func (g *Grid) IsAdjacent(a, b Position) bool {
	return g.DistanceFt(a, b) <= g.SquareSizeFt
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	cells := make([][]Cell, len(g.Cells))
	for y, row := range g.Cells {
		cells[y] = make([]Cell, len(row))
		copy(cells[y], row)
	}
	return &Grid{SquareSizeFt: g.SquareSizeFt, Cells: cells}
}

// NearestOpen returns the first unoccupied non-wall position starting the
// scan at p, shifting column-wise then row-wise with wraparound. The scan
// order is stable so spawn placement is deterministic.
//
// Postcondition: Returns an open position and true, or false if the board
// is completely full.
func (g *Grid) NearestOpen(p Position) (Position, bool) {
	w, h := g.Width(), g.Height()
	for dx := 0; dx < w; dx++ {
		for dy := 0; dy < h; dy++ {
			candidate := Position{X: (p.X + dx) % w, Y: (p.Y + dy) % h}
			cell := g.CellAt(candidate)
			if cell.OccupantID == "" && cell.Terrain != TerrainWall {
				return candidate, true
			}
		}
	}
	return Position{}, false
}
