package grid

import "fmt"

// Move relocates the occupant at start to target after validating the
// destination and the movement budget. The distance check is straight-line
// Chebyshev distance against budgetFt.
//
// Precondition: start holds occupantID.
// Postcondition: On success start is vacated, target holds occupantID, and
// the returned path is [start, target]. On error the board is unchanged.
func (g *Grid) Move(occupantID string, start, target Position, budgetFt int) ([]Position, error) {
	if !g.InBounds(target) {
		return nil, fmt.Errorf("Target position %s is out of bounds", target)
	}
	cell := g.CellAt(target)
	if cell.Terrain == TerrainWall {
		return nil, fmt.Errorf("Cannot move into a wall")
	}
	if cell.OccupantID != "" {
		return nil, fmt.Errorf("Target square is occupied")
	}
	dist := g.DistanceFt(start, target)
	if dist > budgetFt {
		return nil, fmt.Errorf("Not enough movement: need %dft, have %dft remaining", dist, budgetFt)
	}

	g.Vacate(start, occupantID)
	cell.OccupantID = occupantID
	return []Position{start, target}, nil
}
