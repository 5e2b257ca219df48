package grid

// Reachable returns every position a mover standing at start can reach with
// the given movement budget in feet. Entering difficult terrain costs two
// squares, walls and occupied squares block, and diagonal steps cost the
// same as cardinal steps.
//
// Precondition: start must be in bounds.
// Postcondition: The result never contains start, a wall, or an occupied
// square, and is ordered by discovery so repeated calls on the same board
// agree.
func (g *Grid) Reachable(start Position, budgetFt int) []Position {
	if !g.InBounds(start) {
		return nil
	}
	maxSquares := budgetFt / g.SquareSizeFt

	type node struct {
		pos  Position
		cost int
	}
	visited := map[Position]int{start: 0}
	order := make([]Position, 0, maxSquares*maxSquares)
	queue := []node{{pos: start, cost: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				next := Position{X: cur.pos.X + dx, Y: cur.pos.Y + dy}
				if !g.InBounds(next) {
					continue
				}
				cell := g.CellAt(next)
				if cell.Terrain == TerrainWall {
					continue
				}
				if cell.OccupantID != "" && next != start {
					continue
				}
				stepCost := 1
				if cell.Terrain == TerrainDifficult {
					stepCost = 2
				}
				newCost := cur.cost + stepCost
				if newCost > maxSquares {
					continue
				}
				prev, seen := visited[next]
				if !seen || prev > newCost {
					if !seen {
						order = append(order, next)
					}
					visited[next] = newCost
					queue = append(queue, node{pos: next, cost: newCost})
				}
			}
		}
	}
	return order
}
