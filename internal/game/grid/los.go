package grid

// LineOfSight reports whether a can see b. A Bresenham line is traced from
// a to b and only intermediate wall cells block; the two endpoints never
// do, so standing in a doorway does not blind the occupant.
//
// Postcondition: Same-cell and adjacent-cell sight is always true.
func (g *Grid) LineOfSight(a, b Position) bool {
	x0, y0 := a.X, a.Y
	x1, y1 := b.X, b.Y

	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy < 0 {
		dy = -dy
	}
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		cur := Position{X: x0, Y: y0}
		if cur != a && cur != b {
			if cell := g.CellAt(cur); cell != nil && cell.Terrain == TerrainWall {
				return false
			}
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
	return true
}
