package grid

// bresenham walks the integer line from a to b and calls visit for every
// cell strictly between the endpoints. Walking stops when visit returns
// false; the result reports whether the walk completed.
func bresenham(a, b Point, visit func(p Point) bool) bool {
	if a == b {
		return true
	}
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
		if x == b.X && y == b.Y {
			return true
		}
		if !visit(Point{X: x, Y: y}) {
			return false
		}
	}
}

// canonical orders two endpoints so a walk between them does not depend on
// argument order.
func canonical(a, b Point) (Point, Point) {
	if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
		return b, a
	}
	return a, b
}

// PathVisible reports whether no cell strictly between from and to is an
// obstacle. Both endpoints must lie inside the grid.
func (g *Grid) PathVisible(from, to Point) bool {
	if !g.Contains(from) || !g.Contains(to) {
		return false
	}
	if from == to {
		return true
	}
	a, b := canonical(from, to)
	return bresenham(a, b, func(p Point) bool {
		return !g.stateAt(p).IsObstacle()
	})
}

// PathVisibleUnrestricted walks from from toward to and reports whether the
// line is unobstructed, where only explored obstacles block. The walk
// succeeds as soon as it reaches the outer wall or leaves the grid, so to
// may lie outside the grid.
func (g *Grid) PathVisibleUnrestricted(from, to Point) bool {
	if !g.Contains(from) {
		return false
	}
	if from == to {
		return true
	}
	visible := true
	bresenham(from, to, func(p Point) bool {
		if !g.Contains(p) || g.ring(p.X, p.Y) == 0 {
			return false
		}
		s := g.stateAt(p)
		if s.IsObstacle() && s.IsExplored() {
			visible = false
			return false
		}
		return true
	})
	return visible
}

// AAPathVisible is a wide-footprint visibility test between cell centres.
// For every step along the major axis it inspects both cells straddled by
// the exact line in the minor axis, so a line cannot slip between two
// diagonally touching obstacles. Integer arithmetic only.
func (g *Grid) AAPathVisible(from, to Point) bool {
	if !g.Contains(from) || !g.Contains(to) {
		return false
	}
	if from == to {
		return true
	}
	a, b := canonical(from, to)
	dx := b.X - a.X
	dy := b.Y - a.Y

	blocked := func(x, y int) bool {
		return g.cells[y*g.width+x].state.IsObstacle()
	}

	if dx >= abs(dy) {
		for x := a.X + 1; x < b.X; x++ {
			num := (x - a.X) * dy
			q, r := floorDivMod(num, dx)
			y := a.Y + q
			if blocked(x, y) {
				return false
			}
			if r != 0 && blocked(x, y+1) {
				return false
			}
		}
		return true
	}

	// steep: walk along y with dy > 0
	if dy < 0 {
		a, b = b, a
		dx, dy = -dx, -dy
	}
	for y := a.Y + 1; y < b.Y; y++ {
		num := (y - a.Y) * dx
		q, r := floorDivMod(num, dy)
		x := a.X + q
		if blocked(x, y) {
			return false
		}
		if r != 0 && blocked(x+1, y) {
			return false
		}
	}
	return true
}

// floorDivMod returns floor(n/d) and the non-negative remainder for d > 0.
func floorDivMod(n, d int) (int, int) {
	q := n / d
	r := n % d
	if r < 0 {
		q--
		r += d
	}
	return q, r
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
