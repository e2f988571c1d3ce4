package grid

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r2"
)

var neighbors8 = [8]Point{
	{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
}

// Neighbors8 returns the offsets of the 8-connected neighbourhood.
func Neighbors8() [8]Point {
	return neighbors8
}

// cornersInDisc counts the corners of b that lie inside the disc.
func cornersInDisc(b orb.Bound, center r2.Vec, radius float64) int {
	r2max := radius * radius
	n := 0
	for _, c := range [4]orb.Point{b.Min, {b.Max[0], b.Min[1]}, b.Max, {b.Min[0], b.Max[1]}} {
		dx := c[0] - center.X
		dy := c[1] - center.Y
		if dx*dx+dy*dy <= r2max {
			n++
		}
	}
	return n
}

// ExploreCell classifies target as seen from the centre of center with the
// given sensing radius. A fully covered target becomes targetState; a
// partially covered one becomes Frontier, or targetState if it is an
// obstacle. Nothing changes without a clear line of sight.
func (g *Grid) ExploreCell(center, target Point, radius float64, targetState State) (bool, error) {
	if !g.Contains(center) {
		return false, fmt.Errorf("%w: centre (%d, %d)", ErrOutOfBounds, center.X, center.Y)
	}
	if !g.Contains(target) {
		return false, fmt.Errorf("%w: target (%d, %d)", ErrOutOfBounds, target.X, target.Y)
	}
	return g.exploreCell(center, target, radius, targetState), nil
}

func (g *Grid) exploreCell(center, target Point, radius float64, targetState State) bool {
	if g.ring(target.X, target.Y) == 0 {
		return false
	}
	c := &g.cells[target.Y*g.width+target.X]
	n := cornersInDisc(c.Rect, g.CellCenter(center), radius)
	if n == 0 {
		return false
	}
	if !g.PathVisible(center, target) {
		return false
	}
	switch {
	case n == 4, c.state.IsObstacle():
		return g.setState(target, targetState)
	case targetState.IsExplored() && c.state.IsUnknown():
		return g.setState(target, Frontier)
	}
	return false
}

// ExploreInRadius reveals the disc of the given radius around the cell
// containing pos. With markAsExplored false the disc is reset to Unknown.
// The frontier is then rebuilt as a one cell thick band around the explored
// area. Reports whether any cell changed.
func (g *Grid) ExploreInRadius(pos r2.Vec, radius float64, markAsExplored bool) bool {
	center := g.WorldToCell(pos)
	if !g.Contains(center) || radius < 0 {
		return false
	}
	target := Unknown
	if markAsExplored {
		target = Explored
	}

	changed := g.exploreCell(center, center, radius, target)
	ring := 0
	for r := 1; float64(r)*g.resolution <= radius; r++ {
		ring = r
		visit := func(x, y int) {
			if g.IsValid(x, y) && g.exploreCell(center, Point{X: x, Y: y}, radius, target) {
				changed = true
			}
		}
		for i := -r + 1; i <= r-1; i++ {
			visit(center.X+i, center.Y-r)
			visit(center.X+i, center.Y+r)
			visit(center.X-r, center.Y+i)
			visit(center.X+r, center.Y+i)
		}
		visit(center.X-r, center.Y-r)
		visit(center.X+r, center.Y-r)
		visit(center.X+r, center.Y+r)
		visit(center.X-r, center.Y+r)
	}

	if g.updateFrontierBand(center, ring+2) {
		changed = true
	}
	return changed
}

// updateFrontierBand restores the frontier band inside the square of the
// given half size: unknown free cells touching explored free space become
// Frontier, frontier cells with no explored free neighbour fall back to
// Unknown.
func (g *Grid) updateFrontierBand(center Point, half int) bool {
	changed := false
	x0, x1 := max(center.X-half, 0), min(center.X+half, g.width-1)
	y0, y1 := max(center.Y-half, 0), min(center.Y+half, g.height-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p := Point{X: x, Y: y}
			s := g.stateAt(p)
			if !s.IsFree() || s.IsExplored() {
				continue
			}
			touches := g.touchesExplored(p)
			switch {
			case touches && s.IsUnknown():
				changed = g.setState(p, Frontier) || changed
			case !touches && s.IsFrontier():
				changed = g.setState(p, Unknown) || changed
			}
		}
	}
	return changed
}

func (g *Grid) touchesExplored(p Point) bool {
	for _, d := range neighbors8 {
		q := p.Add(d)
		if !g.Contains(q) {
			continue
		}
		s := g.stateAt(q)
		if s.IsFree() && s.IsExplored() {
			return true
		}
	}
	return false
}

// UnexploreAll resets every cell to Unknown and clears owners, gradients
// and densities. The outer border ring keeps its explored wall.
func (g *Grid) UnexploreAll() {
	for i := range g.cells {
		p := g.point(i)
		if g.ring(p.X, p.Y) > 0 {
			g.setState(p, Unknown)
		}
		g.cells[i].resetAnnotations()
	}
}

// VisibleCells returns every in-grid cell touched by the disc around pos
// that has a clear line of sight from the cell containing pos.
func (g *Grid) VisibleCells(pos r2.Vec, radius float64) []Point {
	return g.visibleCells(pos, radius, func(*Cell) bool { return true })
}

// VisibleCellsOf is VisibleCells restricted to cells owned by robot.
func (g *Grid) VisibleCellsOf(pos r2.Vec, radius float64, robot RobotID) []Point {
	return g.visibleCells(pos, radius, func(c *Cell) bool { return c.Robot == robot })
}

func (g *Grid) visibleCells(pos r2.Vec, radius float64, keep func(*Cell) bool) []Point {
	center := g.WorldToCell(pos)
	if !g.Contains(center) || radius < 0 {
		return nil
	}
	origin := g.CellCenter(center)
	reach := int(math.Ceil(radius/g.resolution)) + 1
	var out []Point
	for y := max(center.Y-reach, 0); y <= min(center.Y+reach, g.height-1); y++ {
		for x := max(center.X-reach, 0); x <= min(center.X+reach, g.width-1); x++ {
			c := &g.cells[y*g.width+x]
			if !keep(c) || cornersInDisc(c.Rect, origin, radius) == 0 {
				continue
			}
			p := Point{X: x, Y: y}
			if g.PathVisible(center, p) {
				out = append(out, p)
			}
		}
	}
	return out
}

// NumVisibleCellsUnrestricted counts the cells touched by the disc around
// pos that are visible under PathVisibleUnrestricted. Cells outside the grid
// count as open space.
func (g *Grid) NumVisibleCellsUnrestricted(pos r2.Vec, radius float64) int {
	center := g.WorldToCell(pos)
	if !g.Contains(center) || radius < 0 {
		return 0
	}
	origin := g.CellCenter(center)
	reach := int(math.Ceil(radius/g.resolution)) + 1
	n := 0
	for y := center.Y - reach; y <= center.Y+reach; y++ {
		for x := center.X - reach; x <= center.X+reach; x++ {
			if cornersInDisc(g.cellRect(x, y), origin, radius) == 0 {
				continue
			}
			if g.PathVisibleUnrestricted(center, Point{X: x, Y: y}) {
				n++
			}
		}
	}
	return n
}
