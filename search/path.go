// Package search finds routes across the occupancy grid: uniform-cost
// expansion toward every frontier at once, single target A*, and line of
// sight path simplification.
package search

import (
	"github.com/paulmach/orb"

	"github.com/pthm-cable/frontier/grid"
)

// Path is a route through the grid. Cells run from the source to the
// destination, both included. An empty Path means no route exists.
type Path struct {
	Cells  []grid.Point
	Cost   float64 // accumulated traversal cost
	Length float64 // metric length in world units
}

// Empty reports whether the path holds no cells.
func (p Path) Empty() bool {
	return len(p.Cells) == 0
}

// Len returns the number of cells.
func (p Path) Len() int {
	return len(p.Cells)
}

// Last returns the destination cell. The path must not be empty.
func (p Path) Last() grid.Point {
	return p.Cells[len(p.Cells)-1]
}

// LineString returns the path as world-space cell centres.
func (p Path) LineString(g *grid.Grid) orb.LineString {
	ls := make(orb.LineString, len(p.Cells))
	for i, c := range p.Cells {
		w := g.CellCenter(c)
		ls[i] = orb.Point{w.X, w.Y}
	}
	return ls
}
