// Package grid provides the occupancy grid explored by the robots: cell
// classification, the frontier cache, exploration counters, coordinate
// mapping and line-of-sight tests.
package grid

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/zyedidia/generic/mapset"
	"gonum.org/v1/gonum/spatial/r2"
)

// BorderWidth is the number of permanent obstacle rings around the grid.
const BorderWidth = 2

// minCells is the smallest edge length that leaves one interior cell.
const minCells = 2*BorderWidth + 1

// maxCells bounds the cell count of any grid, built or read.
const maxCells = 1 << 26

// Grid is a 2D occupancy grid. All classification changes go through
// SetState so the frontier cache and the counters stay in sync.
type Grid struct {
	width      int
	height     int
	resolution float64

	cells     []Cell
	frontiers mapset.Set[Point]

	freeCount     int
	exploredCount int
}

// New creates a grid covering width x height world units with square cells
// of the given resolution. Cell counts are rounded up.
func New(width, height, resolution float64) (*Grid, error) {
	if !(width > 0) || !(height > 0) || !(resolution > 0) {
		return nil, fmt.Errorf("%w: size %gx%g, resolution %g", ErrInvalidGeometry, width, height, resolution)
	}
	fw, fh := math.Ceil(width/resolution), math.Ceil(height/resolution)
	if fw*fh > maxCells {
		return nil, fmt.Errorf("%w: %gx%g cells exceeds limit", ErrInvalidGeometry, fw, fh)
	}
	return NewCells(int(fw), int(fh), resolution)
}

// NewCells creates a grid of w x h cells. Interior cells start Free and
// Unknown; the border rings are set up as permanent obstacles.
func NewCells(w, h int, resolution float64) (*Grid, error) {
	if w < minCells || h < minCells || !(resolution > 0) {
		return nil, fmt.Errorf("%w: %dx%d cells, resolution %g", ErrInvalidGeometry, w, h, resolution)
	}
	if int64(w)*int64(h) > maxCells {
		return nil, fmt.Errorf("%w: %dx%d cells exceeds limit", ErrInvalidGeometry, w, h)
	}
	g := alloc(w, h, resolution)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := &g.cells[y*w+x]
			c.Rect = g.cellRect(x, y)
			c.state = g.initialState(x, y)
		}
	}
	g.rebuild()
	return g, nil
}

func alloc(w, h int, resolution float64) *Grid {
	g := &Grid{
		width:      w,
		height:     h,
		resolution: resolution,
		cells:      make([]Cell, w*h),
		frontiers:  mapset.New[Point](),
	}
	for i := range g.cells {
		g.cells[i].resetAnnotations()
	}
	return g
}

func (g *Grid) cellRect(x, y int) orb.Bound {
	r := g.resolution
	return orb.Bound{
		Min: orb.Point{float64(x) * r, float64(y) * r},
		Max: orb.Point{float64(x+1) * r, float64(y+1) * r},
	}
}

// ring returns the distance of (x, y) to the nearest grid edge in cells.
func (g *Grid) ring(x, y int) int {
	return min(x, y, g.width-1-x, g.height-1-y)
}

func (g *Grid) initialState(x, y int) State {
	switch g.ring(x, y) {
	case 0:
		return Obstacle | Explored
	case 1:
		return Obstacle | Unknown
	default:
		return Free | Unknown
	}
}

// rebuild recomputes the frontier cache and counters by full scan.
func (g *Grid) rebuild() {
	g.frontiers = mapset.New[Point]()
	g.freeCount, g.exploredCount = 0, 0
	for i := range g.cells {
		s := g.cells[i].state
		if s.IsFrontier() {
			g.frontiers.Put(g.point(i))
		}
		if s.IsFree() {
			g.freeCount++
			if s.IsExplored() {
				g.exploredCount++
			}
		}
	}
}

// Width returns the number of cell columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of cell rows.
func (g *Grid) Height() int { return g.height }

// Len returns the total number of cells.
func (g *Grid) Len() int { return len(g.cells) }

// Resolution returns the world-space edge length of a cell.
func (g *Grid) Resolution() float64 { return g.resolution }

// WorldSize returns the world-space extent of the grid.
func (g *Grid) WorldSize() r2.Vec {
	return r2.Vec{X: float64(g.width) * g.resolution, Y: float64(g.height) * g.resolution}
}

// IsValid reports whether (x, y) lies inside the grid.
func (g *Grid) IsValid(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// Contains reports whether p lies inside the grid.
func (g *Grid) Contains(p Point) bool {
	return g.IsValid(p.X, p.Y)
}

// Index returns the flat index of p. p must be valid.
func (g *Grid) Index(p Point) int {
	return p.Y*g.width + p.X
}

func (g *Grid) point(i int) Point {
	return Point{X: i % g.width, Y: i / g.width}
}

// PointAt returns the cell index for a flat index.
func (g *Grid) PointAt(i int) Point {
	return g.point(i)
}

// Cell returns the cell at (x, y).
func (g *Grid) Cell(x, y int) (*Cell, error) {
	if !g.IsValid(x, y) {
		return nil, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, y)
	}
	return &g.cells[y*g.width+x], nil
}

// At returns the cell at p and whether p is inside the grid.
func (g *Grid) At(p Point) (*Cell, bool) {
	if !g.Contains(p) {
		return nil, false
	}
	return &g.cells[p.Y*g.width+p.X], true
}

// CellAt returns the cell at a flat index. i must be in [0, Len()).
func (g *Grid) CellAt(i int) *Cell {
	return &g.cells[i]
}

// CellState returns the classification of the cell at (x, y).
func (g *Grid) CellState(x, y int) (State, error) {
	c, err := g.Cell(x, y)
	if err != nil {
		return 0, err
	}
	return c.state, nil
}

// stateAt returns the state at p without bounds checks.
func (g *Grid) stateAt(p Point) State {
	return g.cells[p.Y*g.width+p.X].state
}

// WorldToCell maps a world position to the cell containing it.
// The result may lie outside the grid.
func (g *Grid) WorldToCell(pos r2.Vec) Point {
	return Point{
		X: int(math.Floor(pos.X / g.resolution)),
		Y: int(math.Floor(pos.Y / g.resolution)),
	}
}

// CellCenter returns the world position of the centre of cell p.
func (g *Grid) CellCenter(p Point) r2.Vec {
	return r2.Vec{
		X: g.resolution/2 + float64(p.X)*g.resolution,
		Y: g.resolution/2 + float64(p.Y)*g.resolution,
	}
}

// SetState applies s to the cell at p. Each group present in s replaces the
// corresponding group of the cell. Border cells stay obstacles and the
// outermost ring stays explored. Reports whether the cell changed.
func (g *Grid) SetState(p Point, s State) (bool, error) {
	if !g.Contains(p) {
		return false, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, p.X, p.Y)
	}
	return g.setState(p, s), nil
}

func (g *Grid) setState(p Point, s State) bool {
	c := &g.cells[p.Y*g.width+p.X]
	old := c.state
	next := old.merge(s)

	switch g.ring(p.X, p.Y) {
	case 0:
		next = Obstacle | Explored
	case 1:
		next = next&^occupancyMask | Obstacle
		if next.IsFrontier() {
			next = next&^knowledgeMask | Unknown
		}
	}

	if next == old {
		return false
	}
	c.state = next

	if old.IsFrontier() != next.IsFrontier() {
		if next.IsFrontier() {
			g.frontiers.Put(p)
		} else {
			g.frontiers.Remove(p)
		}
	}
	if old.IsFree() != next.IsFree() {
		if next.IsFree() {
			g.freeCount++
		} else {
			g.freeCount--
		}
	}
	oldExplored := old.IsFree() && old.IsExplored()
	newExplored := next.IsFree() && next.IsExplored()
	if oldExplored != newExplored {
		if newExplored {
			g.exploredCount++
		} else {
			g.exploredCount--
		}
	}
	return true
}

// FreeCellCount returns the number of Free cells in any knowledge state.
func (g *Grid) FreeCellCount() int { return g.freeCount }

// ExploredCellCount returns the number of cells that are Free and Explored.
func (g *Grid) ExploredCellCount() int { return g.exploredCount }

// ExplorationProgress returns the explored fraction of free cells, 0 when
// the grid has no free cells.
func (g *Grid) ExplorationProgress() float64 {
	if g.freeCount == 0 {
		return 0
	}
	return float64(g.exploredCount) / float64(g.freeCount)
}

// FrontierCount returns the size of the frontier cache.
func (g *Grid) FrontierCount() int {
	return g.frontiers.Size()
}

// IsFrontier reports whether p is in the frontier cache.
func (g *Grid) IsFrontier(p Point) bool {
	return g.frontiers.Has(p)
}

// Frontiers returns all frontier cells in row-major order.
func (g *Grid) Frontiers() []Point {
	out := make([]Point, 0, g.frontiers.Size())
	g.frontiers.Each(func(p Point) {
		out = append(out, p)
	})
	sortPoints(out)
	return out
}

// FrontiersOf returns the frontier cells owned by robot in row-major order.
func (g *Grid) FrontiersOf(robot RobotID) []Point {
	var out []Point
	g.frontiers.Each(func(p Point) {
		if g.cells[p.Y*g.width+p.X].Robot == robot {
			out = append(out, p)
		}
	})
	sortPoints(out)
	return out
}

func sortPoints(pts []Point) {
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})
}

// Each calls fn for every cell in row-major order.
func (g *Grid) Each(fn func(p Point, c *Cell)) {
	for i := range g.cells {
		fn(g.point(i), &g.cells[i])
	}
}

// ResetOwners clears the territory owner of every cell.
func (g *Grid) ResetOwners() {
	for i := range g.cells {
		g.cells[i].Robot = NoRobot
	}
}

// Recount scans the whole grid and returns the free and explored counts.
// It does not touch the incremental counters.
func (g *Grid) Recount() (free, explored int) {
	for i := range g.cells {
		s := g.cells[i].state
		if s.IsFree() {
			free++
			if s.IsExplored() {
				explored++
			}
		}
	}
	return free, explored
}

// OnBoundary reports whether p lies on the outermost ring, the hard wall
// that is never revealed or traversed.
func (g *Grid) OnBoundary(p Point) bool {
	return g.Contains(p) && g.ring(p.X, p.Y) == 0
}
