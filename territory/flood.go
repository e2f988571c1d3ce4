// Package territory splits explored space between robots and measures how
// far each cell lies from the frontier of its owner. Both run the same
// multi-source flood fill over a 16-connected neighbourhood.
package territory

import (
	"container/heap"
	"math"

	"github.com/pthm-cable/frontier/grid"
)

// move is one of the 16 flood steps. via lists the cells a step squeezes
// past: the two orthogonal cells of a diagonal, or the two cells a knight
// move passes over.
type move struct {
	d    grid.Point
	cost float64
	kind moveKind
	via  [2]grid.Point
}

type moveKind uint8

const (
	orthogonal moveKind = iota
	diagonal
	knight
)

var moves = buildMoves()

func buildMoves() []move {
	var ms []move
	for _, d := range []grid.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}} {
		ms = append(ms, move{d: d, cost: 1, kind: orthogonal})
	}
	for _, sx := range []int{-1, 1} {
		for _, sy := range []int{-1, 1} {
			ms = append(ms, move{
				d:    grid.Point{X: sx, Y: sy},
				cost: math.Sqrt2,
				kind: diagonal,
				via:  [2]grid.Point{{X: sx}, {Y: sy}},
			})
			ms = append(ms, move{
				d:    grid.Point{X: 2 * sx, Y: sy},
				cost: math.Sqrt(5),
				kind: knight,
				via:  [2]grid.Point{{X: sx}, {X: sx, Y: sy}},
			})
			ms = append(ms, move{
				d:    grid.Point{X: sx, Y: 2 * sy},
				cost: math.Sqrt(5),
				kind: knight,
				via:  [2]grid.Point{{Y: sy}, {X: sx, Y: sy}},
			})
		}
	}
	return ms
}

// allowed reports whether m can be taken from p. Diagonals may not cut
// between two known walls; knight moves need both passed cells known free.
func allowed(g *grid.Grid, p grid.Point, m move) bool {
	switch m.kind {
	case diagonal:
		a := g.CellAt(g.Index(p.Add(m.via[0]))).State()
		b := g.CellAt(g.Index(p.Add(m.via[1]))).State()
		knownWall := func(s grid.State) bool { return s.IsObstacle() && s.IsExplored() }
		return !(knownWall(a) && knownWall(b))
	case knight:
		for _, v := range m.via {
			s := g.CellAt(g.Index(p.Add(v))).State()
			if !s.IsFree() || !s.IsExplored() {
				return false
			}
		}
	}
	return true
}

type entry struct {
	cell  int
	dist  float64
	seq   uint64
	index int
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[0 : n-1]
	return e
}

// flood is the per-call scratch arena of one fill.
type flood struct {
	g       *grid.Grid
	dist    []float64
	owner   []grid.RobotID
	entries []*entry
	open    entryHeap
	seq     uint64

	// admit decides whether the fill may enter a cell
	admit func(p grid.Point, c *grid.Cell) bool
}

func newFlood(g *grid.Grid, admit func(grid.Point, *grid.Cell) bool) *flood {
	n := g.Len()
	f := &flood{
		g:       g,
		dist:    make([]float64, n),
		owner:   make([]grid.RobotID, n),
		entries: make([]*entry, n),
		admit:   admit,
	}
	for i := range f.dist {
		f.dist[i] = math.Inf(1)
		f.owner[i] = grid.NoRobot
	}
	return f
}

// seed starts the fill at p with distance 0.
func (f *flood) seed(p grid.Point, robot grid.RobotID) {
	f.update(f.g.Index(p), 0, robot)
}

// update lowers the distance of cell i, opening or repositioning its entry.
// Closed cells are reopened only on a strictly better distance.
func (f *flood) update(i int, d float64, robot grid.RobotID) {
	if d >= f.dist[i] {
		return
	}
	f.dist[i] = d
	f.owner[i] = robot
	if e := f.entries[i]; e != nil {
		e.dist = d
		heap.Fix(&f.open, e.index)
		return
	}
	e := &entry{cell: i, dist: d, seq: f.seq}
	f.seq++
	f.entries[i] = e
	heap.Push(&f.open, e)
}

func (f *flood) run() {
	g := f.g
	res := g.Resolution()
	for f.open.Len() > 0 {
		e := heap.Pop(&f.open).(*entry)
		f.entries[e.cell] = nil
		p := g.PointAt(e.cell)
		for _, m := range moves {
			q := p.Add(m.d)
			c, ok := g.At(q)
			if !ok || !f.admit(q, c) || !allowed(g, p, m) {
				continue
			}
			f.update(g.Index(q), e.dist+m.cost*res, f.owner[e.cell])
		}
	}
}

// Field is a per-cell distance map in world units. Cells the fill never
// reached hold +Inf.
type Field struct {
	// Robot is the robot whose frontier seeded the field, or grid.NoRobot
	// for a partition field.
	Robot  grid.RobotID
	Values []float64

	width int
}

// At returns the value at p, which must lie inside the grid.
func (f *Field) At(p grid.Point) float64 {
	return f.Values[p.Y*f.width+p.X]
}

// Reached reports whether the fill reached p.
func (f *Field) Reached(p grid.Point) bool {
	return !math.IsInf(f.At(p), 1)
}
