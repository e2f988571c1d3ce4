package search

import (
	"container/heap"
	"math"

	"github.com/pthm-cable/frontier/grid"
)

type pathState uint8

const (
	unvisited pathState = iota
	open
	closed
)

// node is an open set entry.
type node struct {
	cell  int
	f     float64
	seq   uint64 // insertion order, breaks ties between equal f
	index int    // heap index
}

// nodeHeap implements heap.Interface for the open set.
type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*node)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	nd := old[n-1]
	old[n-1] = nil
	nd.index = -1
	*h = old[0 : n-1]
	return nd
}

// arena holds the scratch state of one search. It is allocated per call and
// parallels the grid's flat cell slice.
type arena struct {
	g       *grid.Grid
	costG   []float64
	length  []float64
	parent  []int32
	state   []pathState
	entries []*node
	open    nodeHeap
	seq     uint64
}

func newArena(g *grid.Grid) *arena {
	n := g.Len()
	a := &arena{
		g:       g,
		costG:   make([]float64, n),
		length:  make([]float64, n),
		parent:  make([]int32, n),
		state:   make([]pathState, n),
		entries: make([]*node, n),
		open:    make(nodeHeap, 0, 64),
	}
	for i := range a.costG {
		a.costG[i] = math.Inf(1)
		a.parent[i] = -1
	}
	return a
}

func (a *arena) seed(i int, h float64) {
	a.relax(i, -1, 0, 0, h)
}

// relax records a route to cell i with cost g. A visited cell is only
// updated, or reopened once closed, when g is strictly better.
func (a *arena) relax(i, from int, g, length, h float64) {
	if a.state[i] != unvisited && g >= a.costG[i] {
		return
	}
	a.costG[i] = g
	a.length[i] = length
	a.parent[i] = int32(from)

	if a.state[i] == open {
		e := a.entries[i]
		e.f = g + h
		heap.Fix(&a.open, e.index)
		return
	}
	a.state[i] = open
	e := &node{cell: i, f: g + h, seq: a.seq}
	a.seq++
	a.entries[i] = e
	heap.Push(&a.open, e)
}

func (a *arena) pop() int {
	e := heap.Pop(&a.open).(*node)
	a.entries[e.cell] = nil
	a.state[e.cell] = closed
	return e.cell
}

// path walks parent links back from i and returns the route in forward
// order. Returns an empty Path when i was never reached.
func (a *arena) path(i int) Path {
	if math.IsInf(a.costG[i], 1) {
		return Path{}
	}
	n := 0
	for j := i; j >= 0; j = int(a.parent[j]) {
		n++
	}
	cells := make([]grid.Point, n)
	for j := i; j >= 0; j = int(a.parent[j]) {
		n--
		cells[n] = a.g.PointAt(j)
	}
	return Path{Cells: cells, Cost: a.costG[i], Length: a.length[i]}
}
