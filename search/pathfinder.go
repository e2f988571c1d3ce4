package search

import (
	"fmt"
	"math"

	"github.com/pthm-cable/frontier/grid"
)

const diagonal = math.Sqrt2

var neighbors = grid.Neighbors8()

func checkPoint(g *grid.Grid, what string, p grid.Point) error {
	if !g.Contains(p) {
		return fmt.Errorf("search: %s (%d, %d): %w", what, p.X, p.Y, grid.ErrOutOfBounds)
	}
	return nil
}

// expand relaxes the 8 neighbours of cell i. The outer wall is never
// entered. h estimates the remaining cost from a neighbour.
func (a *arena) expand(i int, h func(grid.Point) float64) {
	g := a.g
	p := g.PointAt(i)
	res := g.Resolution()
	for _, d := range neighbors {
		q := p.Add(d)
		if !g.Contains(q) || g.OnBoundary(q) {
			continue
		}
		j := g.Index(q)
		step := 1.0
		if d.X != 0 && d.Y != 0 {
			step = diagonal
		}
		cost := a.costG[i] + g.CellAt(j).State().Cost()*step
		a.relax(j, i, cost, a.length[i]+step*res, h(q))
	}
}

func zero(grid.Point) float64 { return 0 }

// FrontierPaths runs a uniform-cost search from start over the whole grid
// and returns one path per frontier cell, in the order given. A frontier
// that cannot be reached gets an empty Path. No frontiers yields nil.
func FrontierPaths(g *grid.Grid, start grid.Point, frontiers []grid.Point) ([]Path, error) {
	if err := checkPoint(g, "start", start); err != nil {
		return nil, err
	}
	for _, f := range frontiers {
		if err := checkPoint(g, "frontier", f); err != nil {
			return nil, err
		}
	}
	if len(frontiers) == 0 {
		return nil, nil
	}

	a := newArena(g)
	a.seed(g.Index(start), 0)
	for a.open.Len() > 0 {
		a.expand(a.pop(), zero)
	}

	paths := make([]Path, len(frontiers))
	for k, f := range frontiers {
		paths[k] = a.path(g.Index(f))
	}
	return paths, nil
}

// octile is the exact 8-connected distance between two cells at unit cost,
// admissible since no reachable cell costs less than 1.
func octile(a, b grid.Point) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	lo, hi := math.Min(dx, dy), math.Max(dx, dy)
	return lo*diagonal + (hi - lo)
}

// AStar finds the cheapest path from from to to. It returns an empty Path
// when the open set runs dry before the goal is reached.
func AStar(g *grid.Grid, from, to grid.Point) (Path, error) {
	if err := checkPoint(g, "start", from); err != nil {
		return Path{}, err
	}
	if err := checkPoint(g, "goal", to); err != nil {
		return Path{}, err
	}

	goal := g.Index(to)
	h := func(p grid.Point) float64 { return octile(p, to) }

	a := newArena(g)
	a.seed(g.Index(from), h(from))
	for a.open.Len() > 0 {
		i := a.pop()
		if i == goal {
			return a.path(i), nil
		}
		a.expand(i, h)
	}
	return Path{}, nil
}
