// Package strategy decides where each robot heads next. Every strategy is
// one of a closed set of kinds behind the Strategy interface.
package strategy

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/grid"
	"github.com/pthm-cable/frontier/search"
)

// Kind names a strategy.
type Kind string

const (
	Nearest Kind = "nearest"
	Density Kind = "density"
	MaxArea Kind = "maxarea"
	Random  Kind = "random"
)

// Kinds lists every strategy kind.
var Kinds = []Kind{Nearest, Density, MaxArea, Random}

var (
	// ErrUnknownKind is returned by New for a kind outside Kinds.
	ErrUnknownKind = errors.New("strategy: unknown kind")
	// ErrNoRobot is returned when a robot index has no position.
	ErrNoRobot = errors.New("strategy: robot index out of range")
)

// Context is the state a strategy steers in. Positions are indexed by
// RobotID and the grid's territory owners must be current.
type Context struct {
	Grid      *grid.Grid
	Positions []r2.Vec
}

func (c *Context) robotCell(robot grid.RobotID) (grid.Point, r2.Vec, error) {
	if robot < 0 || int(robot) >= len(c.Positions) {
		return grid.Point{}, r2.Vec{}, fmt.Errorf("%w: %d", ErrNoRobot, robot)
	}
	pos := c.Positions[robot]
	p := c.Grid.WorldToCell(pos)
	if !c.Grid.Contains(p) {
		return p, pos, fmt.Errorf("strategy: robot %d at (%g, %g): %w", robot, pos.X, pos.Y, grid.ErrOutOfBounds)
	}
	return p, pos, nil
}

// Steer is the outcome of one Gradient call.
type Steer struct {
	// Dir is a unit vector, or zero when the robot has no preferred direction.
	Dir r2.Vec
	// Path is the simplified route being followed, empty for field-driven
	// and random steering.
	Path search.Path
	// Fallback is set when the strategy had nothing to aim for and steered
	// randomly instead.
	Fallback bool
	// Unemployed is set when the robot's territory held no frontier and the
	// whole grid's frontier was used.
	Unemployed bool
}

// Strategy computes steering directions.
type Strategy interface {
	Kind() Kind
	// Gradient returns the direction robot should move in. Field-driven
	// strategies blend the stored cell gradients around the robot when
	// interpolate is set; route-driven ones ignore it.
	Gradient(ctx *Context, robot grid.RobotID, interpolate bool) (Steer, error)
	// PostProcess runs once per tick after the grid was updated.
	PostProcess(ctx *Context)
}

// Options configures the strategies.
type Options struct {
	DensityK      float64 // falloff of exp(-k·d²)
	SensorRadius  float64 // used to score candidate frontiers
	MaxCandidates int     // frontiers scored per robot, cheapest first
	Seed          int64
	Persistence   float64 // chance a random walker keeps its heading
}

// New returns the strategy of the given kind.
func New(kind Kind, opts Options) (Strategy, error) {
	rw := newRandomWalk(opts)
	switch kind {
	case Nearest:
		return &nearest{fallback: rw}, nil
	case Density:
		return &density{k: opts.DensityK, fallback: &nearest{fallback: rw}}, nil
	case MaxArea:
		return &maxArea{opts: opts, fallback: rw}, nil
	case Random:
		return rw, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// candidates returns the frontier of robot's territory, or the whole
// frontier when the territory has none.
func candidates(g *grid.Grid, robot grid.RobotID) ([]grid.Point, bool) {
	if own := g.FrontiersOf(robot); len(own) > 0 {
		return own, false
	}
	return g.Frontiers(), true
}

// unit normalises v; the zero vector stays zero.
func unit(v r2.Vec) r2.Vec {
	n := r2.Norm(v)
	if n == 0 || math.IsNaN(n) {
		return r2.Vec{}
	}
	return r2.Scale(1/n, v)
}

// towards returns the direction from pos to the centre of the path's first
// waypoint after the start.
func towards(g *grid.Grid, pos r2.Vec, p search.Path) r2.Vec {
	if p.Empty() {
		return r2.Vec{}
	}
	next := p.Cells[0]
	if p.Len() > 1 {
		next = p.Cells[1]
	}
	return unit(r2.Sub(g.CellCenter(next), pos))
}
