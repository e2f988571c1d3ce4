package territory

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/grid"
)

// Options tunes the partition.
type Options struct {
	// NetworkRange limits the fill to cells whose centre lies within this
	// distance of at least two robots. Zero disables the limit.
	NetworkRange float64
}

// ComputeVoronoiPartition assigns every reachable cell to the robot with the
// shortest geodesic distance to it and writes the owner into Cell.Robot.
// positions is indexed by RobotID. Known walls stay unassigned. With a single
// robot every cell goes to it. The returned field holds the distance from
// each cell to its owner.
func ComputeVoronoiPartition(g *grid.Grid, positions []r2.Vec, opts Options) (*Field, error) {
	seeds := make([]grid.Point, len(positions))
	for i, pos := range positions {
		p := g.WorldToCell(pos)
		if !g.Contains(p) {
			return nil, fmt.Errorf("territory: robot %d at (%g, %g): %w", i, pos.X, pos.Y, grid.ErrOutOfBounds)
		}
		seeds[i] = p
	}

	inRange := func(grid.Point, *grid.Cell) bool { return true }
	if opts.NetworkRange > 0 && len(positions) > 1 {
		r2max := opts.NetworkRange * opts.NetworkRange
		inRange = func(_ grid.Point, c *grid.Cell) bool {
			ctr := c.Center()
			n := 0
			for _, pos := range positions {
				d := r2.Sub(ctr, pos)
				if r2.Norm2(d) <= r2max {
					n++
					if n >= 2 {
						return true
					}
				}
			}
			return false
		}
	}

	f := newFlood(g, func(p grid.Point, c *grid.Cell) bool {
		s := c.State()
		if s.IsObstacle() && s.IsExplored() {
			return false
		}
		return inRange(p, c)
	})
	for i, p := range seeds {
		f.seed(p, grid.RobotID(i))
	}
	f.run()

	single := len(positions) == 1
	g.Each(func(p grid.Point, c *grid.Cell) {
		switch {
		case single:
			c.Robot = 0
		default:
			c.Robot = f.owner[g.Index(p)]
			s := c.State()
			if s.IsObstacle() && s.IsExplored() {
				c.Robot = grid.NoRobot
			}
		}
	})
	return &Field{Robot: grid.NoRobot, Values: f.dist, width: g.Width()}, nil
}
