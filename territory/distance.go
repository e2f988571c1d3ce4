package territory

import (
	"math"

	"github.com/pthm-cable/frontier/grid"
)

// ComputeDistanceTransform measures, for every explored free cell owned by
// robot, the geodesic distance to the nearest frontier cell of the same
// territory. Frontier cells read 0, cells the fill cannot reach +Inf. A
// territory without frontiers yields a field of zeros.
func ComputeDistanceTransform(g *grid.Grid, robot grid.RobotID) *Field {
	frontiers := g.FrontiersOf(robot)
	if len(frontiers) == 0 {
		return &Field{Robot: robot, Values: make([]float64, g.Len()), width: g.Width()}
	}

	f := newFlood(g, func(_ grid.Point, c *grid.Cell) bool {
		s := c.State()
		return c.Robot == robot && s.IsFree() && s.IsExplored()
	})
	for _, p := range frontiers {
		f.seed(p, robot)
	}
	f.run()
	return &Field{Robot: robot, Values: f.dist, width: g.Width()}
}

// ApplyDensity writes exp(-k·d²) into the density of every cell owned by the
// field's robot. Unreached cells keep their density.
func ApplyDensity(g *grid.Grid, field *Field, k float64) {
	g.Each(func(p grid.Point, c *grid.Cell) {
		if c.Robot != field.Robot {
			return
		}
		d := field.At(p)
		if math.IsInf(d, 1) {
			return
		}
		c.Density = math.Exp(-k * d * d)
	})
}
