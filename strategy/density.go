package strategy

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/grid"
	"github.com/pthm-cable/frontier/territory"
)

// density descends each robot's frontier distance field. PostProcess
// recomputes the fields, the cell densities and the per-cell gradients
// Gradient reads back.
type density struct {
	k        float64
	fallback *nearest
}

func (s *density) Kind() Kind { return Density }

func (s *density) Gradient(ctx *Context, robot grid.RobotID, interpolate bool) (Steer, error) {
	p, pos, err := ctx.robotCell(robot)
	if err != nil {
		return Steer{}, err
	}
	var dir r2.Vec
	if interpolate {
		dir = blend(ctx.Grid, pos, robot)
	} else {
		c, _ := ctx.Grid.At(p)
		dir = c.Gradient
	}
	dir = unit(dir)
	if dir == (r2.Vec{}) {
		return s.fallback.Gradient(ctx, robot, interpolate)
	}
	return Steer{Dir: dir}, nil
}

func (s *density) PostProcess(ctx *Context) {
	g := ctx.Grid
	for i := range ctx.Positions {
		f := territory.ComputeDistanceTransform(g, grid.RobotID(i))
		territory.ApplyDensity(g, f, s.k)
		writeGradients(g, f)
	}
}

// writeGradients points every cell of the field's territory at its
// neighbour closest to the frontier. Frontier cells and cells without a
// downhill neighbour get the zero vector.
func writeGradients(g *grid.Grid, f *territory.Field) {
	g.Each(func(p grid.Point, c *grid.Cell) {
		if c.Robot != f.Robot {
			return
		}
		c.Gradient = r2.Vec{}
		d := f.At(p)
		if d == 0 || math.IsInf(d, 1) {
			return
		}
		best, to := d, p
		for _, n := range grid.Neighbors8() {
			q := p.Add(n)
			if !g.Contains(q) {
				continue
			}
			if v := f.At(q); v < best {
				best, to = v, q
			}
		}
		if to != p {
			c.Gradient = unit(r2.Sub(g.CellCenter(to), g.CellCenter(p)))
		}
	})
}

// blend bilinearly interpolates the gradients of the four cells around pos,
// skipping cells outside robot's territory.
func blend(g *grid.Grid, pos r2.Vec, robot grid.RobotID) r2.Vec {
	res := g.Resolution()
	u := pos.X/res - 0.5
	v := pos.Y/res - 0.5
	x0, y0 := math.Floor(u), math.Floor(v)
	fx, fy := u-x0, v-y0

	var sum r2.Vec
	for _, k := range [4]struct {
		dx, dy int
		w      float64
	}{
		{0, 0, (1 - fx) * (1 - fy)},
		{1, 0, fx * (1 - fy)},
		{0, 1, (1 - fx) * fy},
		{1, 1, fx * fy},
	} {
		c, ok := g.At(grid.Point{X: int(x0) + k.dx, Y: int(y0) + k.dy})
		if !ok || c.Robot != robot {
			continue
		}
		sum = r2.Add(sum, r2.Scale(k.w, c.Gradient))
	}
	return sum
}
