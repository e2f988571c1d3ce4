package strategy

import (
	"github.com/pthm-cable/frontier/grid"
	"github.com/pthm-cable/frontier/search"
)

// nearest heads for the cheapest frontier cell of the robot's territory.
type nearest struct {
	fallback *randomWalk
}

func (s *nearest) Kind() Kind { return Nearest }

func (s *nearest) Gradient(ctx *Context, robot grid.RobotID, _ bool) (Steer, error) {
	start, pos, err := ctx.robotCell(robot)
	if err != nil {
		return Steer{}, err
	}
	targets, unemployed := candidates(ctx.Grid, robot)
	paths, err := search.FrontierPaths(ctx.Grid, start, targets)
	if err != nil {
		return Steer{}, err
	}

	best := -1
	for i, p := range paths {
		if p.Empty() {
			continue
		}
		if best < 0 || p.Cost < paths[best].Cost {
			best = i
		}
	}
	if best < 0 {
		return s.fallback.steer(ctx, robot)
	}

	route := search.Beautify(ctx.Grid, paths[best], true)
	return Steer{
		Dir:        towards(ctx.Grid, pos, route),
		Path:       route,
		Unemployed: unemployed,
	}, nil
}

func (s *nearest) PostProcess(*Context) {}
