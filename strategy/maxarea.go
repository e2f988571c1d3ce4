package strategy

import (
	"sort"

	"github.com/pthm-cable/frontier/grid"
	"github.com/pthm-cable/frontier/search"
)

// maxArea heads for the frontier cell that promises the most newly visible
// cells per unit of travel.
type maxArea struct {
	opts     Options
	fallback *randomWalk
}

func (s *maxArea) Kind() Kind { return MaxArea }

func (s *maxArea) Gradient(ctx *Context, robot grid.RobotID, _ bool) (Steer, error) {
	g := ctx.Grid
	start, pos, err := ctx.robotCell(robot)
	if err != nil {
		return Steer{}, err
	}
	targets, unemployed := candidates(g, robot)
	paths, err := search.FrontierPaths(g, start, targets)
	if err != nil {
		return Steer{}, err
	}

	order := make([]int, 0, len(paths))
	for i, p := range paths {
		if !p.Empty() {
			order = append(order, i)
		}
	}
	if len(order) == 0 {
		return s.fallback.steer(ctx, robot)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return paths[order[a]].Cost < paths[order[b]].Cost
	})
	if n := s.opts.MaxCandidates; n > 0 && len(order) > n {
		order = order[:n]
	}

	best, bestScore := -1, -1.0
	for _, i := range order {
		seen := g.NumVisibleCellsUnrestricted(g.CellCenter(targets[i]), s.opts.SensorRadius)
		score := float64(seen) / (1 + paths[i].Length)
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	route, err := search.AStar(g, start, targets[best])
	if err != nil {
		return Steer{}, err
	}
	if route.Empty() {
		return s.fallback.steer(ctx, robot)
	}
	route = search.Beautify(g, route, true)
	return Steer{
		Dir:        towards(g, pos, route),
		Path:       route,
		Unemployed: unemployed,
	}, nil
}

func (s *maxArea) PostProcess(*Context) {}
