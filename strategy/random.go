package strategy

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/grid"
)

// randomWalk wanders with a persistent heading per robot.
type randomWalk struct {
	rng         *rand.Rand
	persistence float64
	headings    []r2.Vec
}

func newRandomWalk(opts Options) *randomWalk {
	return &randomWalk{
		rng:         rand.New(rand.NewSource(opts.Seed)),
		persistence: opts.Persistence,
	}
}

func (s *randomWalk) Kind() Kind { return Random }

func (s *randomWalk) Gradient(ctx *Context, robot grid.RobotID, _ bool) (Steer, error) {
	if _, _, err := ctx.robotCell(robot); err != nil {
		return Steer{}, err
	}
	return Steer{Dir: s.heading(robot)}, nil
}

// steer is the fallback entry used by the other strategies.
func (s *randomWalk) steer(ctx *Context, robot grid.RobotID) (Steer, error) {
	st, err := s.Gradient(ctx, robot, false)
	st.Fallback = true
	return st, err
}

func (s *randomWalk) heading(robot grid.RobotID) r2.Vec {
	for int(robot) >= len(s.headings) {
		s.headings = append(s.headings, r2.Vec{})
	}
	h := s.headings[robot]
	if h == (r2.Vec{}) || s.rng.Float64() >= s.persistence {
		a := s.rng.Float64() * 2 * math.Pi
		h = r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
		s.headings[robot] = h
	}
	return h
}

func (s *randomWalk) PostProcess(*Context) {}
