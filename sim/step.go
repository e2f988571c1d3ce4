package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/components"
	"github.com/pthm-cable/frontier/grid"
	"github.com/pthm-cable/frontier/strategy"
	"github.com/pthm-cable/frontier/telemetry"
	"github.com/pthm-cable/frontier/territory"
)

// Step runs a single tick: partition, steer, move, sense, post-process and
// telemetry, in that order.
func (s *Simulation) Step() error {
	s.perfCollector.StartTick()
	defer s.perfCollector.EndTick()

	// 1. Split the grid between the robots
	s.perfCollector.StartPhase(telemetry.PhasePartition)
	positions := s.Positions()
	if _, err := territory.ComputeVoronoiPartition(s.grid, positions, s.partition); err != nil {
		return fmt.Errorf("partition at tick %d: %w", s.tick, err)
	}
	ctx := &strategy.Context{Grid: s.grid, Positions: positions}

	// 2. Ask the strategy for a heading per robot
	s.perfCollector.StartPhase(telemetry.PhaseStrategy)
	steers := make([]strategy.Steer, len(s.robots))
	for i := range s.robots {
		st, err := s.strategy.Gradient(ctx, grid.RobotID(i), s.interpolate)
		if err != nil {
			return fmt.Errorf("steering robot %d at tick %d: %w", i, s.tick, err)
		}
		steers[i] = st
	}

	// 3. Move
	s.perfCollector.StartPhase(telemetry.PhaseMove)
	query := s.robotFilter.Query()
	for query.Next() {
		robot, pos, vel, _, motion, odo := query.Get()
		s.applySteer(robot.ID, motion, odo, steers[robot.ID])
		s.move(pos, vel, motion, odo)
	}

	// 4. Sense
	s.perfCollector.StartPhase(telemetry.PhaseExplore)
	query = s.robotFilter.Query()
	for query.Next() {
		_, pos, _, sensor, _, odo := query.Get()
		before := s.grid.ExploredCellCount()
		s.grid.ExploreInRadius(pos.Vec(), sensor.Radius, true)
		revealed := s.grid.ExploredCellCount() - before
		odo.Revealed += revealed
		s.collector.RecordRevealed(revealed)
	}

	// 5. Strategy bookkeeping on the updated grid
	s.perfCollector.StartPhase(telemetry.PhasePostProcess)
	ctx.Positions = s.Positions()
	s.strategy.PostProcess(ctx)

	// 6. Telemetry
	s.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	s.tick++
	s.checkMilestones()
	s.flushTelemetry()
	return nil
}

// applySteer stores the strategy decision on the robot.
func (s *Simulation) applySteer(id grid.RobotID, motion *components.Motion, odo *components.Odometry, st strategy.Steer) {
	if st.Fallback && !motion.Fallback {
		slog.Warn("strategy fallback", "robot", id, "tick", s.tick, "strategy", s.strategy.Kind())
	}
	motion.Heading = st.Dir
	motion.Fallback = st.Fallback
	motion.Unemployed = st.Unemployed
	motion.HasTarget = !st.Path.Empty()
	if motion.HasTarget {
		motion.Target = st.Path.Last()
		motion.RouteLen = st.Path.Length
	} else {
		motion.Target = grid.Point{}
		motion.RouteLen = 0
	}
	if st.Fallback {
		odo.Fallbacks++
	}
	if st.Unemployed {
		odo.Unemployed++
	}
}

// move advances the robot one step along its heading. A step that would
// enter an obstacle, leave the grid or squeeze past an obstacle corner is
// retried along each axis alone so robots slide along walls; when all three
// are blocked the robot stays put.
func (s *Simulation) move(pos *components.Position, vel *components.Velocity, motion *components.Motion, odo *components.Odometry) {
	from := pos.Vec()
	step := r2.Scale(motion.Speed*s.cfg.Sim.DT, motion.Heading)
	motion.Blocked = false

	var to r2.Vec
	moved := false
	if step != (r2.Vec{}) {
		for _, d := range [3]r2.Vec{step, {X: step.X}, {Y: step.Y}} {
			if d == (r2.Vec{}) {
				continue
			}
			to = r2.Add(from, d)
			if s.traversable(from, to) {
				moved = true
				break
			}
		}
		motion.Blocked = !moved
	}

	var dist float64
	if moved {
		dist = r2.Norm(r2.Sub(to, from))
		pos.X, pos.Y = to.X, to.Y
		vel.X = (to.X - from.X) / s.cfg.Sim.DT
		vel.Y = (to.Y - from.Y) / s.cfg.Sim.DT
	} else {
		vel.X, vel.Y = 0, 0
	}

	odo.Steps++
	odo.Distance += dist
	if motion.Blocked {
		odo.BlockedSteps++
	}
	s.collector.RecordStep(telemetry.StepRecord{
		Distance:   dist,
		Blocked:    motion.Blocked,
		Fallback:   motion.Fallback,
		Unemployed: motion.Unemployed,
		RouteLen:   motion.RouteLen,
		HasRoute:   motion.HasTarget,
	})
}

// traversable reports whether a robot can travel the straight segment from
// from to to. The segment is sampled at half-cell spacing so every cell it
// touches is visited in order, whatever the step length.
func (s *Simulation) traversable(from, to r2.Vec) bool {
	d := r2.Sub(to, from)
	n := max(1, int(math.Ceil(2*r2.Norm(d)/s.grid.Resolution())))
	prev := s.grid.WorldToCell(from)
	for i := 1; i <= n; i++ {
		cur := s.grid.WorldToCell(r2.Add(from, r2.Scale(float64(i)/float64(n), d)))
		if cur == prev {
			continue
		}
		if !s.crossable(prev, cur) {
			return false
		}
		prev = cur
	}
	return true
}

// crossable reports whether a robot may pass between two touching cells.
// A diagonal change needs both side cells free, so robots never clip a
// wall corner or slip between diagonally touching obstacles.
func (s *Simulation) crossable(a, b grid.Point) bool {
	if !s.passable(b) || !s.grid.PathVisible(a, b) {
		return false
	}
	if a.X != b.X && a.Y != b.Y {
		return s.passable(grid.Point{X: b.X, Y: a.Y}) && s.passable(grid.Point{X: a.X, Y: b.Y})
	}
	return true
}

// passable reports whether a robot may stand in cell p.
func (s *Simulation) passable(p grid.Point) bool {
	c, ok := s.grid.At(p)
	return ok && !c.State().IsObstacle()
}

// Run steps until the context is cancelled, the tick limit is reached or,
// with stop_when_done set, nothing is left to explore.
func (s *Simulation) Run(ctx context.Context) error {
	maxTicks := s.cfg.Sim.MaxTicks
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.cfg.Sim.StopWhenDone && s.Done() {
			slog.Info("exploration finished",
				"tick", s.tick,
				"progress", s.grid.ExplorationProgress(),
				"frontiers", s.grid.FrontierCount(),
			)
			return nil
		}
		if maxTicks > 0 && int(s.tick) >= maxTicks {
			slog.Info("max ticks reached", "tick", s.tick, "progress", s.grid.ExplorationProgress())
			return nil
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
}
