// Package sim drives a team of robots exploring an occupancy grid. Robots
// live in an ECS world and are addressed by their grid.RobotID.
package sim

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/components"
	"github.com/pthm-cable/frontier/config"
	"github.com/pthm-cable/frontier/grid"
	"github.com/pthm-cable/frontier/scene"
	"github.com/pthm-cable/frontier/strategy"
	"github.com/pthm-cable/frontier/telemetry"
	"github.com/pthm-cable/frontier/territory"
)

// ErrStartBlocked is returned when a robot starts on an obstacle.
var ErrStartBlocked = errors.New("sim: robot starts on an obstacle")

// Options configures a Simulation.
type Options struct {
	// Config holds the run parameters. Nil uses the embedded defaults.
	Config *config.Config
	// Grid replaces the configured scene when set.
	Grid *grid.Grid
	// OutputDir enables CSV output when non-empty.
	OutputDir string
	// LogStats logs window stats, perf stats and milestones.
	LogStats bool
	// StatsCallback is called with every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Simulation holds the complete run state.
type Simulation struct {
	cfg   *config.Config
	world *ecs.World
	grid  *grid.Grid

	robotMapper *ecs.Map6[
		components.Robot,
		components.Position,
		components.Velocity,
		components.Sensor,
		components.Motion,
		components.Odometry,
	]
	robotFilter *ecs.Filter6[
		components.Robot,
		components.Position,
		components.Velocity,
		components.Sensor,
		components.Motion,
		components.Odometry,
	]
	posMap *ecs.Map[components.Position]

	// robots is indexed by grid.RobotID.
	robots []ecs.Entity

	strategy    strategy.Strategy
	interpolate bool
	partition   territory.Options
	edit        scene.EditContext

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	milestones    *telemetry.MilestoneDetector
	outputManager *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)

	tick int32
}

// New creates a simulation, loads or generates its scene and spawns the
// robots. Each robot reveals its surroundings before the first tick.
func New(opts Options) (*Simulation, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(""); err != nil {
			return nil, err
		}
	}

	g, err := loadGrid(cfg, opts.Grid)
	if err != nil {
		return nil, err
	}

	strat, err := strategy.New(strategy.Kind(cfg.Strategy.Kind), strategy.Options{
		DensityK:      cfg.Strategy.DensityK,
		SensorRadius:  cfg.Robots.SensorRadius,
		MaxCandidates: cfg.Strategy.MaxCandidates,
		Seed:          cfg.Strategy.Seed,
		Persistence:   cfg.Strategy.Persistence,
	})
	if err != nil {
		return nil, err
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	world := ecs.NewWorld()
	s := &Simulation{
		cfg:   cfg,
		world: world,
		grid:  g,
		robotMapper: ecs.NewMap6[
			components.Robot,
			components.Position,
			components.Velocity,
			components.Sensor,
			components.Motion,
			components.Odometry,
		](world),
		robotFilter: ecs.NewFilter6[
			components.Robot,
			components.Position,
			components.Velocity,
			components.Sensor,
			components.Motion,
			components.Odometry,
		](world),
		posMap: ecs.NewMap[components.Position](world),

		strategy:    strat,
		interpolate: cfg.Strategy.Interpolate,
		partition:   territory.Options{NetworkRange: cfg.Territory.NetworkRange},
		edit:        scene.EditContext{OperationRadius: cfg.Robots.SensorRadius},

		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Sim.DT),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		milestones: telemetry.NewMilestoneDetector(
			cfg.Telemetry.Milestones, cfg.Telemetry.StallWindows, cfg.Telemetry.StallMinGain),
		outputManager: om,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}

	for i, start := range cfg.Robots.Starts {
		pos := r2.Vec{X: start.X, Y: start.Y}
		c, ok := g.At(g.WorldToCell(pos))
		if !ok {
			om.Close()
			return nil, fmt.Errorf("sim: robot %d at (%g, %g): %w", i, pos.X, pos.Y, grid.ErrOutOfBounds)
		}
		if c.State().IsObstacle() {
			om.Close()
			return nil, fmt.Errorf("%w: robot %d at (%g, %g)", ErrStartBlocked, i, pos.X, pos.Y)
		}
		s.spawnRobot(pos)
	}

	// Initial sweep so the first partition has a frontier to split.
	query := s.robotFilter.Query()
	for query.Next() {
		_, pos, _, sensor, _, odo := query.Get()
		before := g.ExploredCellCount()
		g.ExploreInRadius(pos.Vec(), sensor.Radius, true)
		odo.Revealed += g.ExploredCellCount() - before
	}

	slog.Info("simulation created",
		"strategy", strat.Kind(),
		"robots", len(s.robots),
		"cells", fmt.Sprintf("%dx%d", g.Width(), g.Height()),
		"free_cells", g.FreeCellCount(),
		"run_id", om.RunID(),
	)
	return s, nil
}

func loadGrid(cfg *config.Config, g *grid.Grid) (*grid.Grid, error) {
	if g != nil {
		return g, nil
	}
	if cfg.Scene.File != "" {
		return scene.LoadFile(cfg.Scene.File)
	}
	keep := make([]r2.Vec, len(cfg.Robots.Starts))
	for i, p := range cfg.Robots.Starts {
		keep[i] = r2.Vec{X: p.X, Y: p.Y}
	}
	return scene.Generate(scene.Params{
		Width:       cfg.Grid.Width,
		Height:      cfg.Grid.Height,
		Resolution:  cfg.Grid.Resolution,
		Seed:        cfg.Scene.Seed,
		NoiseScale:  cfg.Scene.NoiseScale,
		Threshold:   cfg.Scene.Threshold,
		Rooms:       cfg.Scene.Rooms,
		MinRoomSize: cfg.Scene.MinRoomSize,
		MaxRoomSize: cfg.Scene.MaxRoomSize,
		Keep:        keep,
	})
}

// spawnRobot creates the next robot entity at pos.
func (s *Simulation) spawnRobot(pos r2.Vec) ecs.Entity {
	id := grid.RobotID(len(s.robots))

	robot := components.Robot{ID: id, Name: fmt.Sprintf("robot-%d", id)}
	p := components.Position{X: pos.X, Y: pos.Y}
	vel := components.Velocity{}
	sensor := components.Sensor{Radius: s.cfg.Robots.SensorRadius}
	motion := components.Motion{Speed: s.cfg.Robots.Speed}
	odo := components.Odometry{}

	e := s.robotMapper.NewEntity(&robot, &p, &vel, &sensor, &motion, &odo)
	s.robots = append(s.robots, e)
	return e
}

// Grid returns the grid being explored.
func (s *Simulation) Grid() *grid.Grid { return s.grid }

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int32 { return s.tick }

// NumRobots returns the team size.
func (s *Simulation) NumRobots() int { return len(s.robots) }

// Strategy returns the kind of the active strategy.
func (s *Simulation) Strategy() strategy.Kind { return s.strategy.Kind() }

// RunID returns the run identifier, empty when output is disabled.
func (s *Simulation) RunID() string { return s.outputManager.RunID() }

// Positions returns the robot positions indexed by RobotID.
func (s *Simulation) Positions() []r2.Vec {
	out := make([]r2.Vec, len(s.robots))
	for i, e := range s.robots {
		out[i] = s.posMap.Get(e).Vec()
	}
	return out
}

// Robot returns the motion and odometry state of a robot.
func (s *Simulation) Robot(id grid.RobotID) (components.Motion, components.Odometry, error) {
	if id < 0 || int(id) >= len(s.robots) {
		return components.Motion{}, components.Odometry{}, fmt.Errorf("%w: %d", strategy.ErrNoRobot, id)
	}
	e := s.robots[id]
	motion := ecs.NewMap[components.Motion](s.world).Get(e)
	odo := ecs.NewMap[components.Odometry](s.world).Get(e)
	return *motion, *odo, nil
}

// Done reports whether nothing is left to explore.
func (s *Simulation) Done() bool {
	return s.grid.ExplorationProgress() >= 1 || s.grid.FrontierCount() == 0
}

// Close writes the per-robot summaries and closes the output files.
func (s *Simulation) Close() error {
	if err := s.outputManager.WriteRobots(s.summaries()); err != nil {
		slog.Error("failed to write robot summaries", "error", err)
	}
	return s.outputManager.Close()
}
