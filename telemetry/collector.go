package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	revealed     int
	distance     float64
	steps        int
	blockedSteps int
	fallbacks    int
	unemployed   int
	routes       []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// StepRecord describes one robot's move within a tick.
type StepRecord struct {
	Distance   float64
	Blocked    bool
	Fallback   bool
	Unemployed bool
	RouteLen   float64
	HasRoute   bool
}

// RecordStep records one robot step.
func (c *Collector) RecordStep(r StepRecord) {
	c.steps++
	c.distance += r.Distance
	if r.Blocked {
		c.blockedSteps++
	}
	if r.Fallback {
		c.fallbacks++
	}
	if r.Unemployed {
		c.unemployed++
	}
	if r.HasRoute {
		c.routes = append(c.routes, r.RouteLen)
	}
}

// RecordRevealed records free cells that became Explored.
func (c *Collector) RecordRevealed(n int) {
	c.revealed += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// GridSample is the grid state sampled at window end.
type GridSample struct {
	Progress       float64
	ExploredCells  int
	FreeCells      int
	Frontiers      int
	TerritorySizes []float64 // cells owned per robot
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, gs GridSample) WindowStats {
	routeMean, routeP50, routeP90 := ComputeDistribution(c.routes)
	terrMean, terrCV := ComputeBalance(gs.TerritorySizes)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Progress:      gs.Progress,
		ExploredCells: gs.ExploredCells,
		FreeCells:     gs.FreeCells,
		Frontiers:     gs.Frontiers,

		Revealed:     c.revealed,
		Distance:     c.distance,
		Steps:        c.steps,
		BlockedSteps: c.blockedSteps,
		Fallbacks:    c.fallbacks,
		Unemployed:   c.unemployed,

		RouteMean: routeMean,
		RouteP50:  routeP50,
		RouteP90:  routeP90,

		TerritoryMean: terrMean,
		TerritoryCV:   terrCV,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.revealed = 0
	c.distance = 0
	c.steps = 0
	c.blockedSteps = 0
	c.fallbacks = 0
	c.unemployed = 0
	c.routes = c.routes[:0]

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
