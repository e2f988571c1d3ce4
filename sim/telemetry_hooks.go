package sim

import (
	"log/slog"

	"github.com/pthm-cable/frontier/grid"
	"github.com/pthm-cable/frontier/telemetry"
)

// checkMilestones reports progress thresholds and frontier exhaustion.
func (s *Simulation) checkMilestones() {
	simTime := float64(s.tick) * s.cfg.Sim.DT
	for _, m := range s.milestones.CheckTick(s.tick, simTime, s.grid.ExplorationProgress(), s.grid.FrontierCount()) {
		s.recordMilestone(m)
	}
}

func (s *Simulation) recordMilestone(m telemetry.Milestone) {
	if s.logStats {
		m.LogMilestone()
	}
	if err := s.outputManager.WriteMilestone(m); err != nil {
		slog.Error("failed to write milestone", "error", err)
	}
}

// flushTelemetry checks if the stats window should be flushed and handles
// stall detection.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	stats := s.collector.Flush(s.tick, s.sampleGrid())
	stats.RunID = s.outputManager.RunID()
	perfStats := s.perfCollector.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := s.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, m := range s.milestones.CheckWindow(stats) {
		s.recordMilestone(m)
	}
}

// sampleGrid captures the grid state at window end.
func (s *Simulation) sampleGrid() telemetry.GridSample {
	return telemetry.GridSample{
		Progress:       s.grid.ExplorationProgress(),
		ExploredCells:  s.grid.ExploredCellCount(),
		FreeCells:      s.grid.FreeCellCount(),
		Frontiers:      s.grid.FrontierCount(),
		TerritorySizes: s.territorySizes(),
	}
}

// territorySizes counts the cells owned by each robot.
func (s *Simulation) territorySizes() []float64 {
	sizes := make([]float64, len(s.robots))
	s.grid.Each(func(_ grid.Point, c *grid.Cell) {
		if c.Robot >= 0 && int(c.Robot) < len(sizes) {
			sizes[c.Robot]++
		}
	})
	return sizes
}

// summaries builds the per-robot end-of-run records.
func (s *Simulation) summaries() []telemetry.RobotSummary {
	sizes := s.territorySizes()
	out := make([]telemetry.RobotSummary, len(s.robots))
	query := s.robotFilter.Query()
	for query.Next() {
		robot, pos, _, _, _, odo := query.Get()
		out[robot.ID] = telemetry.RobotSummary{
			Robot:         int(robot.ID),
			Name:          robot.Name,
			FinalX:        pos.X,
			FinalY:        pos.Y,
			Distance:      odo.Distance,
			Steps:         odo.Steps,
			BlockedSteps:  odo.BlockedSteps,
			Fallbacks:     odo.Fallbacks,
			Unemployed:    odo.Unemployed,
			Revealed:      odo.Revealed,
			TerritorySize: int(sizes[robot.ID]),
		}
	}
	return out
}
