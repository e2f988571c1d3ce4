// Package telemetry tracks exploration progress, milestones and
// performance, and writes them out as CSV.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Grid state at window end
	Progress      float64 `csv:"progress"`
	ExploredCells int     `csv:"explored_cells"`
	FreeCells     int     `csv:"free_cells"`
	Frontiers     int     `csv:"frontiers"`

	// Events during window
	Revealed     int     `csv:"revealed"` // free cells turned Explored
	Distance     float64 `csv:"distance"` // travelled by all robots
	Steps        int     `csv:"steps"`
	BlockedSteps int     `csv:"blocked_steps"`
	Fallbacks    int     `csv:"fallbacks"`
	Unemployed   int     `csv:"unemployed"`

	// Planned route lengths (world units)
	RouteMean float64 `csv:"route_mean"`
	RouteP50  float64 `csv:"route_p50"`
	RouteP90  float64 `csv:"route_p90"`

	// Territory balance: cells per robot at window end
	TerritoryMean float64 `csv:"territory_mean"`
	TerritoryCV   float64 `csv:"territory_cv"` // std / mean
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean, median and 90th percentile.
func ComputeDistribution(values []float64) (mean, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// ComputeBalance returns the mean and coefficient of variation of values.
// The coefficient is 0 when the mean is 0.
func ComputeBalance(values []float64) (mean, cv float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean == 0 {
		return 0, 0
	}
	return mean, std / mean
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Float64("progress", s.Progress),
		slog.Int("explored_cells", s.ExploredCells),
		slog.Int("free_cells", s.FreeCells),
		slog.Int("frontiers", s.Frontiers),
		slog.Int("revealed", s.Revealed),
		slog.Float64("distance", s.Distance),
		slog.Int("steps", s.Steps),
		slog.Int("blocked_steps", s.BlockedSteps),
		slog.Int("fallbacks", s.Fallbacks),
		slog.Int("unemployed", s.Unemployed),
		slog.Float64("route_mean", s.RouteMean),
		slog.Float64("route_p50", s.RouteP50),
		slog.Float64("route_p90", s.RouteP90),
		slog.Float64("territory_mean", s.TerritoryMean),
		slog.Float64("territory_cv", s.TerritoryCV),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"progress", s.Progress,
		"explored_cells", s.ExploredCells,
		"frontiers", s.Frontiers,
		"revealed", s.Revealed,
		"distance", s.Distance,
		"blocked_steps", s.BlockedSteps,
		"fallbacks", s.Fallbacks,
		"unemployed", s.Unemployed,
		"route_p50", s.RouteP50,
		"territory_cv", s.TerritoryCV,
	)
}
