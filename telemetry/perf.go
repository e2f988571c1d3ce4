package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one stage of a simulation tick.
type Phase uint8

// Tick phases in execution order.
const (
	PhasePartition Phase = iota
	PhaseStrategy
	PhaseMove
	PhaseExplore
	PhasePostProcess
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{
	"partition", "strategy", "move", "explore", "post_process", "telemetry",
}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// tickSample is the timing of one completed tick.
type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector times tick phases over a rolling window of ticks.
type PerfCollector struct {
	samples []tickSample
	next    int
	count   int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inTick     bool
	inPhase    bool
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{samples: make([]tickSample, windowSize)}
}

// StartTick begins timing a tick, discarding any tick left open.
func (p *PerfCollector) StartTick() {
	p.cur = tickSample{}
	p.tickStart = time.Now()
	p.inTick = true
	p.inPhase = false
}

// StartPhase closes the running phase and starts timing the next one.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = phase < numPhases
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
		p.inPhase = false
	}
}

// EndTick records the open tick. Calling it without an open tick does
// nothing.
func (p *PerfCollector) EndTick() {
	if !p.inTick {
		return
	}
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)
	p.inTick = false

	p.samples[p.next] = p.cur
	p.next = (p.next + 1) % len(p.samples)
	p.count = min(p.count+1, len(p.samples))
}

// PerfStats summarises tick timing over the window.
type PerfStats struct {
	Ticks          int
	MeanTick       time.Duration
	P95Tick        time.Duration
	MaxTick        time.Duration
	TicksPerSecond float64
	// PhasePct is each phase's share of the total tick time, in percent.
	PhasePct [numPhases]float64
}

// Stats aggregates the recorded ticks.
func (p *PerfCollector) Stats() PerfStats {
	if p.count == 0 {
		return PerfStats{}
	}

	totals := make([]float64, p.count)
	var phaseSum [numPhases]time.Duration
	for i, s := range p.samples[:p.count] {
		totals[i] = float64(s.total)
		for ph, d := range s.phases {
			phaseSum[ph] += d
		}
	}
	sort.Float64s(totals)

	mean := stat.Mean(totals, nil)
	ps := PerfStats{
		Ticks:    p.count,
		MeanTick: time.Duration(mean),
		P95Tick:  time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil)),
		MaxTick:  time.Duration(totals[len(totals)-1]),
	}
	if mean > 0 {
		ps.TicksPerSecond = float64(time.Second) / mean
		sum := mean * float64(p.count)
		for ph, d := range phaseSum {
			ps.PhasePct[ph] = float64(d) / sum * 100
		}
	}
	return ps
}

// Slowest returns the phase with the largest share of tick time.
func (s PerfStats) Slowest() Phase {
	best := PhasePartition
	for ph := PhasePartition; ph < numPhases; ph++ {
		if s.PhasePct[ph] > s.PhasePct[best] {
			best = ph
		}
	}
	return best
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("mean_tick_us", s.MeanTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
		slog.String("slowest", s.Slowest().String()),
	}
	for ph := PhasePartition; ph < numPhases; ph++ {
		attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	RunID          string  `csv:"run_id"`
	WindowEnd      int32   `csv:"window_end"`
	MeanTickUS     int64   `csv:"mean_tick_us"`
	P95TickUS      int64   `csv:"p95_tick_us"`
	MaxTickUS      int64   `csv:"max_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	Slowest        string  `csv:"slowest_phase"`
	PartitionPct   float64 `csv:"partition_pct"`
	StrategyPct    float64 `csv:"strategy_pct"`
	MovePct        float64 `csv:"move_pct"`
	ExplorePct     float64 `csv:"explore_pct"`
	PostProcessPct float64 `csv:"post_process_pct"`
	TelemetryPct   float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:      windowEnd,
		MeanTickUS:     s.MeanTick.Microseconds(),
		P95TickUS:      s.P95Tick.Microseconds(),
		MaxTickUS:      s.MaxTick.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		Slowest:        s.Slowest().String(),
		PartitionPct:   s.PhasePct[PhasePartition],
		StrategyPct:    s.PhasePct[PhaseStrategy],
		MovePct:        s.PhasePct[PhaseMove],
		ExplorePct:     s.PhasePct[PhaseExplore],
		PostProcessPct: s.PhasePct[PhasePostProcess],
		TelemetryPct:   s.PhasePct[PhaseTelemetry],
	}
}
