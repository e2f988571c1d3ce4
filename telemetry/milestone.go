package telemetry

import (
	"fmt"
	"log/slog"
)

// MilestoneType identifies the type of milestone.
type MilestoneType string

const (
	MilestoneProgress  MilestoneType = "progress"
	MilestoneExhausted MilestoneType = "frontier_exhausted"
	MilestoneStall     MilestoneType = "stall"
	MilestoneResume    MilestoneType = "resume"
)

// Milestone is a notable moment of a run.
type Milestone struct {
	RunID       string        `csv:"run_id"`
	Type        MilestoneType `csv:"type"`
	Tick        int32         `csv:"tick"`
	SimTimeSec  float64       `csv:"sim_time"`
	Progress    float64       `csv:"progress"`
	Description string        `csv:"description"`
}

// LogMilestone logs the milestone using slog.
func (m Milestone) LogMilestone() {
	slog.Info("milestone",
		"type", string(m.Type),
		"tick", m.Tick,
		"sim_time", m.SimTimeSec,
		"progress", m.Progress,
		"description", m.Description,
	)
}

// MilestoneDetector reports progress thresholds as they are crossed, the
// moment the frontier runs out, and windows where progress stalls.
type MilestoneDetector struct {
	thresholds []float64 // ascending
	next       int
	exhausted  bool

	// Rolling history of window progress (circular buffer)
	history     []float64
	historySize int
	historyIdx  int
	historyFull bool
	stalled     bool
	minGain     float64
}

// NewMilestoneDetector creates a detector for the given ascending progress
// thresholds. A stall is reported when progress gains less than minGain
// over historySize windows.
func NewMilestoneDetector(thresholds []float64, historySize int, minGain float64) *MilestoneDetector {
	if historySize < 2 {
		historySize = 2
	}
	return &MilestoneDetector{
		thresholds:  thresholds,
		history:     make([]float64, historySize),
		historySize: historySize,
		minGain:     minGain,
	}
}

// CheckTick is called every tick and returns threshold and exhaustion
// milestones.
func (d *MilestoneDetector) CheckTick(tick int32, simTime, progress float64, frontiers int) []Milestone {
	var out []Milestone
	for d.next < len(d.thresholds) && progress >= d.thresholds[d.next] {
		th := d.thresholds[d.next]
		out = append(out, Milestone{
			Type:        MilestoneProgress,
			Tick:        tick,
			SimTimeSec:  simTime,
			Progress:    progress,
			Description: fmt.Sprintf("explored %.0f%% of free space", th*100),
		})
		d.next++
	}
	if frontiers == 0 && !d.exhausted {
		d.exhausted = true
		out = append(out, Milestone{
			Type:        MilestoneExhausted,
			Tick:        tick,
			SimTimeSec:  simTime,
			Progress:    progress,
			Description: "no frontier cells left",
		})
	}
	return out
}

// CheckWindow is called once per stats window and returns stall and resume
// milestones.
func (d *MilestoneDetector) CheckWindow(stats WindowStats) []Milestone {
	d.history[d.historyIdx] = stats.Progress
	d.historyIdx = (d.historyIdx + 1) % d.historySize
	if d.historyIdx == 0 {
		d.historyFull = true
	}
	if !d.historyFull || stats.Frontiers == 0 {
		return nil
	}

	// oldest entry sits at historyIdx once the buffer is full
	gain := stats.Progress - d.history[d.historyIdx]
	m := Milestone{
		Tick:       stats.WindowEndTick,
		SimTimeSec: stats.SimTimeSec,
		Progress:   stats.Progress,
	}
	switch {
	case gain < d.minGain && !d.stalled:
		d.stalled = true
		m.Type = MilestoneStall
		m.Description = fmt.Sprintf("progress gained %.4f over %d windows", gain, d.historySize)
		return []Milestone{m}
	case gain >= d.minGain && d.stalled:
		d.stalled = false
		m.Type = MilestoneResume
		m.Description = "progress resumed"
		return []Milestone{m}
	}
	return nil
}
