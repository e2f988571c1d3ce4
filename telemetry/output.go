package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/pthm-cable/frontier/config"
)

// RobotSummary is the per-robot record written when a run ends.
type RobotSummary struct {
	RunID         string  `csv:"run_id"`
	Robot         int     `csv:"robot"`
	Name          string  `csv:"name"`
	FinalX        float64 `csv:"final_x"`
	FinalY        float64 `csv:"final_y"`
	Distance      float64 `csv:"distance"`
	Steps         int     `csv:"steps"`
	BlockedSteps  int     `csv:"blocked_steps"`
	Fallbacks     int     `csv:"fallbacks"`
	Unemployed    int     `csv:"unemployed"`
	Revealed      int     `csv:"revealed"`
	TerritorySize int     `csv:"territory_size"`
}

// csvSink is one CSV file whose header is written with the first record.
type csvSink struct {
	file          *os.File
	headerWritten bool
}

func (s *csvSink) write(records any) error {
	if !s.headerWritten {
		if err := gocsv.Marshal(records, s.file); err != nil {
			return err
		}
		s.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, s.file)
}

// OutputManager handles structured run output with CSV logging.
// A nil OutputManager discards everything.
type OutputManager struct {
	dir   string
	runID string

	telemetry  csvSink
	perf       csvSink
	milestones csvSink
	robots     csvSink
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, runID: uuid.NewString()}

	files := []struct {
		name string
		sink *csvSink
	}{
		{"telemetry.csv", &om.telemetry},
		{"perf.csv", &om.perf},
		{"milestones.csv", &om.milestones},
		{"robots.csv", &om.robots},
	}
	for _, f := range files {
		fh, err := os.Create(filepath.Join(dir, f.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", f.name, err)
		}
		f.sink.file = fh
	}

	return om, nil
}

// RunID returns the identifier stamped on every record of this run.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	stats.RunID = om.runID
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	rec := stats.ToCSV(windowEnd)
	rec.RunID = om.runID
	if err := om.perf.write([]PerfStatsCSV{rec}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteMilestone writes a milestone record to milestones.csv.
func (om *OutputManager) WriteMilestone(m Milestone) error {
	if om == nil {
		return nil
	}
	m.RunID = om.runID
	if err := om.milestones.write([]Milestone{m}); err != nil {
		return fmt.Errorf("writing milestone: %w", err)
	}
	return nil
}

// WriteRobots writes the per-robot summaries to robots.csv.
func (om *OutputManager) WriteRobots(robots []RobotSummary) error {
	if om == nil || len(robots) == 0 {
		return nil
	}
	recs := make([]RobotSummary, len(robots))
	for i, r := range robots {
		r.RunID = om.runID
		recs[i] = r
	}
	if err := om.robots.write(recs); err != nil {
		return fmt.Errorf("writing robots: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvSink{&om.telemetry, &om.perf, &om.milestones, &om.robots} {
		if s.file == nil {
			continue
		}
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.file = nil
	}
	return firstErr
}
