// Package config provides configuration loading and access for the exploration runs.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned by Load when a value is out of range.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all run configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Robots    RobotsConfig    `yaml:"robots"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Territory TerritoryConfig `yaml:"territory"`
	Scene     SceneConfig     `yaml:"scene"`
	Sim       SimConfig       `yaml:"sim"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds the world extent and cell size, in world units.
type GridConfig struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Resolution float64 `yaml:"resolution"`
}

// PointConfig is a world position.
type PointConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// RobotsConfig holds the robot team.
type RobotsConfig struct {
	Starts       []PointConfig `yaml:"starts"`        // one entry per robot
	SensorRadius float64       `yaml:"sensor_radius"` // world units
	Speed        float64       `yaml:"speed"`         // world units per second
}

// StrategyConfig selects and tunes the steering strategy.
type StrategyConfig struct {
	Kind          string  `yaml:"kind"` // nearest, density, maxarea, random
	Interpolate   bool    `yaml:"interpolate"`
	DensityK      float64 `yaml:"density_k"`      // falloff of exp(-k·d²)
	MaxCandidates int     `yaml:"max_candidates"` // frontiers scored per robot by maxarea
	Seed          int64   `yaml:"seed"`
	Persistence   float64 `yaml:"persistence"` // chance a random walker keeps its heading
}

// TerritoryConfig holds partition parameters.
type TerritoryConfig struct {
	NetworkRange float64 `yaml:"network_range"` // 0 disables the range limit
}

// SceneConfig selects the scene: a file when File is set, otherwise a
// generated layout.
type SceneConfig struct {
	File        string  `yaml:"file"`
	Seed        int64   `yaml:"seed"`
	NoiseScale  float64 `yaml:"noise_scale"`
	Threshold   float64 `yaml:"threshold"`
	Rooms       int     `yaml:"rooms"`
	MinRoomSize int     `yaml:"min_room_size"`
	MaxRoomSize int     `yaml:"max_room_size"`
}

// SimConfig holds tick parameters.
type SimConfig struct {
	DT           float64 `yaml:"dt"`             // seconds per tick
	MaxTicks     int     `yaml:"max_ticks"`      // 0 runs until done
	StopWhenDone bool    `yaml:"stop_when_done"` // stop once nothing is left to explore
}

// TelemetryConfig holds telemetry settings.
type TelemetryConfig struct {
	StatsWindow         float64   `yaml:"stats_window"` // seconds of sim time per stats row
	Milestones          []float64 `yaml:"milestones"`   // exploration progress fractions
	StallWindows        int       `yaml:"stall_windows"`  // windows compared for stall detection
	StallMinGain        float64   `yaml:"stall_min_gain"` // progress gain below which a run counts as stalled
	PerfCollectorWindow int       `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	StepLength       float64 // Robots.Speed * Sim.DT
	StatsWindowTicks int     // Telemetry.StatsWindow in ticks, at least 1
	NumRobots        int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	// A lone robot in the middle of the world if none specified
	if len(c.Robots.Starts) == 0 {
		c.Robots.Starts = []PointConfig{{X: c.Grid.Width / 2, Y: c.Grid.Height / 2}}
	}
	c.Derived.NumRobots = len(c.Robots.Starts)
	c.Derived.StepLength = c.Robots.Speed * c.Sim.DT

	c.Derived.StatsWindowTicks = 1
	if c.Sim.DT > 0 {
		c.Derived.StatsWindowTicks = max(1, int(math.Round(c.Telemetry.StatsWindow/c.Sim.DT)))
	}
	sort.Float64s(c.Telemetry.Milestones)
}

func (c *Config) validate() error {
	switch {
	case c.Grid.Width <= 0 || c.Grid.Height <= 0 || c.Grid.Resolution <= 0:
		return fmt.Errorf("%w: grid %gx%g at resolution %g", ErrInvalid, c.Grid.Width, c.Grid.Height, c.Grid.Resolution)
	case c.Robots.SensorRadius <= 0:
		return fmt.Errorf("%w: robots.sensor_radius %g", ErrInvalid, c.Robots.SensorRadius)
	case c.Robots.Speed <= 0 || c.Sim.DT <= 0:
		return fmt.Errorf("%w: robots.speed %g, sim.dt %g", ErrInvalid, c.Robots.Speed, c.Sim.DT)
	case c.Derived.StepLength > c.Grid.Resolution:
		return fmt.Errorf("%w: step %g (robots.speed * sim.dt) longer than a cell (%g)", ErrInvalid, c.Derived.StepLength, c.Grid.Resolution)
	case c.Strategy.Persistence < 0 || c.Strategy.Persistence > 1:
		return fmt.Errorf("%w: strategy.persistence %g", ErrInvalid, c.Strategy.Persistence)
	}
	for _, m := range c.Telemetry.Milestones {
		if m <= 0 || m > 1 {
			return fmt.Errorf("%w: milestone %g outside (0, 1]", ErrInvalid, m)
		}
	}
	for i, s := range c.Robots.Starts {
		if s.X < 0 || s.Y < 0 || s.X >= c.Grid.Width || s.Y >= c.Grid.Height {
			return fmt.Errorf("%w: robot %d starts outside the world at (%g, %g)", ErrInvalid, i, s.X, s.Y)
		}
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
