package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/frontier/config"
	"github.com/pthm-cable/frontier/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	scenePath := flag.String("scene", "", "Scene file to explore (empty = use config)")
	strategyKind := flag.String("strategy", "", "Steering strategy: nearest, density, maxarea, random (empty = use config)")
	seed := flag.Int64("seed", 0, "Strategy RNG seed (0 = use config, -1 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = use config)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("invalid log level", "level", *logLevel, "error", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// CLI overrides
	if *statsWindow > 0 {
		cfg.Telemetry.StatsWindow = *statsWindow
	}
	if *scenePath != "" {
		cfg.Scene.File = *scenePath
	}
	if *strategyKind != "" {
		cfg.Strategy.Kind = *strategyKind
	}
	switch {
	case *seed == -1:
		cfg.Strategy.Seed = time.Now().UnixNano()
	case *seed != 0:
		cfg.Strategy.Seed = *seed
	}
	if *maxTicks > 0 {
		cfg.Sim.MaxTicks = *maxTicks
	}

	s, err := sim.New(sim.Options{
		Config:    cfg,
		OutputDir: *outputDir,
		LogStats:  *logStats,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}

	slog.Info("starting headless exploration",
		"strategy", s.Strategy(),
		"robots", s.NumRobots(),
		"seed", cfg.Strategy.Seed,
		"max_ticks", cfg.Sim.MaxTicks,
		"output_dir", *outputDir,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	runErr := s.Run(ctx)
	if err := s.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}

	g := s.Grid()
	slog.Info("run finished",
		"ticks", s.Tick(),
		"progress", g.ExplorationProgress(),
		"explored_cells", g.ExploredCellCount(),
		"free_cells", g.FreeCellCount(),
		"frontiers", g.FrontierCount(),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("run failed", "error", runErr)
		os.Exit(1)
	}
}
