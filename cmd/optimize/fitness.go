package main

import (
	"log/slog"
	"math"
	"slices"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/frontier/config"
	"github.com/pthm-cable/frontier/sim"
	"github.com/pthm-cable/frontier/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params   *ParamVector
	maxTicks int32
	target   float64 // exploration progress that counts as done
	seeds    []int64
	base     *config.Config

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
	lastTicks   float64 // mean ticks to target from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, target float64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:   params,
		maxTicks: maxTicks,
		target:   target,
		seeds:    seeds,
		base:     baseCfg,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastTicks returns the mean ticks to target from the most recent evaluation.
func (fe *FitnessEvaluator) LastTicks() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastTicks
}

// runResult holds the results from a single simulation run.
type runResult struct {
	ticksToTarget int32   // maxTicks when the target was never reached
	finalProgress float64 // progress when the run stopped
	windowStats   []telemetry.WindowStats
	err           error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Every seed generates its own scene, and all seeds run in parallel.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality, totalTicks float64
	for _, r := range results {
		if r.err != nil {
			slog.Error("evaluation run failed", "error", r.err)
		}
		q := computeQuality(r.windowStats)
		totalFitness += fe.computeFitness(r, q)
		totalQuality += q
		totalTicks += float64(r.ticksToTarget)
	}

	n := float64(len(fe.seeds))
	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.lastTicks = totalTicks / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless run until the target progress
// is reached, nothing is left to explore or maxTicks pass.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Scene.Seed = seed
	cfg.Strategy.Seed = seed

	result := &runResult{ticksToTarget: fe.maxTicks}

	s, err := sim.New(sim.Options{
		Config: cfg,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		result.err = err
		return result
	}
	defer s.Close()

	g := s.Grid()
	for s.Tick() < fe.maxTicks && !s.Done() {
		if err := s.Step(); err != nil {
			result.err = err
			break
		}
		if g.ExplorationProgress() >= fe.target {
			result.ticksToTarget = s.Tick()
			break
		}
	}
	if s.Done() && result.ticksToTarget == fe.maxTicks {
		// Ran out of reachable frontier short of the target.
		result.ticksToTarget = s.Tick()
	}
	result.finalProgress = g.ExplorationProgress()
	return result
}

// copyConfig creates a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.base
	cfg.Robots.Starts = slices.Clone(fe.base.Robots.Starts)
	cfg.Telemetry.Milestones = slices.Clone(fe.base.Telemetry.Milestones)
	cfg.Scene.File = "" // every seed generates its own scene
	cfg.Sim.MaxTicks = int(fe.maxTicks)
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: ticksToTarget × (1 + missing) × (1 − 0.2 × quality), where
// missing is the progress still lacking at the end of the run.
func (fe *FitnessEvaluator) computeFitness(r *runResult, quality float64) float64 {
	if r.err != nil {
		return math.Inf(1)
	}
	missing := max(fe.target-r.finalProgress, 0)
	return float64(r.ticksToTarget) * (1.0 + missing) * (1.0 - 0.2*quality)
}

// Quality component weights.
const (
	qualityWeightBalance    = 0.5
	qualityWeightEfficiency = 0.5
)

// computeQuality scores a run ∈ [0, 1] from its window stats: evenly sized
// territories and few wasted steps score high.
func computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) == 0 {
		return 0
	}

	cvs := make([]float64, 0, len(windows))
	var steps, wasted int
	for _, w := range windows {
		cvs = append(cvs, w.TerritoryCV)
		steps += w.Steps
		wasted += w.BlockedSteps + w.Fallbacks
	}

	meanCV := stat.Mean(cvs, nil)
	balanceScore := math.Exp(-meanCV * meanCV)

	efficiencyScore := 0.0
	if steps > 0 {
		efficiencyScore = 1.0 - float64(wasted)/float64(steps)
	}

	quality := qualityWeightBalance*balanceScore + qualityWeightEfficiency*efficiencyScore
	return clamp01(quality)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
