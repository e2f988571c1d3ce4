package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/frontier/config"
	"github.com/pthm-cable/frontier/telemetry"
)

func TestParamVectorNormalize(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: round trip %v, want %v", pv.Specs[i].Name, back[i], raw[i])
		}
	}
}

func TestParamVectorClamp(t *testing.T) {
	pv := NewParamVector()
	v := []float64{-1, 17.6, 2, 100}
	got := pv.Clamp(v)
	want := []float64{0.005, 18, 1, 40}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s: clamp %v = %v, want %v", pv.Specs[i].Name, v[i], got[i], want[i])
		}
	}
}

func TestParamVectorConfigRoundTrip(t *testing.T) {
	pv := NewParamVector()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	values := []float64{0.2, 32, 0.5, 12}
	pv.ApplyToConfig(cfg, values)
	if cfg.Strategy.MaxCandidates != 32 || cfg.Territory.NetworkRange != 12 {
		t.Errorf("config not updated: %+v %+v", cfg.Strategy, cfg.Territory)
	}
	got := pv.ExtractFromConfig(cfg)
	for i := range values {
		if got[i] != values[i] {
			t.Errorf("%s: extracted %v, want %v", pv.Specs[i].Name, got[i], values[i])
		}
	}
}

func TestComputeQuality(t *testing.T) {
	if q := computeQuality(nil); q != 0 {
		t.Errorf("empty run quality = %v, want 0", q)
	}

	perfect := []telemetry.WindowStats{{Steps: 10}, {Steps: 10}}
	if q := computeQuality(perfect); math.Abs(q-1) > 1e-9 {
		t.Errorf("balanced, efficient run quality = %v, want 1", q)
	}

	wasteful := []telemetry.WindowStats{{Steps: 10, BlockedSteps: 5, Fallbacks: 5, TerritoryCV: 1}}
	if q := computeQuality(wasteful); q >= 0.5 {
		t.Errorf("wasteful run quality = %v, want < 0.5", q)
	}
}

func TestComputeFitness(t *testing.T) {
	fe := NewFitnessEvaluator(NewParamVector(), 1000, 0.9, []int64{1}, nil)

	fast := fe.computeFitness(&runResult{ticksToTarget: 200, finalProgress: 0.9}, 0)
	slow := fe.computeFitness(&runResult{ticksToTarget: 400, finalProgress: 0.9}, 0)
	if fast >= slow {
		t.Errorf("fitness(200 ticks) = %v should be below fitness(400 ticks) = %v", fast, slow)
	}

	short := fe.computeFitness(&runResult{ticksToTarget: 1000, finalProgress: 0.5}, 0)
	if short <= 1000 {
		t.Errorf("missing progress should be penalised, got %v", short)
	}

	better := fe.computeFitness(&runResult{ticksToTarget: 200, finalProgress: 0.9}, 1)
	if better >= fast {
		t.Errorf("quality should lower fitness: %v >= %v", better, fast)
	}
}
