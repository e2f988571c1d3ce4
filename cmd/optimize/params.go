// Package main provides CMA-ES optimization for exploration strategy parameters.
package main

import (
	"math"

	"github.com/pthm-cable/frontier/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // Rounded before use
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Robot hardware (speed, sensor radius) and the team are fixed by the base
// config; only steering and partition knobs are tuned.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Strategy
			{Name: "density_k", Path: "strategy.density_k", Min: 0.005, Max: 0.5, Default: 0.05},
			{Name: "max_candidates", Path: "strategy.max_candidates", Min: 4, Max: 128, Default: 48, Integer: true},
			{Name: "persistence", Path: "strategy.persistence", Min: 0, Max: 1, Default: 0.9},
			// Territory (0 = unlimited)
			{Name: "network_range", Path: "territory.network_range", Min: 0, Max: 40, Default: 0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, ps := range pv.Specs {
		v[i] = ps.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, ps := range pv.Specs {
		normalized[i] = (raw[i] - ps.Min) / (ps.Max - ps.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, ps := range pv.Specs {
		raw[i] = ps.Min + normalized[i]*(ps.Max-ps.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds and integer parameters are whole.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, ps := range pv.Specs {
		val := min(max(v[i], ps.Min), ps.Max)
		if ps.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Strategy.DensityK = clamped[0]
	cfg.Strategy.MaxCandidates = int(clamped[1])
	cfg.Strategy.Persistence = clamped[2]
	cfg.Territory.NetworkRange = clamped[3]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Strategy.DensityK,
		float64(cfg.Strategy.MaxCandidates),
		cfg.Strategy.Persistence,
		cfg.Territory.NetworkRange,
	}
}
