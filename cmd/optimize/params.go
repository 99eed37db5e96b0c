// Package main provides CMA-ES optimization for genetic algorithm parameters.
package main

import (
	"math"

	"github.com/pthm-cable/flappy/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Path string  // Config path for logging
	Min  float64 // Lower bound
	Max  float64 // Upper bound
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Mutation
			{Name: "mutation_rate", Path: "mutation.rate", Min: 0.01, Max: 0.5},
			{Name: "mutation_sigma", Path: "mutation.sigma", Min: 0.02, Max: 1.0},
			{Name: "mutation_big_rate", Path: "mutation.big_rate", Min: 0.0, Max: 0.3},
			{Name: "mutation_big_sigma", Path: "mutation.big_sigma", Min: 0.2, Max: 3.0},
			{Name: "mutation_max_delta", Path: "mutation.max_delta", Min: 0.5, Max: 5.0},
			// Selection
			{Name: "elites", Path: "population.elites", Min: 0, Max: 10},
			{Name: "breeding_pool", Path: "population.breeding_pool", Min: 0.05, Max: 1.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Min(math.Max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Mutation.Rate = clamped[0]
	cfg.Mutation.Sigma = clamped[1]
	cfg.Mutation.BigRate = clamped[2]
	cfg.Mutation.BigSigma = clamped[3]
	cfg.Mutation.MaxDelta = clamped[4]

	// Elites may not take the whole population
	elites := int(math.Round(clamped[5]))
	if elites > cfg.Population.Size-1 {
		elites = cfg.Population.Size - 1
	}
	cfg.Population.Elites = elites
	cfg.Population.BreedingPool = clamped[6]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Mutation.Rate,
		cfg.Mutation.Sigma,
		cfg.Mutation.BigRate,
		cfg.Mutation.BigSigma,
		cfg.Mutation.MaxDelta,
		float64(cfg.Population.Elites),
		cfg.Population.BreedingPool,
	}
}
