package models

import (
	"time"
)

// Defaults match the classroom dashboard's parameter widgets.
const (
	DefaultDurationSeconds = 100
	DefaultInflowRate      = 5.0
	DefaultOutflowRate     = 3.0
	DefaultMaxHeight       = 10.0

	MinDurationSeconds = 10
	MaxDurationSeconds = 200
)

// ExperimentParams are the inputs of a single step-response run.
type ExperimentParams struct {
	DurationSeconds int     `json:"duration_seconds" yaml:"duration_seconds"`
	InflowRate      float64 `json:"inflow_rate" yaml:"inflow_rate"`   // L/s, step amplitude
	OutflowRate     float64 `json:"outflow_rate" yaml:"outflow_rate"` // L/s, recorded only
	MaxHeight       float64 `json:"max_height" yaml:"max_height"`     // m
}

// DefaultExperimentParams returns the parameters the dashboard starts with.
func DefaultExperimentParams() ExperimentParams {
	return ExperimentParams{
		DurationSeconds: DefaultDurationSeconds,
		InflowRate:      DefaultInflowRate,
		OutflowRate:     DefaultOutflowRate,
		MaxHeight:       DefaultMaxHeight,
	}
}

// SimulationResult holds the trajectories and metrics of one experiment run.
//
// Time, IdealLevel and PlantLevel always have the same length.
type SimulationResult struct {
	// RunID uniquely identifies the run across stores and backups.
	RunID string `json:"run_id"`

	Time       []float64 `json:"time"`
	IdealLevel []float64 `json:"ideal_level"`
	PlantLevel []float64 `json:"plant_level"`

	MeanAbsoluteError    float64 `json:"mean_absolute_error"`
	PeakLevel            float64 `json:"peak_level"`
	TotalDurationSeconds int     `json:"total_duration_seconds"`

	// IAE and ISAE are discrete integrals of the tracking error.
	IAE  float64 `json:"iae"`
	ISAE float64 `json:"isae"`

	InflowRate  float64 `json:"inflow_rate"`
	OutflowRate float64 `json:"outflow_rate"`
	MaxHeight   float64 `json:"max_height"`
	NoiseLevel  float64 `json:"noise_level"`

	// CreatedAt is set by the store when the result is saved.
	CreatedAt time.Time `json:"created_at"`
}

// Samples returns the number of time samples in the result.
func (r *SimulationResult) Samples() int {
	return len(r.Time)
}

// Clone returns a deep copy of r. Stores hand out clones so callers
// never share slices with stored state.
func (r *SimulationResult) Clone() *SimulationResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Time = cloneFloats(r.Time)
	c.IdealLevel = cloneFloats(r.IdealLevel)
	c.PlantLevel = cloneFloats(r.PlantLevel)
	return &c
}

// Params returns the experiment parameters the result was produced with.
func (r *SimulationResult) Params() ExperimentParams {
	return ExperimentParams{
		DurationSeconds: r.TotalDurationSeconds,
		InflowRate:      r.InflowRate,
		OutflowRate:     r.OutflowRate,
		MaxHeight:       r.MaxHeight,
	}
}

// RankedResult is one row of the global ranking.
type RankedResult struct {
	Rank   int              `json:"rank"` // 1-based
	Email  string           `json:"email"`
	Result SimulationResult `json:"result"`
}

func cloneFloats(src []float64) []float64 {
	if src == nil {
		return nil
	}
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst
}
