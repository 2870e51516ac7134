package simulation

import (
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/nvandessel/tanklab/internal/models"
)

// Engine runs experiments with fixed model constants and a shared noise
// source. It is safe for concurrent use; runs are serialized on the noise
// source so a seeded engine stays reproducible.
type Engine struct {
	mu     sync.Mutex
	config Config
	noise  NoiseSource
	newID  func() string
}

// NewEngine creates an engine. A nil noise source makes every run noiseless.
func NewEngine(config Config, noise NoiseSource) *Engine {
	if noise == nil {
		noise = zeroNoise{}
	}
	return &Engine{
		config: config.withDefaults(),
		noise:  noise,
		newID:  uuid.NewString,
	}
}

// Config returns the engine's effective model constants.
func (e *Engine) Config() Config {
	return e.config
}

// Run computes the ideal and plant responses for params and tags the result
// with a fresh run id.
func (e *Engine) Run(params models.ExperimentParams) models.SimulationResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := simulate(e.config, params, e.noise)
	r.RunID = e.newID()
	return r
}

// Run computes a result with DefaultConfig and the given noise source.
// It is the pure form of Engine.Run: no run id is assigned.
func Run(params models.ExperimentParams, noise NoiseSource) models.SimulationResult {
	if noise == nil {
		noise = zeroNoise{}
	}
	return simulate(DefaultConfig(), params, noise)
}

// TimeGrid returns duration samples evenly spaced from 0 to duration
// inclusive, and the spacing between them. A single sample has spacing 1.
// Non-positive durations yield an empty grid.
func TimeGrid(duration int) ([]float64, float64) {
	if duration <= 0 {
		return []float64{}, 1.0
	}
	if duration == 1 {
		return []float64{0}, 1.0
	}

	step := float64(duration) / float64(duration-1)
	grid := make([]float64, duration)
	for i := range grid {
		grid[i] = float64(i) * step
	}
	grid[duration-1] = float64(duration)
	return grid, grid[1] - grid[0]
}

func simulate(cfg Config, params models.ExperimentParams, noise NoiseSource) models.SimulationResult {
	cfg = cfg.withDefaults()
	t, dt := TimeGrid(params.DurationSeconds)
	n := len(t)

	h := params.MaxHeight
	hi := math.Max(0, h)
	u := math.Max(params.InflowRate, cfg.MinInflow)
	k := h / u
	kPlant := cfg.PlantGainRatio * k
	sigma := cfg.NoiseLevel * h

	ideal := make([]float64, n)
	plant := make([]float64, n)
	for i, ti := range t {
		ideal[i] = clamp(k*u*(1-math.Exp(-ti/cfg.IdealTau)), 0, hi)

		p := kPlant * u * (1 - math.Exp(-ti/cfg.PlantTau))
		if sigma > 0 {
			p += sigma * noise.NormFloat64()
		}
		plant[i] = clamp(p, 0, hi)
	}

	m := computeMetrics(ideal, plant, dt)

	return models.SimulationResult{
		Time:                 t,
		IdealLevel:           ideal,
		PlantLevel:           plant,
		MeanAbsoluteError:    m.mae,
		PeakLevel:            m.peak,
		TotalDurationSeconds: params.DurationSeconds,
		IAE:                  m.iae,
		ISAE:                 m.isae,
		InflowRate:           params.InflowRate,
		OutflowRate:          params.OutflowRate,
		MaxHeight:            params.MaxHeight,
		NoiseLevel:           cfg.NoiseLevel,
	}
}

type metrics struct {
	mae, iae, isae, peak float64
}

// computeMetrics evaluates the error e = plant - ideal sample by sample.
func computeMetrics(ideal, plant []float64, dt float64) metrics {
	var m metrics
	if len(plant) == 0 {
		return m
	}

	var sumAbs, sumSq float64
	m.peak = plant[0]
	for i := range plant {
		e := plant[i] - ideal[i]
		sumAbs += math.Abs(e)
		sumSq += e * e
		if plant[i] > m.peak {
			m.peak = plant[i]
		}
	}

	m.mae = sumAbs / float64(len(plant))
	m.iae = dt * sumAbs
	m.isae = dt * sumSq
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
