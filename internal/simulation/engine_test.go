package simulation

import (
	"math"
	"testing"

	"github.com/nvandessel/tanklab/internal/models"
)

func params(duration int, inflow, height float64) models.ExperimentParams {
	return models.ExperimentParams{
		DurationSeconds: duration,
		InflowRate:      inflow,
		OutflowRate:     3,
		MaxHeight:       height,
	}
}

func TestTimeGrid(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		wantLen  int
		wantLast float64
		wantDt   float64
	}{
		{"negative", -5, 0, 0, 1},
		{"zero", 0, 0, 0, 1},
		{"single sample", 1, 1, 0, 1},
		{"two samples", 2, 2, 2, 2},
		{"default duration", 100, 100, 100, 100.0 / 99.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, dt := TimeGrid(tt.duration)
			if len(grid) != tt.wantLen {
				t.Fatalf("len(grid) = %d, want %d", len(grid), tt.wantLen)
			}
			if math.Abs(dt-tt.wantDt) > 1e-12 {
				t.Errorf("dt = %v, want %v", dt, tt.wantDt)
			}
			if tt.wantLen > 0 {
				if grid[0] != 0 {
					t.Errorf("grid[0] = %v, want 0", grid[0])
				}
				if grid[len(grid)-1] != tt.wantLast {
					t.Errorf("last sample = %v, want %v", grid[len(grid)-1], tt.wantLast)
				}
			}
		})
	}
}

func TestRun_DefaultScenario(t *testing.T) {
	r := Run(params(100, 5, 10), NewSeededNoise(7))

	if r.Samples() != 100 || len(r.IdealLevel) != 100 || len(r.PlantLevel) != 100 {
		t.Fatalf("series lengths = (%d, %d, %d), want 100 each", len(r.Time), len(r.IdealLevel), len(r.PlantLevel))
	}
	if r.IdealLevel[0] != 0 {
		t.Errorf("ideal[0] = %v, want 0", r.IdealLevel[0])
	}
	last := r.IdealLevel[len(r.IdealLevel)-1]
	if last < 9.5 || last > 10 {
		t.Errorf("ideal[-1] = %v, want within [9.5, 10]", last)
	}
	if r.TotalDurationSeconds != 100 {
		t.Errorf("TotalDurationSeconds = %d, want 100", r.TotalDurationSeconds)
	}
	if r.NoiseLevel != 0.05 {
		t.Errorf("NoiseLevel = %v, want default 0.05", r.NoiseLevel)
	}
	for i, p := range r.PlantLevel {
		if p < 0 || p > 10 {
			t.Fatalf("plant[%d] = %v, outside [0, 10]", i, p)
		}
	}
}

func TestRun_IdealMonotone(t *testing.T) {
	r := Run(params(200, 2, 5), nil)
	for i := 1; i < len(r.IdealLevel); i++ {
		if r.IdealLevel[i] < r.IdealLevel[i-1] {
			t.Fatalf("ideal not monotone at %d: %v < %v", i, r.IdealLevel[i], r.IdealLevel[i-1])
		}
	}
}

func TestRun_Metrics(t *testing.T) {
	r := Run(params(100, 5, 10), NewSeededNoise(3))

	var sumAbs, sumSq float64
	peak := math.Inf(-1)
	for i := range r.PlantLevel {
		e := r.PlantLevel[i] - r.IdealLevel[i]
		sumAbs += math.Abs(e)
		sumSq += e * e
		peak = math.Max(peak, r.PlantLevel[i])
	}
	dt := r.Time[1] - r.Time[0]

	if got, want := r.MeanAbsoluteError, sumAbs/100; math.Abs(got-want) > 1e-12 {
		t.Errorf("MAE = %v, want %v", got, want)
	}
	if got, want := r.IAE, dt*sumAbs; math.Abs(got-want) > 1e-9 {
		t.Errorf("IAE = %v, want %v", got, want)
	}
	if got, want := r.ISAE, dt*sumSq; math.Abs(got-want) > 1e-9 {
		t.Errorf("ISAE = %v, want %v", got, want)
	}
	if r.PeakLevel != peak {
		t.Errorf("PeakLevel = %v, want %v", r.PeakLevel, peak)
	}
	if r.MeanAbsoluteError < 0 || r.IAE < 0 || r.ISAE < 0 {
		t.Error("metrics must be non-negative")
	}
}

func TestRun_EdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		p       models.ExperimentParams
		wantLen int
	}{
		{"zero duration", params(0, 5, 10), 0},
		{"negative duration", params(-3, 5, 10), 0},
		{"single sample", params(1, 5, 10), 1},
		{"zero inflow floored", params(50, 0, 10), 50},
		{"negative inflow floored", params(50, -4, 10), 50},
		{"zero height", params(50, 5, 0), 50},
		{"negative height", params(50, 5, -2), 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Run(tt.p, NewSeededNoise(1))
			if r.Samples() != tt.wantLen || len(r.IdealLevel) != tt.wantLen || len(r.PlantLevel) != tt.wantLen {
				t.Fatalf("series lengths = (%d, %d, %d), want %d",
					len(r.Time), len(r.IdealLevel), len(r.PlantLevel), tt.wantLen)
			}
			hi := math.Max(0, tt.p.MaxHeight)
			for i := range r.PlantLevel {
				if r.PlantLevel[i] < 0 || r.PlantLevel[i] > hi || r.IdealLevel[i] < 0 || r.IdealLevel[i] > hi {
					t.Fatalf("sample %d out of [0, %v]: ideal=%v plant=%v", i, hi, r.IdealLevel[i], r.PlantLevel[i])
				}
			}
			if tt.wantLen == 0 && (r.MeanAbsoluteError != 0 || r.PeakLevel != 0) {
				t.Errorf("empty run metrics = (%v, %v), want zeros", r.MeanAbsoluteError, r.PeakLevel)
			}
			if math.IsNaN(r.MeanAbsoluteError) || math.IsNaN(r.IAE) || math.IsNaN(r.ISAE) {
				t.Errorf("metrics contain NaN: %+v", r)
			}
		})
	}
}

func TestRun_SingleSampleMetrics(t *testing.T) {
	r := Run(params(1, 5, 10), nil)
	if r.Time[0] != 0 || r.IdealLevel[0] != 0 || r.PlantLevel[0] != 0 {
		t.Errorf("single sample = (%v, %v, %v), want zeros", r.Time[0], r.IdealLevel[0], r.PlantLevel[0])
	}
	if r.MeanAbsoluteError != 0 || r.IAE != 0 {
		t.Errorf("noiseless single sample metrics = (%v, %v), want zeros", r.MeanAbsoluteError, r.IAE)
	}
}

func TestEngine_NoiselessIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NoiseLevel = 0
	a := NewEngine(cfg, NewSeededNoise(1)).Run(params(100, 5, 10))
	b := NewEngine(cfg, NewSeededNoise(2)).Run(params(100, 5, 10))

	for i := range a.PlantLevel {
		if a.PlantLevel[i] != b.PlantLevel[i] {
			t.Fatalf("plant[%d] differs across seeds with noise off: %v vs %v", i, a.PlantLevel[i], b.PlantLevel[i])
		}
	}
	if a.MeanAbsoluteError != b.MeanAbsoluteError {
		t.Errorf("MAE differs: %v vs %v", a.MeanAbsoluteError, b.MeanAbsoluteError)
	}
	// The plant lags the reference, so there is still a tracking error.
	if a.MeanAbsoluteError <= 0 {
		t.Errorf("noiseless MAE = %v, want > 0 from model mismatch", a.MeanAbsoluteError)
	}
}

func TestEngine_SeededReproducible(t *testing.T) {
	a := NewEngine(DefaultConfig(), NewSeededNoise(42)).Run(params(100, 5, 10))
	b := NewEngine(DefaultConfig(), NewSeededNoise(42)).Run(params(100, 5, 10))
	c := NewEngine(DefaultConfig(), NewSeededNoise(43)).Run(params(100, 5, 10))

	for i := range a.PlantLevel {
		if a.PlantLevel[i] != b.PlantLevel[i] {
			t.Fatalf("same seed produced different plant[%d]: %v vs %v", i, a.PlantLevel[i], b.PlantLevel[i])
		}
	}
	if a.MeanAbsoluteError == c.MeanAbsoluteError {
		t.Error("different seeds produced identical MAE")
	}
	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("run ids = %q, %q; want distinct non-empty", a.RunID, b.RunID)
	}
}

func TestEngine_OutflowIgnored(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	p := params(80, 5, 10)
	a := e.Run(p)
	p.OutflowRate = 50
	b := e.Run(p)

	if a.MeanAbsoluteError != b.MeanAbsoluteError {
		t.Errorf("outflow changed the response: %v vs %v", a.MeanAbsoluteError, b.MeanAbsoluteError)
	}
	if b.OutflowRate != 50 {
		t.Errorf("OutflowRate = %v, want 50 recorded", b.OutflowRate)
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	got := Config{NoiseLevel: -1}.withDefaults()
	want := DefaultConfig()
	want.NoiseLevel = 0
	if got != want {
		t.Errorf("withDefaults() = %+v, want %+v", got, want)
	}
}
