package simulation

// Config holds the model constants of the engine.
type Config struct {
	// IdealTau is the time constant of the reference model in seconds. Default: 30.
	IdealTau float64

	// PlantTau is the time constant of the plant in seconds. Default: 35.
	PlantTau float64

	// PlantGainRatio scales the reference gain to get the plant gain. Default: 0.95.
	PlantGainRatio float64

	// NoiseLevel is the noise standard deviation as a fraction of the tank
	// height. Default: 0.05. Zero disables noise.
	NoiseLevel float64

	// MinInflow is the floor applied to the inflow rate so the gain stays
	// finite. Default: 0.1.
	MinInflow float64
}

// DefaultConfig returns the constants used by the classroom dashboard.
func DefaultConfig() Config {
	return Config{
		IdealTau:       30.0,
		PlantTau:       35.0,
		PlantGainRatio: 0.95,
		NoiseLevel:     0.05,
		MinInflow:      0.1,
	}
}

// withDefaults fills non-positive time constants, gain ratio and inflow floor
// from DefaultConfig. NoiseLevel is kept as given since zero is meaningful.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.IdealTau <= 0 {
		c.IdealTau = d.IdealTau
	}
	if c.PlantTau <= 0 {
		c.PlantTau = d.PlantTau
	}
	if c.PlantGainRatio <= 0 {
		c.PlantGainRatio = d.PlantGainRatio
	}
	if c.MinInflow <= 0 {
		c.MinInflow = d.MinInflow
	}
	if c.NoiseLevel < 0 {
		c.NoiseLevel = 0
	}
	return c
}
