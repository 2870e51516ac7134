package simulation

import (
	"math/rand"
	"time"
)

// NoiseSource produces standard normal samples. *rand.Rand satisfies it.
type NoiseSource interface {
	NormFloat64() float64
}

// NewSeededNoise returns a deterministic noise source for seed. A zero
// seed is replaced by the current time, giving a different run each call.
func NewSeededNoise(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// zeroNoise is used when no source is supplied.
type zeroNoise struct{}

func (zeroNoise) NormFloat64() float64 { return 0 }
