package genotype

import (
	"math/rand"
	"sync/atomic"
	"time"
)

var uniqueIDSequence uint64

// GenerateUniqueID produces a value that is exceedingly unlikely to repeat
// across calls, even from concurrent goroutines: a monotonic counter
// combined with either an RNG draw or the current wall-clock reading.
func GenerateUniqueID(rng *rand.Rand) float64 {
	seq := atomic.AddUint64(&uniqueIDSequence, 1)
	if rng != nil {
		return float64(seq) + rng.Float64()
	}
	seconds := float64(time.Now().UnixNano()) / float64(time.Second)
	if seconds <= 0 {
		seconds = float64(seq)
	}
	return 1 / (seconds + float64(seq)/1e9)
}

// GenerateIDs returns count freshly generated unique IDs, or nil for a
// non-positive count.
func GenerateIDs(count int, rng *rand.Rand) []float64 {
	if count <= 0 {
		return nil
	}
	ids := make([]float64, count)
	for i := range ids {
		ids[i] = GenerateUniqueID(rng)
	}
	return ids
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func randomCentered(rng *rand.Rand) float64 {
	return rng.Float64() - 0.5
}
