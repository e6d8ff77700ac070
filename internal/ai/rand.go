package ai

import "math/rand"

// aiRng is the package-level random source used for tick staggering.
// When nil, the helpers delegate to the global math/rand default.
// Decide itself never draws randomness; only scheduling jitter does.
var aiRng *rand.Rand

// SeedRng sets a deterministic random source for reproducible runs.
func SeedRng(seed int64) {
	aiRng = rand.New(rand.NewSource(seed))
}

// ResetRng reverts to the default global random source.
func ResetRng() {
	aiRng = nil
}

func aiFloat64() float64 {
	if aiRng != nil {
		return aiRng.Float64()
	}
	return rand.Float64()
}
