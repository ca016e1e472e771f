package invasion

import (
	"math/rand"
	"time"
)

// Rand is the randomness the simulation draws on: shooter columns,
// UFO sides, intervals and values. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// NewRand returns a seeded source; seed 0 seeds from the clock
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
