package assetgen

import (
	"math/rand"
	"sync"
	"time"

	"github.com/fra-atlas/asset_backend/config"
)

// RandSource is the randomness the generator and the live variation draw from.
type RandSource interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// SeededSource is a RandSource safe for concurrent use.
type SeededSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSeededSource(seed int64) *SeededSource {
	return &SeededSource{rnd: rand.New(rand.NewSource(seed))}
}

// NewDefaultSource seeds from ASSET_RANDOM_SEED when set, otherwise from the clock.
func NewDefaultSource() *SeededSource {
	if seed, ok := config.RandomSeed(); ok {
		return NewSeededSource(seed)
	}
	return NewSeededSource(time.Now().UnixNano())
}

func (s *SeededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

func (s *SeededSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// pick draws uniformly from values.
func pick[T any](rng RandSource, values []T) T {
	return values[rng.Intn(len(values))]
}
