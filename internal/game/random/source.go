// Package random provides the injectable randomness abstraction consumed by
// the firearm core (cylinder spin) and its callers.
package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand/v2"
	"sync"

	"go.uber.org/zap"
)

// Source is the randomness provider for the simulation.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// entropySource draws cylinder positions from the operating system's
// entropy pool. Unseeded simulations use it, so spins cannot be predicted.
type entropySource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
func NewCryptoSource() Source {
	return entropySource{}
}

// Intn panics if the entropy pool cannot be read.
func (entropySource) Intn(n int) int {
	checkBound(n)
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("random: reading entropy: %v", err))
	}
	return int(v.Int64())
}

// checkBound panics unless n is a usable exclusive upper bound.
func checkBound(n int) {
	if n <= 0 {
		panic(fmt.Sprintf("random: Intn bound must be > 0, got %d", n))
	}
}

// seededSource is a deterministic PCG-backed Source.
type seededSource struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeededSource returns a deterministic Source. Two sources built from the
// same seed produce the same sequence.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewSeededSource(seed uint64) Source {
	return &seededSource{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a deterministic pseudo-random int in [0, n).
//
// Precondition: n > 0.
func (s *seededSource) Intn(n int) int {
	checkBound(n)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Fixed is a Source that always returns the same value modulo n. Useful in tests.
type Fixed int

// Intn returns int(f) mod n.
func (f Fixed) Intn(n int) int {
	checkBound(n)
	v := int(f) % n
	if v < 0 {
		v += n
	}
	return v
}

// LoggedSource wraps a Source and logs each draw at debug level.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedSource creates a Source that draws from src and logs each draw to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	return &LoggedSource{src: src, logger: logger}
}

// Intn draws from the wrapped source and logs the result.
func (l *LoggedSource) Intn(n int) int {
	v := l.src.Intn(n)
	l.logger.Debug("random draw",
		zap.Int("n", n),
		zap.Int("value", v),
	)
	return v
}

// FromSeed returns a seeded Source when seed != 0 and a crypto Source otherwise.
func FromSeed(seed int64) Source {
	if seed == 0 {
		return NewCryptoSource()
	}
	return NewSeededSource(uint64(seed))
}
