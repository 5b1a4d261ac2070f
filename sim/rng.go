package sim

import (
	"hash/fnv"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// === RandomStream ===

// RandomStream is a seeded standard-normal generator. Two streams created
// with the same seed MUST produce bit-for-bit identical draw sequences.
//
// The stream keeps a monotonically increasing draw counter so that a
// checkpoint can record "seed S, N draws consumed" and a replay can
// reconstruct the exact stream position with Reseed(S) followed by Skip(N).
//
// Thread-safety: NOT thread-safe. Each pricer owns exactly one stream.
type RandomStream struct {
	seed   uint64
	draws  uint64
	source *rand.Rand
	normal distuv.Normal
}

// NewRandomStream creates a RandomStream seeded with the given value.
func NewRandomStream(seed uint64) *RandomStream {
	s := &RandomStream{}
	s.Reseed(seed)
	return s
}

// Reseed restarts the stream from the given seed and zeroes the draw counter.
// Reseeding to the current seed rewinds the stream to its initial position,
// which is the mechanism behind common-random-number comparisons.
func (s *RandomStream) Reseed(seed uint64) {
	s.seed = seed
	s.draws = 0
	s.source = rand.New(rand.NewSource(seed))
	s.normal = distuv.Normal{Mu: 0, Sigma: 1, Src: s.source}
}

// Next returns one standard-normal draw and advances the draw counter.
func (s *RandomStream) Next() float64 {
	s.draws++
	return s.normal.Rand()
}

// Fill overwrites buf with standard-normal draws.
func (s *RandomStream) Fill(buf []float64) {
	for i := range buf {
		buf[i] = s.Next()
	}
}

// Skip consumes and discards n draws. Used by checkpoint replay to
// fast-forward the stream to a recorded draw count.
func (s *RandomStream) Skip(n uint64) {
	for i := uint64(0); i < n; i++ {
		s.Next()
	}
}

// Seed returns the seed in effect since the last Reseed.
func (s *RandomStream) Seed() uint64 {
	return s.seed
}

// DrawCount returns the number of draws consumed since the last Reseed.
func (s *RandomStream) DrawCount() uint64 {
	return s.draws
}

// === Seed derivation ===

// DeriveSeed deterministically derives a per-trade seed from a master seed
// and a name, using hash-based derivation for order independence:
// derived = master XOR fnv1a64(name). Portfolio workers use this so that
// pricing the same trade produces the same draws regardless of which worker
// picks it up or in what order trades complete.
func DeriveSeed(master uint64, name string) uint64 {
	return master ^ fnv1a64(name)
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}
