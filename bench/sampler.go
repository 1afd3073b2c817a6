package bench

import (
	"math"
	"math/rand"
)

// Sampler draws ids uniformly from an IdentifierRange. One generator is seeded
// per pass and reused for every draw.
type Sampler struct {
	rng  *rand.Rand
	min  int64
	span uint64 // Max-Min+1, zero when the range covers all of int64
}

func NewSampler(r IdentifierRange, seed int64) *Sampler {
	return &Sampler{
		rng:  rand.New(rand.NewSource(seed)),
		min:  r.Min,
		span: uint64(r.Max-r.Min) + 1,
	}
}

// Next returns an id in [Min, Max].
func (s *Sampler) Next() int64 {
	switch {
	case s.span == 0:
		return int64(s.rng.Uint64())
	case s.span <= math.MaxInt64:
		return s.min + s.rng.Int63n(int64(s.span))
	default:
		return s.min + int64(s.rng.Uint64()%s.span)
	}
}
