package bench

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestProperty_SamplerStaysInRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every draw lies in [min, max]", prop.ForAll(
		func(lo int64, width int64, seed int64) bool {
			r := IdentifierRange{Min: lo, Max: lo + width, Valid: true}
			s := NewSampler(r, seed)
			for i := 0; i < 500; i++ {
				id := s.Next()
				if id < r.Min || id > r.Max {
					return false
				}
			}
			return true
		},
		gen.Int64Range(-1_000_000, 1_000_000),
		gen.Int64Range(0, 10_000),
		gen.Int64(),
	))

	properties.Property("a single-id range always draws that id", prop.ForAll(
		func(id int64, seed int64) bool {
			s := NewSampler(IdentifierRange{Min: id, Max: id, Valid: true}, seed)
			for i := 0; i < 100; i++ {
				if s.Next() != id {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestSampler_Ten(t *testing.T) {
	s := NewSampler(IdentifierRange{Min: 10, Max: 10, Valid: true}, 42)
	for i := 0; i < 1000; i++ {
		assert.Equal(t, int64(10), s.Next())
	}
}

func TestSampler_CoversSmallRange(t *testing.T) {
	s := NewSampler(IdentifierRange{Min: 1, Max: 4, Valid: true}, 7)
	seen := map[int64]int{}
	for i := 0; i < 4000; i++ {
		seen[s.Next()]++
	}
	assert.Len(t, seen, 4)
	for id := int64(1); id <= 4; id++ {
		assert.Greater(t, seen[id], 800, "id %d drawn too rarely", id)
	}
}

func TestSampler_FullInt64Range(t *testing.T) {
	s := NewSampler(IdentifierRange{Min: math.MinInt64, Max: math.MaxInt64, Valid: true}, 1)
	for i := 0; i < 100; i++ {
		_ = s.Next()
	}

	wide := IdentifierRange{Min: -10, Max: math.MaxInt64, Valid: true}
	s = NewSampler(wide, 1)
	for i := 0; i < 1000; i++ {
		assert.GreaterOrEqual(t, s.Next(), wide.Min)
	}
}
