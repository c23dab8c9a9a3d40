package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/annoyquery/internal/math32"
	"github.com/hupe1980/annoyquery/metric"
)

// RNG encapsulates a seeded random number generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniformRange(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*(maxVal-minVal)
	}
}

// UniformVector returns a fresh random vector of the given dimension with
// components in [minVal, maxVal).
func (r *RNG) UniformVector(dim int, minVal, maxVal float32) []float32 {
	v := make([]float32, dim)
	r.FillUniformRange(v, minVal, maxVal)
	return v
}

// Shuffle pseudo-randomizes the order of n elements using swap.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(n, swap)
}

// BruteForceNearest ranks every non-zero item vector against query under the
// given metric and returns the ids of the best k, best first. Ties are broken
// by ascending id so results are reproducible.
func BruteForceNearest(items [][]float32, query []float32, met metric.Metric, k int) []int {
	type scored struct {
		id    int
		score float32
	}

	ranked := make([]scored, 0, len(items))
	for id, vec := range items {
		if math32.IsZero(vec) {
			continue
		}
		ranked = append(ranked, scored{id: id, score: met.Score(vec, query)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = ranked[i].id
	}
	return out
}

// Overlap returns the number of ids present in both result lists.
func Overlap(a, b []int) int {
	set := make(map[int]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	n := 0
	for _, id := range b {
		if _, ok := set[id]; ok {
			n++
		}
	}
	return n
}
