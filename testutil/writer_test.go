package testutil

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/hupe1980/annoyquery/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexWriter_Build(t *testing.T) {
	for _, met := range []metric.Metric{metric.Angular, metric.Euclidean, metric.Dot} {
		t.Run(met.String(), func(t *testing.T) {
			rng := NewRNG(99)
			w := NewIndexWriter(8, met)
			for i := 0; i < 40; i++ {
				w.AddItem(rng.UniformVector(8, -1, 1))
			}

			data, err := w.Build(3, rng)
			require.NoError(t, err)

			nodeSize := met.NodeSize(8)
			require.Zero(t, len(data)%nodeSize)

			numNodes := len(data) / nodeSize
			require.GreaterOrEqual(t, numNodes, 43)

			// The three trailing nodes are roots covering all 40 items.
			for i := 1; i <= 3; i++ {
				off := (numNodes - i) * nodeSize
				assert.Equal(t, uint32(40), binary.LittleEndian.Uint32(data[off:]))
			}
			// The node before the roots is not a root.
			off := (numNodes - 4) * nodeSize
			assert.NotEqual(t, uint32(40), binary.LittleEndian.Uint32(data[off:]))

			// Item nodes carry their vectors verbatim.
			hs := met.HeaderSize()
			for id, vec := range w.Items() {
				for j, x := range vec {
					bits := binary.LittleEndian.Uint32(data[id*nodeSize+hs+4*j:])
					assert.Equal(t, x, math.Float32frombits(bits), "item %d[%d]", id, j)
				}
			}
		})
	}
}

func TestIndexWriter_Validation(t *testing.T) {
	rng := NewRNG(1)

	w := NewIndexWriter(4, metric.Angular)
	w.AddItem([]float32{1, 2, 3, 4})
	_, err := w.Build(1, rng)
	assert.Error(t, err) // too few items

	w.AddItem([]float32{5, 6, 7, 8})
	_, err = w.Build(0, rng)
	assert.Error(t, err) // no trees

	w.AddItem([]float32{1, 2})
	_, err = w.Build(1, rng)
	assert.Error(t, err) // dimension mismatch
}

func TestBruteForceNearest(t *testing.T) {
	items := [][]float32{
		{1, 0},
		{0, 1},
		{0.9, 0.1},
		{0, 0}, // deleted
		{-1, 0},
	}

	got := BruteForceNearest(items, []float32{1, 0}, metric.Angular, 3)
	assert.Equal(t, []int{0, 2, 1}, got)

	// Deleted items never surface, even with a large k.
	got = BruteForceNearest(items, []float32{1, 0}, metric.Angular, 10)
	assert.Len(t, got, 4)
	assert.NotContains(t, got, 3)
}

func TestOverlap(t *testing.T) {
	assert.Equal(t, 2, Overlap([]int{1, 2, 3}, []int{3, 4, 1}))
	assert.Equal(t, 0, Overlap([]int{1}, []int{2}))
	assert.Equal(t, 0, Overlap(nil, nil))
}
