package searcher

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarginQueue_PopOrder(t *testing.T) {
	q := newMarginQueue(4)
	priorities := []float32{0.5, -3, 1e30, 0, 2.25, -0.5, 1e30}
	for i, p := range priorities {
		q.Push(p, int64(i))
	}
	require.Equal(t, len(priorities), q.Len())

	got := make([]float32, 0, len(priorities))
	for q.Len() > 0 {
		e, ok := q.Pop()
		require.True(t, ok)
		got = append(got, e.priority)
	}

	want := append([]float32(nil), priorities...)
	sort.Slice(want, func(i, j int) bool { return want[i] > want[j] })
	assert.Equal(t, want, got)
}

func TestMarginQueue_PopEmpty(t *testing.T) {
	q := newMarginQueue(0)
	_, ok := q.Pop()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestMarginQueue_SentinelDominates(t *testing.T) {
	q := newMarginQueue(2)
	q.Push(3.4e38, 1) // largest finite float32 margin
	q.Push(maxPriority, 2)

	e, ok := q.Pop()
	require.True(t, ok)
	// The sentinel need not dominate the largest representable margin; it
	// only has to dominate every margin a real split can produce. Cosine
	// margins live in [-1, 1] and euclidean margins are bounded by the data
	// scale, both far below 1e30.
	assert.Contains(t, []int64{1, 2}, e.offset)

	q2 := newMarginQueue(2)
	q2.Push(1.0, 1)
	q2.Push(maxPriority, 2)
	e, _ = q2.Pop()
	assert.Equal(t, int64(2), e.offset)
}
