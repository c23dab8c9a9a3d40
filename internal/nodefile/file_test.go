package nodefile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/annoyquery/internal/mmap"
	"github.com/hupe1980/annoyquery/internal/nodefile"
	"github.com/hupe1980/annoyquery/metric"
	"github.com/hupe1980/annoyquery/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildIndex writes a small index and returns its path together with the
// item vectors it holds.
func buildIndex(t *testing.T, dim, numItems, numTrees int, met metric.Metric) (string, [][]float32) {
	t.Helper()

	rng := testutil.NewRNG(42)
	w := testutil.NewIndexWriter(dim, met)
	for i := 0; i < numItems; i++ {
		w.AddItem(rng.UniformVector(dim, -1, 1))
	}

	path := filepath.Join(t.TempDir(), "points."+met.String()+".annoy")
	require.NoError(t, w.WriteFile(path, numTrees, rng))
	return path, w.Items()
}

func TestOpen_BucketOnlyForest(t *testing.T) {
	// 5 items fit in one bucket leaf (dim+2 = 6), so each tree is a lone root.
	path, items := buildIndex(t, 4, 5, 3, metric.Angular)

	f, err := nodefile.Open(path, 4, metric.Angular, 0, mmap.AccessRandom)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, int64(28), f.NodeSize()) // 12 + 4*4
	assert.Equal(t, int64(len(items)+3), f.NumNodes())
	assert.Len(t, f.Roots(), 3)
	assert.Equal(t, int32(5), f.ItemCount())
	assert.Equal(t, int32(6), f.MinLeafSize())
	assert.Equal(t, 1, f.NumBlocks())

	for _, root := range f.Roots() {
		assert.Equal(t, int32(5), f.Descendants(root))
		assert.Equal(t, nodefile.KindBucket, f.KindOf(f.Descendants(root)))
		assert.Zero(t, root%f.NodeSize())
	}
}

func TestOpen_ItemVectorRoundTrip(t *testing.T) {
	for _, met := range []metric.Metric{metric.Angular, metric.Euclidean, metric.Dot} {
		t.Run(met.String(), func(t *testing.T) {
			path, items := buildIndex(t, 8, 25, 2, met)

			f, err := nodefile.Open(path, 8, met, 0, mmap.AccessRandom)
			require.NoError(t, err)
			defer f.Close()

			vec := make([]float32, 8)
			for id, want := range items {
				f.NodeVector(f.ItemOffset(int32(id)), vec)
				assert.Equal(t, want, vec, "item %d", id)
				assert.Equal(t, int32(1), f.Descendants(f.ItemOffset(int32(id))))
			}
		})
	}
}

func TestOpen_TreeStructure(t *testing.T) {
	// 20 items with dim 4 forces internal splits (bucket capacity is 6).
	path, items := buildIndex(t, 4, 20, 2, metric.Euclidean)

	f, err := nodefile.Open(path, 4, metric.Euclidean, 0, mmap.AccessRandom)
	require.NoError(t, err)
	defer f.Close()

	require.Len(t, f.Roots(), 2)
	for _, root := range f.Roots() {
		require.Equal(t, nodefile.KindInternal, f.KindOf(f.Descendants(root)))

		// Every item must be reachable exactly once per tree.
		found := make(map[int32]int)
		var walk func(off int64)
		walk = func(off int64) {
			nd := f.Descendants(off)
			switch f.KindOf(nd) {
			case nodefile.KindItem:
				found[int32(off/f.NodeSize())]++
			case nodefile.KindBucket:
				for i := 0; i < int(nd); i++ {
					found[f.BucketItem(off, i)]++
				}
			default:
				left := f.Child(off, 0)
				right := f.Child(off, 1)
				assert.Zero(t, left%f.NodeSize())
				assert.Zero(t, right%f.NodeSize())
				assert.Less(t, left, f.NumNodes()*f.NodeSize())
				assert.Less(t, right, f.NumNodes()*f.NodeSize())
				walk(left)
				walk(right)
			}
		}
		walk(root)

		assert.Len(t, found, len(items))
		for id, n := range found {
			assert.Equal(t, 1, n, "item %d", id)
		}
	}
}

func TestOpen_BlockedReadsMatchUnblocked(t *testing.T) {
	path, _ := buildIndex(t, 6, 30, 3, metric.Angular)

	whole, err := nodefile.Open(path, 6, metric.Angular, 0, mmap.AccessRandom)
	require.NoError(t, err)
	defer whole.Close()
	require.Equal(t, 1, whole.NumBlocks())

	for _, blockNodes := range []int{1, 10} {
		blocked, err := nodefile.Open(path, 6, metric.Angular, blockNodes, mmap.AccessRandom)
		require.NoError(t, err)

		assert.Greater(t, blocked.NumBlocks(), 1)
		assert.Equal(t, whole.Roots(), blocked.Roots())

		a := make([]float32, 6)
		b := make([]float32, 6)
		for i := int64(0); i < whole.NumNodes(); i++ {
			off := i * whole.NodeSize()
			assert.Equal(t, whole.Descendants(off), blocked.Descendants(off))
			whole.NodeVector(off, a)
			blocked.NodeVector(off, b)
			assert.Equal(t, a, b)
		}

		require.NoError(t, blocked.Close())
	}
}

func TestOpen_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.annoy")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := nodefile.Open(path, 8, metric.Angular, 0, mmap.AccessRandom)
	assert.ErrorIs(t, err, nodefile.ErrEmpty)
}

func TestOpen_SizeNotAligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.annoy")
	require.NoError(t, os.WriteFile(path, make([]byte, 96), 0o644))

	// 96 bytes are two euclidean dim-8 nodes, but not a whole number of
	// dim-7 nodes (44 bytes each).
	f, err := nodefile.Open(path, 8, metric.Euclidean, 0, mmap.AccessRandom)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = nodefile.Open(path, 7, metric.Euclidean, 0, mmap.AccessRandom)
	assert.ErrorIs(t, err, nodefile.ErrSizeNotAligned)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := nodefile.Open(filepath.Join(t.TempDir(), "missing.annoy"), 8, metric.Angular, 0, mmap.AccessRandom)
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestOpen_InvalidDimension(t *testing.T) {
	_, err := nodefile.Open("unused", 0, metric.Angular, 0, mmap.AccessRandom)
	assert.Error(t, err)
}

func TestFile_CloseIdempotent(t *testing.T) {
	path, _ := buildIndex(t, 4, 5, 1, metric.Angular)

	f, err := nodefile.Open(path, 4, metric.Angular, 0, mmap.AccessRandom)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
}
