package testutil

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/hupe1980/annoyquery/internal/math32"
	"github.com/hupe1980/annoyquery/metric"
)

// IndexWriter builds index files in the packed node layout the engine reads.
// Item nodes come first, split and bucket nodes follow, and the tree roots
// occupy the file's trailing nodes so the backward root scan finds them.
type IndexWriter struct {
	dim   int
	met   metric.Metric
	items [][]float32
}

// NewIndexWriter creates a writer for the given dimension and metric.
func NewIndexWriter(dim int, met metric.Metric) *IndexWriter {
	return &IndexWriter{dim: dim, met: met}
}

// AddItem appends an item vector and returns its id. The vector is copied.
// An all-zero vector marks the item as deleted, exactly as the producer does.
func (w *IndexWriter) AddItem(vec []float32) int {
	cp := make([]float32, len(vec))
	copy(cp, vec)
	w.items = append(w.items, cp)
	return len(w.items) - 1
}

// NumItems returns the number of items added so far.
func (w *IndexWriter) NumItems() int {
	return len(w.items)
}

// Items returns the stored item vectors, indexed by id. The slice is shared.
func (w *IndexWriter) Items() [][]float32 {
	return w.items
}

// Build assembles the index as a byte slice containing numTrees trees over
// all added items.
func (w *IndexWriter) Build(numTrees int, rng *RNG) ([]byte, error) {
	if len(w.items) < 2 {
		return nil, fmt.Errorf("testutil: need at least 2 items, have %d", len(w.items))
	}
	if numTrees < 1 {
		return nil, fmt.Errorf("testutil: need at least 1 tree, got %d", numTrees)
	}
	for id, vec := range w.items {
		if len(vec) != w.dim {
			return nil, fmt.Errorf("testutil: item %d has dimension %d, want %d", id, len(vec), w.dim)
		}
	}

	b := &forestBuilder{w: w, rng: rng, nextIndex: int32(len(w.items))}

	allIDs := make([]int32, len(w.items))
	for i := range allIDs {
		allIDs[i] = int32(i)
	}

	roots := make([][]byte, 0, numTrees)
	for t := 0; t < numTrees; t++ {
		ids := append([]int32(nil), allIDs...)
		roots = append(roots, b.buildRoot(ids))
	}

	nodeSize := w.met.NodeSize(w.dim)
	out := make([]byte, 0, (len(w.items)+len(b.arena)+len(roots))*nodeSize)
	for _, vec := range w.items {
		out = append(out, w.encodeNode(1, 0, nil, vec)...)
	}
	for _, node := range b.arena {
		out = append(out, node...)
	}
	for _, root := range roots {
		out = append(out, root...)
	}
	return out, nil
}

// WriteFile builds the index and writes it to path.
func (w *IndexWriter) WriteFile(path string, numTrees int, rng *RNG) error {
	data, err := w.Build(numTrees, rng)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// encodeNode packs one node. children carries either the two child indices of
// a split node or the packed ids of a bucket leaf; vec is the split
// hyperplane or the item vector. Unused header bytes stay zero.
func (w *IndexWriter) encodeNode(nDescendants int32, bias float32, children []int32, vec []float32) []byte {
	node := make([]byte, w.met.NodeSize(w.dim))
	binary.LittleEndian.PutUint32(node[0:], uint32(nDescendants))
	if w.met.HasBias() && bias != 0 {
		binary.LittleEndian.PutUint32(node[4:], math.Float32bits(bias))
	}
	co := w.met.ChildOffset()
	for i, c := range children {
		binary.LittleEndian.PutUint32(node[co+4*i:], uint32(c))
	}
	hs := w.met.HeaderSize()
	for i, x := range vec {
		binary.LittleEndian.PutUint32(node[hs+4*i:], math.Float32bits(x))
	}
	return node
}

type forestBuilder struct {
	w         *IndexWriter
	rng       *RNG
	arena     [][]byte
	nextIndex int32
}

// buildRoot builds one tree over ids and returns the root payload without
// appending it to the arena; roots are written after every other node.
func (b *forestBuilder) buildRoot(ids []int32) []byte {
	n := int32(len(ids))
	if len(ids) <= b.w.dim+2 {
		return b.w.encodeNode(n, 0, ids, nil)
	}
	split, bias := b.chooseSplit(ids)
	left, right := b.partition(ids, split, bias)
	li := b.buildSubtree(left)
	ri := b.buildSubtree(right)
	return b.w.encodeNode(n, bias, []int32{li, ri}, split)
}

// buildSubtree appends the subtree over ids to the arena and returns its
// node index.
func (b *forestBuilder) buildSubtree(ids []int32) int32 {
	n := int32(len(ids))
	var node []byte
	if len(ids) <= b.w.dim+2 {
		node = b.w.encodeNode(n, 0, ids, nil)
	} else {
		split, bias := b.chooseSplit(ids)
		left, right := b.partition(ids, split, bias)
		li := b.buildSubtree(left)
		ri := b.buildSubtree(right)
		node = b.w.encodeNode(n, bias, []int32{li, ri}, split)
	}
	b.arena = append(b.arena, node)
	idx := b.nextIndex
	b.nextIndex++
	return idx
}

// chooseSplit picks two distinct sample points and uses their difference as
// the hyperplane normal, with the midpoint fixing the bias for metrics that
// carry one. Returns a nil split when no usable pair exists.
func (b *forestBuilder) chooseSplit(ids []int32) ([]float32, float32) {
	const attempts = 20
	for a := 0; a < attempts; a++ {
		p := b.w.items[ids[b.rng.Intn(len(ids))]]
		q := b.w.items[ids[b.rng.Intn(len(ids))]]
		if math32.IsZero(p) || math32.IsZero(q) {
			continue
		}

		split := make([]float32, b.w.dim)
		zero := true
		for i := range split {
			split[i] = p[i] - q[i]
			if split[i] != 0 {
				zero = false
			}
		}
		if zero {
			continue
		}

		var bias float32
		if b.w.met.HasBias() {
			var acc float64
			for i := range split {
				acc -= float64(split[i]) * (float64(p[i]) + float64(q[i])) / 2
			}
			bias = float32(acc)
		}
		return split, bias
	}
	return nil, 0
}

// partition assigns each id to the side its margin selects; positive margins
// go to child 1, matching the traversal's sign convention. Degenerate splits
// fall back to an even shuffle so both sides keep at least two items.
func (b *forestBuilder) partition(ids []int32, split []float32, bias float32) ([]int32, []int32) {
	var left, right []int32
	if split != nil {
		for _, id := range ids {
			m := b.w.met.Margin(split, b.w.items[id], bias)
			switch {
			case m > 0:
				right = append(right, id)
			case m < 0:
				left = append(left, id)
			default:
				if b.rng.Intn(2) == 0 {
					left = append(left, id)
				} else {
					right = append(right, id)
				}
			}
		}
	}

	if len(left) < 2 || len(right) < 2 {
		shuffled := append([]int32(nil), ids...)
		b.rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		half := len(shuffled) / 2
		return shuffled[:half], shuffled[half:]
	}
	return left, right
}
