package nodefile

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/annoyquery/internal/mmap"
	"github.com/hupe1980/annoyquery/metric"
)

var (
	// ErrEmpty is returned when the index file has zero length.
	ErrEmpty = errors.New("nodefile: empty index file")
	// ErrSizeNotAligned is returned when the file length is not a multiple of
	// the node size, which almost always means the declared dimension or
	// metric does not match the producer's.
	ErrSizeNotAligned = errors.New("nodefile: file size is not a multiple of the node size")
)

// File is a read-only view over a mapped index file. It is immutable after
// Open and safe for concurrent readers.
type File struct {
	mapping *mmap.Mapping

	// blocks partitions the mapping into runs of whole nodes so that every
	// node-relative read stays inside a single block.
	blocks     [][]byte
	blockBytes int64

	met      metric.Metric
	dim      int
	nodeSize int64
	numNodes int64
	minLeaf  int32

	roots     []int64
	itemCount int32
}

// Open maps the index at path and locates the tree roots.
//
// blockNodes is the block granularity in whole nodes; zero selects the
// largest block that stays within a 2 GiB range, matching the producer's
// buffer stitching. pattern is forwarded to madvise.
func Open(path string, dim int, met metric.Metric, blockNodes int, pattern mmap.AccessPattern) (*File, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("nodefile: invalid dimension %d", dim)
	}

	nodeSize := int64(met.NodeSize(dim))
	if blockNodes <= 0 {
		blockNodes = int(math.MaxInt32 / nodeSize)
	}

	mapping, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	f, err := fromMapping(mapping, dim, met, blockNodes)
	if err != nil {
		mapping.Close()
		return nil, err
	}

	if err := mapping.Advise(pattern); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fromMapping(mapping *mmap.Mapping, dim int, met metric.Metric, blockNodes int) (*File, error) {
	size := mapping.Size()
	nodeSize := int64(met.NodeSize(dim))

	if size == 0 {
		return nil, ErrEmpty
	}
	if size%nodeSize != 0 {
		return nil, fmt.Errorf("%w: %d %% %d != 0", ErrSizeNotAligned, size, nodeSize)
	}

	f := &File{
		mapping:    mapping,
		blockBytes: int64(blockNodes) * nodeSize,
		met:        met,
		dim:        dim,
		nodeSize:   nodeSize,
		numNodes:   size / nodeSize,
		minLeaf:    int32(dim + 2),
	}

	data := mapping.Bytes()
	for off := int64(0); off < size; off += f.blockBytes {
		end := off + f.blockBytes
		if end > size {
			end = size
		}
		f.blocks = append(f.blocks, data[off:end])
	}

	f.scanRoots()
	return f, nil
}

// scanRoots walks the file backward node by node. The trailing run of nodes
// sharing one descendant count is the root set; that count is the item count.
func (f *File) scanRoots() {
	m := int32(-1)
	for i := f.numNodes - 1; i >= 0; i-- {
		off := i * f.nodeSize
		k := f.i32(off)
		if m != -1 && k != m {
			break
		}
		f.roots = append(f.roots, off)
		m = k
	}
	f.itemCount = m
}

// Close releases the underlying mapping. It is idempotent.
func (f *File) Close() error {
	f.blocks = nil
	return f.mapping.Close()
}

// Metric returns the metric the file was opened with.
func (f *File) Metric() metric.Metric { return f.met }

// Dim returns the vector dimensionality.
func (f *File) Dim() int { return f.dim }

// NodeSize returns the size of one node in bytes.
func (f *File) NodeSize() int64 { return f.nodeSize }

// NumNodes returns the total number of nodes in the file.
func (f *File) NumNodes() int64 { return f.numNodes }

// NumBlocks returns the number of sub-views the file is partitioned into.
func (f *File) NumBlocks() int { return len(f.blocks) }

// Roots returns the byte offsets of the tree roots, in reverse file order.
// The returned slice is shared; callers must not modify it.
func (f *File) Roots() []int64 { return f.roots }

// ItemCount returns the number of indexed items, taken from the descendant
// count the roots share. Zero if the file holds no roots.
func (f *File) ItemCount() int32 {
	if len(f.roots) == 0 {
		return 0
	}
	return f.itemCount
}

// MinLeafSize returns the largest descendant count that still denotes a
// bucket leaf (dimension + 2).
func (f *File) MinLeafSize() int32 { return f.minLeaf }
