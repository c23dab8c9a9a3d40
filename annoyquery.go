package annoyquery

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/hupe1980/annoyquery/blobstore"
	"github.com/hupe1980/annoyquery/internal/mmap"
	"github.com/hupe1980/annoyquery/internal/nodefile"
	"github.com/hupe1980/annoyquery/internal/searcher"
	"github.com/hupe1980/annoyquery/metric"
	"golang.org/x/sync/errgroup"
)

// Engine answers nearest-neighbor queries against one memory-mapped index.
// It is immutable after Open and safe for concurrent queries; see the
// package documentation for the Close contract.
type Engine struct {
	file     *nodefile.File
	searcher *searcher.Searcher
	met      metric.Metric
	dim      int

	logger  *Logger
	metrics MetricsCollector

	closed  atomic.Bool
	cleanup func() error
}

// Open memory-maps the index at path, built with the given dimension and
// metric, and locates its tree roots.
func Open(path string, dim int, met metric.Metric, optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)

	start := time.Now()
	file, err := nodefile.Open(path, dim, met, o.blockNodes, mmap.AccessRandom)
	err = translateOpenError(err)
	o.metricsCollector.RecordOpen(time.Since(start), err)
	if err != nil {
		o.logger.LogOpen(path, dim, 0, 0, err)
		return nil, err
	}

	e := &Engine{
		file:     file,
		searcher: searcher.New(file, o.logger.Logger),
		met:      met,
		dim:      dim,
		logger:   o.logger,
		metrics:  o.metricsCollector,
	}
	o.logger.LogOpen(path, dim, e.NumTrees(), e.NumItems(), nil)
	return e, nil
}

// OpenBlob fetches the named index artifact from store into a temporary
// file and opens it. Artifacts ending in .zst or .lz4 are decompressed
// transparently. Close removes the temporary copy.
func OpenBlob(ctx context.Context, store blobstore.BlobStore, name string, dim int, met metric.Metric, optFns ...Option) (*Engine, error) {
	dir, err := os.MkdirTemp("", "annoyquery-*")
	if err != nil {
		return nil, err
	}

	path, err := blobstore.Download(ctx, store, name, dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}

	e, err := Open(path, dim, met, optFns...)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	e.cleanup = func() error { return os.RemoveAll(dir) }
	return e, nil
}

// Dimension returns the vector dimensionality the engine was opened with.
func (e *Engine) Dimension() int { return e.dim }

// Metric returns the distance metric the engine was opened with.
func (e *Engine) Metric() metric.Metric { return e.met }

// NumItems returns the number of indexed items.
func (e *Engine) NumItems() int {
	return int(e.file.ItemCount())
}

// NumTrees returns the number of trees in the forest.
func (e *Engine) NumTrees() int {
	return len(e.file.Roots())
}

// ItemVector returns a copy of the stored vector for the given item.
func (e *Engine) ItemVector(id int) ([]float32, error) {
	out := make([]float32, e.dim)
	if err := e.ItemVectorInto(id, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ItemVectorInto fills out with the stored vector for the given item.
// len(out) must equal the dimension.
func (e *Engine) ItemVectorInto(id int, out []float32) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if len(out) != e.dim {
		return &ErrDimensionMismatch{Expected: e.dim, Actual: len(out)}
	}
	if id < 0 || id >= e.NumItems() {
		return &ErrOutOfRange{Item: id, Count: e.NumItems()}
	}
	e.file.NodeVector(e.file.ItemOffset(int32(id)), out)
	return nil
}

// Nearest returns the ids of up to k items closest to query, best first.
// Deleted items (stored as all-zero vectors) never appear in the result.
func (e *Engine) Nearest(query []float32, k int) ([]int, error) {
	start := time.Now()
	ids, err := e.nearest(query, k)
	e.metrics.RecordSearch(k, time.Since(start), err)
	e.logger.LogSearch(k, len(ids), err)
	return ids, err
}

func (e *Engine) nearest(query []float32, k int) ([]int, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if len(query) != e.dim {
		return nil, &ErrDimensionMismatch{Expected: e.dim, Actual: len(query)}
	}
	if k <= 0 {
		return nil, ErrInvalidK
	}
	return e.searcher.Nearest(query, k), nil
}

// NearestByItem looks up the stored vector of the given item and returns its
// nearest neighbors. Under the angular and euclidean metrics the item itself
// ranks first unless it is deleted; under dot another item with a larger inner
// product can outrank it.
func (e *Engine) NearestByItem(id, k int) ([]int, error) {
	query, err := e.ItemVector(id)
	if err != nil {
		return nil, err
	}
	return e.Nearest(query, k)
}

// NearestBatch evaluates several queries concurrently and returns one result
// list per query, in input order. The first failing query aborts the batch.
func (e *Engine) NearestBatch(ctx context.Context, queries [][]float32, k int) ([][]int, error) {
	results := make([][]int, len(queries))

	g, _ := errgroup.WithContext(ctx)
	for i, query := range queries {
		g.Go(func() error {
			ids, err := e.Nearest(query, k)
			if err != nil {
				return err
			}
			results[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close releases the mapping, the file handle, and any temporary artifact
// copy. It is idempotent. Queries issued after Close fail with ErrClosed;
// queries still running during Close are the caller's responsibility.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	err := e.file.Close()
	if e.cleanup != nil {
		if cleanupErr := e.cleanup(); cleanupErr != nil && err == nil {
			err = cleanupErr
		}
	}
	e.logger.LogClose(err)
	return err
}
