package searcher

import (
	"log/slog"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/annoyquery/internal/math32"
	"github.com/hupe1980/annoyquery/internal/nodefile"
)

// maxPriority is the sentinel margin roots enter the heap with. It dominates
// every real float32 margin.
const maxPriority = float32(1e30)

// Searcher answers k-nearest-neighbor queries against a node file. It holds
// no mutable state; every query allocates its own heap, candidate set and
// scratch vector, so a single Searcher may serve concurrent callers.
type Searcher struct {
	file   *nodefile.File
	logger *slog.Logger
}

// New creates a Searcher over file. logger may be nil.
func New(file *nodefile.File, logger *slog.Logger) *Searcher {
	return &Searcher{file: file, logger: logger}
}

// Nearest returns the ids of up to k items closest to query under the file's
// metric, best first. Items stored as all-zero vectors are treated as absent.
func (s *Searcher) Nearest(query []float32, k int) []int {
	f := s.file
	roots := f.Roots()
	if k <= 0 || len(roots) == 0 {
		return nil
	}

	met := f.Metric()
	pq := newMarginQueue(2 * len(roots))
	for _, r := range roots {
		pq.Push(maxPriority, r)
	}

	seen := roaring.New()
	limit := uint64(len(roots)) * uint64(k)
	vec := make([]float32, f.Dim())

	for seen.GetCardinality() < limit && pq.Len() > 0 {
		top, _ := pq.Pop()
		off := top.offset
		nd := f.Descendants(off)

		switch f.KindOf(nd) {
		case nodefile.KindItem:
			if s.logger != nil {
				s.logger.Debug("single-descendant node reached via heap", "offset", off)
			}
			f.NodeVector(off, vec)
			if math32.IsZero(vec) {
				continue
			}
			seen.Add(uint32(off / f.NodeSize()))

		case nodefile.KindBucket:
			for i := 0; i < int(nd); i++ {
				id := f.BucketItem(off, i)
				f.NodeVector(f.ItemOffset(id), vec)
				if math32.IsZero(vec) {
					continue
				}
				seen.Add(uint32(id))
			}

		default:
			f.NodeVector(off, vec)
			var bias float32
			if met.HasBias() {
				bias = f.Bias(off)
			}
			margin := met.Margin(vec, query, bias)
			pq.Push(-margin, f.Child(off, 0))
			pq.Push(margin, f.Child(off, 1))
		}
	}

	return s.rerank(seen, query, k, vec)
}

// rerank scores every distinct candidate under the true metric and returns
// the best k ids in descending score order. Score ties break by ascending id
// so repeated queries return identical lists.
func (s *Searcher) rerank(seen *roaring.Bitmap, query []float32, k int, vec []float32) []int {
	type scored struct {
		id    uint32
		score float32
	}

	f := s.file
	met := f.Metric()
	ranked := make([]scored, 0, seen.GetCardinality())

	it := seen.Iterator()
	for it.HasNext() {
		id := it.Next()
		f.NodeVector(f.ItemOffset(int32(id)), vec)
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
		out[i] = int(ranked[i].id)
	}
	return out
}
