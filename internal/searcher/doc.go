// Package searcher implements the best-first forest traversal and the final
// re-ranking of candidates under the true metric.
//
// All trees share one max-heap keyed by split-plane margin: each root enters
// with a sentinel priority that dominates every real margin, and internal
// nodes push the near child with +margin and the far child with -margin.
// Candidates collected from leaves are deduplicated across trees, then
// re-scored exactly and sorted. Every piece of traversal state is local to
// the call, so one Searcher serves concurrent queries without locks.
package searcher
