package annoyquery

import "context"

// Search creates a fluent search builder for the given query vector.
//
// Example:
//
//	ids, err := eng.Search(query).
//	    KNN(10).
//	    Execute(ctx)
func (e *Engine) Search(query []float32) *SearchBuilder {
	return &SearchBuilder{
		eng:   e,
		query: query,
		k:     10, // Default k
	}
}

// SearchBuilder is a fluent builder for constructing nearest-neighbor
// queries.
type SearchBuilder struct {
	eng   *Engine
	query []float32
	k     int
}

// KNN sets the number of nearest neighbors to return.
func (sb *SearchBuilder) KNN(k int) *SearchBuilder {
	sb.k = k
	return sb
}

// Execute runs the search and returns the resulting item ids, best first.
// The context is consulted before the traversal starts; individual queries
// are short and not cancellable mid-flight.
func (sb *SearchBuilder) Execute(ctx context.Context) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sb.eng.Nearest(sb.query, sb.k)
}

// MustExecute runs the search, panicking on error.
// Use this only in tests or when you're certain the query is valid.
func (sb *SearchBuilder) MustExecute(ctx context.Context) []int {
	ids, err := sb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return ids
}
