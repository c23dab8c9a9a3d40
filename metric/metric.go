// Package metric defines the distance metrics understood by the query engine
// and the per-metric node layout of the on-disk index format.
//
// The metric determines two layout constants of a node: the header size and
// the offset of the child/bucket array within the node. Both must match the
// values used by the producer or every decoded field is garbage.
package metric

import (
	"fmt"
	"strings"

	"github.com/hupe1980/annoyquery/internal/math32"
)

// Metric identifies the distance metric an index was built with.
type Metric int

const (
	// Angular compares vectors by the cosine of their angle.
	Angular Metric = iota
	// Euclidean compares vectors by straight-line distance.
	Euclidean
	// Dot compares vectors by inner product.
	Dot
)

const floatSize = 4

// Parse converts a metric name ("angular", "euclidean", "dot") to a Metric.
func Parse(s string) (Metric, error) {
	switch strings.ToLower(s) {
	case "angular", "cosine":
		return Angular, nil
	case "euclidean":
		return Euclidean, nil
	case "dot":
		return Dot, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", s)
	}
}

func (m Metric) String() string {
	switch m {
	case Angular:
		return "angular"
	case Euclidean:
		return "euclidean"
	case Dot:
		return "dot"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// HeaderSize returns the number of bytes preceding the vector region of a node.
func (m Metric) HeaderSize() int {
	if m == Angular {
		return 12
	}
	return 16
}

// ChildOffset returns the byte offset of the child/bucket array within a node.
// For Dot the children begin at offset 4 like Angular, despite the 16-byte
// header; the remaining header bytes are reserved by the producer.
func (m Metric) ChildOffset() int {
	if m == Euclidean {
		return 8
	}
	return 4
}

// HasBias reports whether nodes of this metric carry a bias scalar at
// byte offset 4.
func (m Metric) HasBias() bool {
	return m == Euclidean
}

// NodeSize returns the size in bytes of a node for the given dimension.
func (m Metric) NodeSize(dim int) int {
	return m.HeaderSize() + floatSize*dim
}

// Margin computes the split-plane margin of query against the hyperplane
// stored in an internal node. The sign selects the half-space; the magnitude
// orders the best-first traversal. bias is only consulted for Euclidean.
func (m Metric) Margin(split, query []float32, bias float32) float32 {
	switch m {
	case Angular:
		return math32.CosineMargin(split, query)
	case Euclidean:
		return math32.EuclideanMargin(split, query, bias)
	default:
		return math32.Dot(split, query)
	}
}

// Score computes the final ranking score of an item vector against the query.
// Higher is always better; Euclidean distances are negated so that a single
// descending sort ranks every metric.
func (m Metric) Score(item, query []float32) float32 {
	switch m {
	case Angular:
		return math32.CosineMargin(item, query)
	case Euclidean:
		return -math32.EuclideanDistance(item, query)
	default:
		return math32.Dot(item, query)
	}
}
