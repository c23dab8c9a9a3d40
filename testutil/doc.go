// Package testutil provides deterministic helpers for tests: a seeded random
// number generator, a brute-force reference search, and a writer that builds
// index files in the exact binary layout the query engine consumes.
//
// The writer is fixture tooling, not a public index builder: it implements
// just enough of the producer's random-projection splitting to generate
// realistic multi-level forests with a known ground truth.
package testutil
