// Package nodefile implements read-only access to an on-disk forest of
// random-projection trees as written by the Annoy builder.
//
// The file is a packed sequence of fixed-size nodes. A node's meaning is
// derived from its leading descendant count: exactly one descendant marks an
// item leaf, a small count marks a bucket leaf holding packed item ids, and a
// large count marks an internal node holding a split hyperplane and two child
// references. The tree roots form a suffix of the file whose descendant
// counts all agree; they are discovered by scanning backward from the end.
//
// All multi-byte fields are little-endian: 32-bit signed integers and IEEE-754
// single-precision floats. Reads go through a blocked view so that offsets are
// 64-bit even when the file is larger than a single 32-bit range, and so block
// dispatch can be exercised with tiny block sizes in tests.
package nodefile
