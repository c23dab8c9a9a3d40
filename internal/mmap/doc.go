// Package mmap provides read-only memory-mapped file access.
//
// Memory mapping allows direct access to file contents without copying data
// through kernel buffers, which is essential for random-access node reads
// over index files that can be many gigabytes in size.
//
// # Usage
//
//	m, err := mmap.Open("points.annoy")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//	_ = m.Advise(mmap.AccessRandom)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (advise is a no-op)
//
// # Thread Safety
//
// A Mapping is safe for concurrent reads. Close is idempotent and protected
// by atomic operations, but callers must ensure no goroutine touches Bytes()
// after Close returns.
package mmap
