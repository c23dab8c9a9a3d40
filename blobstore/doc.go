// Package blobstore provides read-only access to index artifacts.
//
// The query engine never writes indexes; they are built elsewhere and
// distributed as immutable blobs. BlobStore abstracts where those blobs
// live, and Download materializes one as a local file the engine can
// memory-map, decompressing .zst and .lz4 artifacts on the way.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap-backed reads
//   - s3.Store: Amazon S3 with ranged reads and parallel download
//   - minio.Store: MinIO and other S3-compatible object stores
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error) // Open for reading
//	}
package blobstore
