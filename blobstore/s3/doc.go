// Package s3 implements blobstore.BlobStore for Amazon S3.
//
// Blobs are read with ranged GETs; whole-artifact downloads go through the
// SDK's transfer manager, which fetches ranges in parallel.
package s3
