// Package annoyquery is a read-only query engine for Annoy index files.
//
// Annoy indexes are forests of random-projection binary trees built by the
// C++ Annoy library. This package memory-maps such a file and answers
// k-nearest-neighbor queries against it under the metric the index was built
// with (angular, euclidean, or dot). It never builds or mutates indexes;
// files are produced elsewhere and consumed here.
//
// # Quick Start
//
//	eng, err := annoyquery.Open("points.annoy", 40, metric.Angular)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	query, _ := eng.ItemVector(42)
//	ids, err := eng.Nearest(query, 10)
//
// Or with the fluent API:
//
//	ids, err := eng.Search(query).KNN(10).Execute(ctx)
//
// # Remote Indexes
//
// Index artifacts distributed through object storage open via a BlobStore;
// .zst and .lz4 artifacts are decompressed transparently:
//
//	store := s3store.NewStore(client, "my-bucket", "indexes/")
//	eng, err := annoyquery.OpenBlob(ctx, store, "points.annoy.zst", 40, metric.Angular)
//
// # Concurrency
//
// An Engine is immutable after Open. All query-path state is local to the
// call, so any number of goroutines may query one Engine concurrently; the
// caller only has to make sure Close happens after outstanding queries.
package annoyquery
