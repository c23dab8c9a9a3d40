// Command annoyquery queries an Annoy index file from the command line.
//
// Usage:
//
//	annoyquery [flags] <index-path> <dimension> <metric:angular|euclidean|dot> <query-item-id>
//
// The index path may be a local file or an s3://bucket/key URL; S3 artifacts
// ending in .zst or .lz4 are decompressed transparently, while local files are
// opened as they are. The query item's vector is
// printed first, followed by one `<query> <neighbor> <score>` line per
// nearest neighbor.
//
// With -bench, the tool instead runs a randomized query load against the
// index, optionally rate-limited and bounded in concurrency, and reports
// throughput and mean latency.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/annoyquery"
	s3store "github.com/hupe1980/annoyquery/blobstore/s3"
	"github.com/hupe1980/annoyquery/internal/math32"
	"github.com/hupe1980/annoyquery/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

func main() {
	var (
		k           = flag.Int("k", 10, "number of neighbors to return")
		blockNodes  = flag.Int("block", 0, "byte-view block size in nodes (0 = default)")
		verbose     = flag.Bool("v", false, "enable debug logging")
		bench       = flag.Bool("bench", false, "run a randomized query benchmark instead of a single query")
		benchN      = flag.Int("n", 1000, "benchmark: number of queries")
		benchQPS    = flag.Float64("qps", 0, "benchmark: query rate limit (0 = unlimited)")
		concurrency = flag.Int("c", 4, "benchmark: max concurrent queries")
	)
	flag.Parse()

	if err := run(context.Background(), flag.Args(), *k, *blockNodes, *verbose, *bench, *benchN, *benchQPS, *concurrency); err != nil {
		fmt.Fprintln(os.Stderr, "annoyquery:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, k, blockNodes int, verbose, bench bool, benchN int, benchQPS float64, concurrency int) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: annoyquery [flags] <index-path> <dimension> <metric> <query-item-id>")
	}

	indexPath := args[0]
	dim, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad dimension %q: %w", args[1], err)
	}
	met, err := metric.Parse(args[2])
	if err != nil {
		return err
	}
	queryItem, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("bad query item id %q: %w", args[3], err)
	}

	opts := []annoyquery.Option{annoyquery.WithBlockNodes(blockNodes)}
	if verbose {
		opts = append(opts, annoyquery.WithLogLevel(slog.LevelDebug))
	}

	eng, err := openEngine(ctx, indexPath, dim, met, opts)
	if err != nil {
		return err
	}
	defer eng.Close()

	if bench {
		return runBench(ctx, eng, k, benchN, benchQPS, concurrency)
	}
	return runQuery(eng, met, queryItem, k)
}

// openEngine opens a local index file or fetches an s3://bucket/key artifact
// first.
func openEngine(ctx context.Context, indexPath string, dim int, met metric.Metric, opts []annoyquery.Option) (*annoyquery.Engine, error) {
	if bucket, key, ok := strings.Cut(strings.TrimPrefix(indexPath, "s3://"), "/"); ok && strings.HasPrefix(indexPath, "s3://") {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, err
		}
		store := s3store.NewStore(awss3.NewFromConfig(cfg), bucket, "")
		return annoyquery.OpenBlob(ctx, store, key, dim, met, opts...)
	}
	return annoyquery.Open(indexPath, dim, met, opts...)
}

func runQuery(eng *annoyquery.Engine, met metric.Metric, queryItem, k int) error {
	u, err := eng.ItemVector(queryItem)
	if err != nil {
		return err
	}

	fmt.Printf("vector[%d]: ", queryItem)
	for _, x := range u {
		fmt.Printf("%2.2f ", x)
	}
	fmt.Printf("\n")

	neighbors, err := eng.Nearest(u, k)
	if err != nil {
		return err
	}
	for _, nn := range neighbors {
		v, err := eng.ItemVector(nn)
		if err != nil {
			return err
		}
		fmt.Printf("%d %d %f\n", queryItem, nn, printedScore(met, u, v))
	}
	return nil
}

// printedScore mirrors the producer's test harness: angular reports the
// cosine margin, euclidean the distance, dot the inner product.
func printedScore(met metric.Metric, u, v []float32) float32 {
	switch met {
	case metric.Angular:
		return math32.CosineMargin(u, v)
	case metric.Euclidean:
		return math32.EuclideanDistance(u, v)
	default:
		return math32.Dot(u, v)
	}
}

func runBench(ctx context.Context, eng *annoyquery.Engine, k, n int, qps float64, concurrency int) error {
	numItems := eng.NumItems()
	if numItems == 0 {
		return fmt.Errorf("index has no items")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if qps > 0 {
		limiter = rate.NewLimiter(rate.Limit(qps), 1)
	}
	sem := semaphore.NewWeighted(int64(concurrency))
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	queries := make([][]float32, n)
	for i := range queries {
		vec, err := eng.ItemVector(rng.Intn(numItems))
		if err != nil {
			return err
		}
		queries[i] = vec
	}

	var totalNanos atomic.Int64
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for _, query := range queries {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			qStart := time.Now()
			if _, err := eng.Nearest(query, k); err != nil {
				return err
			}
			totalNanos.Add(time.Since(qStart).Nanoseconds())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("queries: %d\n", n)
	fmt.Printf("elapsed: %s\n", elapsed)
	fmt.Printf("throughput: %.1f qps\n", float64(n)/elapsed.Seconds())
	fmt.Printf("mean latency: %s\n", time.Duration(totalNanos.Load()/int64(n)))
	return nil
}
