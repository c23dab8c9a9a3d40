package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Download fetches the named blob into dir and returns the path of the
// resulting file. Blobs named *.zst or *.lz4 are decompressed while
// streaming and the compression suffix is stripped from the local name.
func Download(ctx context.Context, store BlobStore, name, dir string) (string, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return "", err
	}
	defer blob.Close()

	base := filepath.Base(name)
	ext := ""
	switch {
	case strings.HasSuffix(base, ".zst"):
		ext = ".zst"
	case strings.HasSuffix(base, ".lz4"):
		ext = ".lz4"
	}

	dst := filepath.Join(dir, strings.TrimSuffix(base, ext))
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}

	if err := copyBlob(ctx, f, blob, ext); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("download %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", err
	}
	return dst, nil
}

func copyBlob(ctx context.Context, f *os.File, blob Blob, ext string) error {
	// Uncompressed blobs from stores that support it are written with a
	// parallel ranged download.
	if ext == "" {
		if dl, ok := blob.(DownloaderTo); ok {
			return dl.DownloadTo(ctx, f)
		}
	}

	src := io.NewSectionReader(blob, 0, blob.Size())
	switch ext {
	case ".zst":
		zr, err := zstd.NewReader(src)
		if err != nil {
			return err
		}
		defer zr.Close()
		_, err = io.Copy(f, zr)
		return err
	case ".lz4":
		_, err := io.Copy(f, lz4.NewReader(src))
		return err
	default:
		_, err := io.Copy(f, src)
		return err
	}
}
