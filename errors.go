package annoyquery

import (
	"errors"
	"fmt"

	"github.com/hupe1980/annoyquery/internal/nodefile"
)

var (
	// ErrClosed is returned when an operation is attempted after Close.
	ErrClosed = errors.New("engine is closed")
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")
)

// ErrInvalidIndex indicates the file is not a loadable index: it is empty, or
// its length does not divide into whole nodes for the declared dimension and
// metric. Node contents (descendant counts, child references) are not
// validated.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidIndex struct {
	Reason string
	cause  error
}

func (e *ErrInvalidIndex) Error() string {
	return fmt.Sprintf("invalid index: %s", e.Reason)
}

func (e *ErrInvalidIndex) Unwrap() error { return e.cause }

// ErrDimensionMismatch indicates a query vector whose length differs from the
// dimension the engine was opened with.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrOutOfRange indicates an item id outside [0, item count).
type ErrOutOfRange struct {
	Item  int
	Count int
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("item %d out of range [0, %d)", e.Item, e.Count)
}

// translateOpenError maps loader errors onto the public taxonomy. I/O errors
// pass through untouched.
func translateOpenError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, nodefile.ErrEmpty) {
		return &ErrInvalidIndex{Reason: "empty index file", cause: err}
	}
	if errors.Is(err, nodefile.ErrSizeNotAligned) {
		return &ErrInvalidIndex{Reason: "file size does not match dimension and metric", cause: err}
	}
	return err
}
