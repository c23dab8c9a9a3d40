package annoyquery

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with engine-specific helpers so operations log
// with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, a text handler to stderr at Info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))}
}

// LogOpen logs the outcome of loading an index.
func (l *Logger) LogOpen(path string, dim, trees, items int, err error) {
	if err != nil {
		l.Error("open failed",
			"path", path,
			"dimension", dim,
			"error", err,
		)
	} else {
		l.Info("index opened",
			"path", path,
			"dimension", dim,
			"trees", trees,
			"items", items,
		)
	}
}

// LogSearch logs a nearest-neighbor query.
func (l *Logger) LogSearch(k, resultsFound int, err error) {
	if err != nil {
		l.Error("search failed",
			"k", k,
			"error", err,
		)
	} else {
		l.Debug("search completed",
			"k", k,
			"results", resultsFound,
		)
	}
}

// LogClose logs the release of the engine's resources.
func (l *Logger) LogClose(err error) {
	if err != nil {
		l.Error("close failed", "error", err)
	} else {
		l.Debug("index closed")
	}
}
