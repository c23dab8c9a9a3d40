package annoyquery

import "log/slog"

type options struct {
	blockNodes       int
	logger           *Logger
	metricsCollector MetricsCollector
}

// Option configures Open behavior.
type Option func(*options)

// WithBlockNodes sets the byte-view block granularity in whole nodes. The
// default covers as many nodes as fit in a 2 GiB range, matching the
// producer's buffer stitching; tests use tiny values to exercise the
// multi-block read paths.
func WithBlockNodes(n int) Option {
	return func(o *options) {
		o.blockNodes = n
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
