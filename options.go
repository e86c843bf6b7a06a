package neargo

import (
	"log/slog"
	"runtime"
)

// Option configures an Engine.
type Option func(o *options)

type options struct {
	workers  int
	logger   *Logger
	metrics  MetricsCollector
	cellSize float32
}

func defaultOptions() options {
	return options{
		workers: runtime.GOMAXPROCS(0),
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
	}
}

// WithWorkers sets the fixed number of worker goroutines used for the
// parallel query passes. Values <= 0 fall back to GOMAXPROCS.
// The result of a query never depends on the worker count.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLogLevel sets the log level using a default text logger.
// Convenience shortcut for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector sets a metrics collector for engine operations.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metrics = mc
		}
	}
}

// WithCellSize overrides the density-based floor on the cell edge length of
// the acceleration grid. The effective cell size is always at least the
// requested ball search radius regardless of this option.
func WithCellSize(w float32) Option {
	return func(o *options) {
		if w > 0 {
			o.cellSize = w
		}
	}
}
