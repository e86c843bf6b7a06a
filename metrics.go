package neargo

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/neargo/model"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordBuild is called after each cell-grid rebuild.
	// points is the number of binned reference points, cells the grid size.
	RecordBuild(points, cells int, duration time.Duration)

	// RecordQuery is called after each query call.
	// points is the number of query points, bonds the total result size,
	// err is nil if the call succeeded.
	RecordQuery(mode model.Mode, points, bonds int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBuild(int, int, time.Duration)                    {}
func (NoopMetricsCollector) RecordQuery(model.Mode, int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BuildCount      atomic.Int64
	BuildTotalNanos atomic.Int64
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryTotalNanos atomic.Int64
	QueryPoints     atomic.Int64
	QueryBonds      atomic.Int64
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(points, cells int, duration time.Duration) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(mode model.Mode, points, bonds int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	b.QueryPoints.Add(int64(points))
	b.QueryBonds.Add(int64(bonds))
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BuildCount:    b.BuildCount.Load(),
		QueryCount:    b.QueryCount.Load(),
		QueryErrors:   b.QueryErrors.Load(),
		QueryPoints:   b.QueryPoints.Load(),
		QueryBonds:    b.QueryBonds.Load(),
		QueryAvgNanos: b.getAvgQueryNanos(),
		BuildAvgNanos: b.getAvgBuildNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgQueryNanos() int64 {
	count := b.QueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueryTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgBuildNanos() int64 {
	count := b.BuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.BuildTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BuildCount    int64
	BuildAvgNanos int64
	QueryCount    int64
	QueryErrors   int64
	QueryPoints   int64
	QueryBonds    int64
	QueryAvgNanos int64
}
