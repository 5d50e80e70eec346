package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal    = "pyimports.analysis.files.total"
	metricFailuresTotal = "pyimports.analysis.parse_failures.total"
	metricEdgesTotal    = "pyimports.analysis.edges.total"
	metricUnusedTotal   = "pyimports.analysis.unused.total"
	metricRunDuration   = "pyimports.analysis.duration.seconds"
)

// AnalysisMetrics holds OTel instruments for analysis runs.
type AnalysisMetrics struct {
	files       metric.Int64Counter
	failures    metric.Int64Counter
	edges       metric.Int64Counter
	unused      metric.Int64Counter
	runDuration metric.Float64Histogram
}

// AnalysisStats is what one analysis run reports to metrics.
type AnalysisStats struct {
	Files    int
	Failures int
	Edges    int
	Unused   int
	Duration time.Duration
}

// NewAnalysisMetrics creates analysis metric instruments from the given meter.
func NewAnalysisMetrics(mt metric.Meter) (*AnalysisMetrics, error) {
	files, err := mt.Int64Counter(metricFilesTotal,
		metric.WithDescription("Python files analyzed"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesTotal, err)
	}

	failures, err := mt.Int64Counter(metricFailuresTotal,
		metric.WithDescription("Python files that failed to parse"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFailuresTotal, err)
	}

	edges, err := mt.Int64Counter(metricEdgesTotal,
		metric.WithDescription("Import edges resolved"),
		metric.WithUnit("{edge}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricEdgesTotal, err)
	}

	unused, err := mt.Int64Counter(metricUnusedTotal,
		metric.WithDescription("Files unreachable from the entry point"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricUnusedTotal, err)
	}

	runDur, err := mt.Float64Histogram(metricRunDuration,
		metric.WithDescription("Analysis run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRunDuration, err)
	}

	return &AnalysisMetrics{
		files:       files,
		failures:    failures,
		edges:       edges,
		unused:      unused,
		runDuration: runDur,
	}, nil
}

// RecordRun records the statistics of a completed run.
// Safe to call on a nil receiver (no-op).
func (am *AnalysisMetrics) RecordRun(ctx context.Context, stats AnalysisStats) {
	if am == nil {
		return
	}

	am.files.Add(ctx, int64(stats.Files))
	am.failures.Add(ctx, int64(stats.Failures))
	am.edges.Add(ctx, int64(stats.Edges))
	am.unused.Add(ctx, int64(stats.Unused))
	am.runDuration.Record(ctx, stats.Duration.Seconds())
}
