package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/sieverett/Python-Import-Analyzer/pkg/observability"
)

func newTestReader(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	mp, reader := newTestReader(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	red.RecordRequest(ctx, "pyimports_analyze", observability.StatusOK, 100*time.Millisecond)
	red.RecordRequest(ctx, "pyimports_analyze", observability.StatusError, time.Second)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "pyimports.requests.total")))
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "pyimports.errors.total")))
	assert.NotNil(t, findMetric(rm, "pyimports.request.duration.seconds"))
}

func TestREDMetrics_TrackInflight(t *testing.T) {
	t.Parallel()

	mp, reader := newTestReader(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	done := red.TrackInflight(context.Background(), "pyimports_neighborhood")
	assert.Equal(t, int64(1), sumValue(t, findMetric(collectMetrics(t, reader), "pyimports.inflight.requests")))

	done()
	assert.Equal(t, int64(0), sumValue(t, findMetric(collectMetrics(t, reader), "pyimports.inflight.requests")))
}

func TestAnalysisMetrics_RecordRun(t *testing.T) {
	t.Parallel()

	mp, reader := newTestReader(t)

	am, err := observability.NewAnalysisMetrics(mp.Meter("test"))
	require.NoError(t, err)

	am.RecordRun(context.Background(), observability.AnalysisStats{
		Files:    10,
		Failures: 1,
		Edges:    12,
		Unused:   3,
		Duration: 250 * time.Millisecond,
	})

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(10), sumValue(t, findMetric(rm, "pyimports.analysis.files.total")))
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "pyimports.analysis.parse_failures.total")))
	assert.Equal(t, int64(12), sumValue(t, findMetric(rm, "pyimports.analysis.edges.total")))
	assert.Equal(t, int64(3), sumValue(t, findMetric(rm, "pyimports.analysis.unused.total")))
	assert.NotNil(t, findMetric(rm, "pyimports.analysis.duration.seconds"))
}

func TestAnalysisMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var am *observability.AnalysisMetrics

	assert.NotPanics(t, func() {
		am.RecordRun(context.Background(), observability.AnalysisStats{Files: 1})
	})
}
