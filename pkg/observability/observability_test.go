package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/tbrown91/cgat/pkg/observability"
	"github.com/tbrown91/cgat/pkg/spike"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()

	assert.Equal(t, "counts2counts", cfg.ServiceName)
	assert.Equal(t, observability.ModeCLI, cfg.Mode)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5, cfg.ShutdownTimeoutSec)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Empty(t, cfg.MetricsTextfile)
}

func TestInit_NoopWhenNoEndpoint(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogWriter = &buf

	providers, err := observability.Init(context.Background(), cfg)
	require.NoError(t, err)

	ctx, span := providers.Tracer.Start(context.Background(), "noop")
	span.End()

	providers.Logger.InfoContext(ctx, "hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "trace_id")

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestTracingHandler_InjectsSpanContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewTracingHandler(slog.NewJSONHandler(&buf, nil), "svc", "1.0.0", "", observability.ModeCLI)
	logger := slog.New(handler).WithGroup("run")

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	logger.InfoContext(ctx, "traced", "rows", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "svc", record["service"])
	assert.Equal(t, "1.0.0", record["version"])
	assert.Equal(t, "cli", record["mode"])
	assert.NotContains(t, record, "env")

	group, ok := record["run"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, span.SpanContext().TraceID().String(), group["trace_id"])
	assert.InDelta(t, 3, group["rows"], 0)
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogWriter = &buf
	cfg.LogLevel = slog.LevelWarn

	logger := observability.NewLogger(cfg)
	logger.Info("quiet")
	logger.Warn("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestInit_MetricsTextfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "counts2counts.prom")

	cfg := observability.DefaultConfig()
	cfg.LogWriter = &bytes.Buffer{}
	cfg.MetricsTextfile = path

	providers, err := observability.Init(context.Background(), cfg)
	require.NoError(t, err)

	m, err := observability.NewSpikeMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	m.ObserveIteration(ctx, 0, spike.IterationStats{Evaluated: 10, Accepted: 4, Rejected: 5, Skipped: 1})
	m.RecordRun(ctx, spike.ModeRow, spike.RunStats{Populated: 2, FullBins: 1, Duration: time.Second})

	require.NoError(t, providers.Shutdown(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "counts2counts_spike_candidates")
	assert.Contains(t, text, `outcome="accepted"`)
	assert.Contains(t, text, "counts2counts_spike_bins_populated")
	assert.Contains(t, text, "counts2counts_spike_run_duration_seconds")
}

func TestTextfile_Write(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.prom")

	tf, err := observability.NewTextfile(path)
	require.NoError(t, err)
	require.NotNil(t, tf.Reader())

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(tf.Reader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	require.NoError(t, tf.Write())
	assert.FileExists(t, path)

	_, err = tf.Gatherer().Gather()
	require.NoError(t, err)
}
