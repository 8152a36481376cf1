package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestSetup_NothingEnabled(t *testing.T) {
	ctx := context.Background()

	p, err := Setup(ctx, Options{ServiceName: "cafe-inventory"}, nil)
	require.NoError(t, err)
	assert.False(t, p.Exporting())
	assert.NotNil(t, p.Tracer("test"))
	assert.NotNil(t, p.Meter("test"))
	assert.False(t, p.LogCore().Enabled(zap.ErrorLevel))
	assert.NoError(t, p.Shutdown(ctx))
}

func TestSetup_ExportsToCollector(t *testing.T) {
	ctx := context.Background()
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	// gRPC exporters connect lazily, so no collector needs to be listening
	p, err := Setup(ctx, Options{
		ServiceName:   "cafe-inventory",
		Endpoint:      "127.0.0.1:4317",
		Insecure:      true,
		Traces:        true,
		SamplingRatio: 1,
		Logs:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, p.Exporting())

	shutdownCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_ = p.Shutdown(shutdownCtx)
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestStartAndEndSpan(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "tenant.open", AttrTenant.String("downtown"))
	EndSpan(span, nil)
	_, failed := StartSpan(context.Background(), "lock.acquire")
	EndSpan(failed, errors.New("timeout"))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "tenant.open", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Len(t, spans[1].Events(), 1)
}

func sumByName(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestLedgerMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	ctx := context.Background()

	metrics, err := NewLedgerMetrics(provider.Meter("test"), "downtown")
	require.NoError(t, err)

	metrics.RecordLedgerWrite(ctx, "purchase", 1)
	metrics.RecordLedgerWrite(ctx, "transfer", 3)
	metrics.RecordLedgerWrite(ctx, "usage", 0)
	metrics.RecordShortage(ctx, "produce", 2)
	metrics.RecordLowStock(ctx, "central")
	metrics.RecordLockWait(ctx, 3*time.Millisecond, true)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(4), sumByName(t, rm, "ledger_writes_total"))
	assert.Equal(t, int64(2), sumByName(t, rm, "ledger_shortages_total"))
	assert.Equal(t, int64(1), sumByName(t, rm, "ledger_low_stock_total"))
}

type traceRow struct {
	ID   int
	Name string
}

func TestRegisterDBTracing(t *testing.T) {
	recorder := installRecorder(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&traceRow{}))

	t.Run("disabled registers nothing", func(t *testing.T) {
		require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, zap.NewNop()))
		require.NoError(t, db.Create(&traceRow{Name: "milk"}).Error)
		assert.Empty(t, recorder.Ended())
	})

	t.Run("enabled records spans", func(t *testing.T) {
		require.NoError(t, RegisterDBTracing(db, DBTracingConfig{
			Enabled:  true,
			DBSystem: "sqlite",
			Tenant:   "downtown",
		}, zap.NewNop()))

		var rows []traceRow
		require.NoError(t, db.WithContext(context.Background()).Find(&rows).Error)
		assert.NotEmpty(t, recorder.Ended())
	})
}
