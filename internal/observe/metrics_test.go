package observe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_RecordsThroughManualReader(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	p, err := NewProviderWithReader("test", reader)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	ctx := context.Background()
	m := p.Metrics()
	m.RecordSlotSearch(ctx, StatusSuccess, 16, 5*time.Millisecond)
	m.RecordSlotSearch(ctx, StatusError, 0, time.Millisecond)
	m.RecordCalendarOperation(ctx, "local", "busy", StatusSuccess, time.Millisecond)
	m.RecordCacheLookup(ctx, "hit")
	m.RecordAssistantTurn(ctx, "")

	got := collect(t, reader)

	searches, ok := got["slot_searches_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok, "slot_searches_total missing")
	var total int64
	for _, dp := range searches.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)

	found, ok := got["slots_found"].Data.(metricdata.Histogram[int64])
	require.True(t, ok, "slots_found missing")
	require.Len(t, found.DataPoints, 1)
	assert.Equal(t, uint64(1), found.DataPoints[0].Count)
	assert.Equal(t, int64(16), found.DataPoints[0].Sum)

	turns, ok := got["assistant_turns_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, turns.DataPoints, 1)
	action, _ := turns.DataPoints[0].Attributes.Value("action")
	assert.Equal(t, "unknown", action.AsString())

	assert.Contains(t, got, "calendar_operations_total")
	assert.Contains(t, got, "busy_cache_lookups_total")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordSlotSearch(ctx, StatusSuccess, 1, time.Second)
		m.RecordCalendarOperation(ctx, "google", "list", StatusError, time.Second)
		m.RecordCacheLookup(ctx, "miss")
		m.RecordLLMRequest(ctx, "gemini", StatusSuccess, time.Second)
		m.RecordTranscription(ctx, "no_speech")
		m.RecordAssistantTurn(ctx, "schedule")
		m.RecordHTTPRequest(ctx, http.MethodGet, "/healthz", 200, time.Second)
		m.RecordGRPCRequest(ctx, "/x/y", "OK", time.Second)
	})

	var p *Provider
	assert.Nil(t, p.Metrics())
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(ctx))
}

func TestProvider_DisabledServesNotFound(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NotNil(t, p.Metrics())

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProvider_PrometheusHandlerExposesMetrics(t *testing.T) {
	p, err := NewProvider(Config{Enabled: true, ServiceName: "smartscheduler-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	p.Metrics().RecordSlotSearch(context.Background(), StatusSuccess, 3, time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "slot_searches_total"), rec.Body.String())
}

func TestStatus(t *testing.T) {
	assert.Equal(t, StatusSuccess, Status(nil))
	assert.Equal(t, StatusError, Status(errors.New("x")))
}
