package observe

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrOperation = "operation"
	attrBackend   = "backend"
	attrStatus    = "status"
	attrProvider  = "provider"
	attrAction    = "action"
	attrMethod    = "method"
	attrRoute     = "route"
	attrCode      = "code"
	attrResult    = "result"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Status maps an error to the status label.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// Metrics records scheduler metrics. All methods are safe on a nil receiver.
type Metrics struct {
	slotSearches       metric.Int64Counter
	slotSearchDuration metric.Float64Histogram
	slotsFound         metric.Int64Histogram

	calendarOps        metric.Int64Counter
	calendarOpDuration metric.Float64Histogram
	cacheLookups       metric.Int64Counter

	llmRequests        metric.Int64Counter
	llmRequestDuration metric.Float64Histogram
	transcriptions     metric.Int64Counter

	assistantTurns metric.Int64Counter

	httpRequests        metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	grpcRequests        metric.Int64Counter
	grpcRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.slotSearches, err = meter.Int64Counter(
		"slot_searches_total",
		metric.WithDescription("Free slot searches"),
		metric.WithUnit("{search}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create slot_searches_total counter: %w", err)
	}
	if m.slotSearchDuration, err = meter.Float64Histogram(
		"slot_search_duration_seconds",
		metric.WithDescription("Free slot search duration including calendar lookups"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create slot_search_duration_seconds histogram: %w", err)
	}
	if m.slotsFound, err = meter.Int64Histogram(
		"slots_found",
		metric.WithDescription("Free slots returned per search"),
		metric.WithUnit("{slot}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 4, 8, 16, 32, 64),
	); err != nil {
		return nil, fmt.Errorf("failed to create slots_found histogram: %w", err)
	}

	if m.calendarOps, err = meter.Int64Counter(
		"calendar_operations_total",
		metric.WithDescription("Calendar backend operations"),
		metric.WithUnit("{operation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create calendar_operations_total counter: %w", err)
	}
	if m.calendarOpDuration, err = meter.Float64Histogram(
		"calendar_operation_duration_seconds",
		metric.WithDescription("Calendar backend operation duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create calendar_operation_duration_seconds histogram: %w", err)
	}
	if m.cacheLookups, err = meter.Int64Counter(
		"busy_cache_lookups_total",
		metric.WithDescription("Busy interval cache lookups by result"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create busy_cache_lookups_total counter: %w", err)
	}

	if m.llmRequests, err = meter.Int64Counter(
		"llm_requests_total",
		metric.WithDescription("Language model completions"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm_requests_total counter: %w", err)
	}
	if m.llmRequestDuration, err = meter.Float64Histogram(
		"llm_request_duration_seconds",
		metric.WithDescription("Language model completion duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create llm_request_duration_seconds histogram: %w", err)
	}
	if m.transcriptions, err = meter.Int64Counter(
		"transcriptions_total",
		metric.WithDescription("Speech transcriptions by result"),
		metric.WithUnit("{transcription}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create transcriptions_total counter: %w", err)
	}

	if m.assistantTurns, err = meter.Int64Counter(
		"assistant_turns_total",
		metric.WithDescription("Conversation turns by resolved action"),
		metric.WithUnit("{turn}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create assistant_turns_total counter: %w", err)
	}

	if m.httpRequests, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}
	if m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}
	if m.grpcRequests, err = meter.Int64Counter(
		"grpc_requests_total",
		metric.WithDescription("gRPC requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create grpc_requests_total counter: %w", err)
	}
	if m.grpcRequestDuration, err = meter.Float64Histogram(
		"grpc_request_duration_seconds",
		metric.WithDescription("gRPC request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create grpc_request_duration_seconds histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordSlotSearch(ctx context.Context, status string, found int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.slotSearches.Add(ctx, 1, attrs)
	m.slotSearchDuration.Record(ctx, d.Seconds(), attrs)
	if status == StatusSuccess {
		m.slotsFound.Record(ctx, int64(found))
	}
}

func (m *Metrics) RecordCalendarOperation(ctx context.Context, backend, operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrBackend, backend),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.calendarOps.Add(ctx, 1, attrs)
	m.calendarOpDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordCacheLookup takes "hit", "miss" or "error".
func (m *Metrics) RecordCacheLookup(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

func (m *Metrics) RecordLLMRequest(ctx context.Context, provider, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrProvider, provider),
		attribute.String(attrStatus, status),
	)
	m.llmRequests.Add(ctx, 1, attrs)
	m.llmRequestDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordTranscription takes "success", "no_speech" or "error".
func (m *Metrics) RecordTranscription(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.transcriptions.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

func (m *Metrics) RecordAssistantTurn(ctx context.Context, action string) {
	if m == nil {
		return
	}
	if action == "" {
		action = "unknown"
	}
	m.assistantTurns.Add(ctx, 1, metric.WithAttributes(attribute.String(attrAction, action)))
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrRoute, route),
		attribute.Int(attrCode, statusCode),
	)
	m.httpRequests.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, d.Seconds(), attrs)
}

func (m *Metrics) RecordGRPCRequest(ctx context.Context, method, code string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrCode, code),
	)
	m.grpcRequests.Add(ctx, 1, attrs)
	m.grpcRequestDuration.Record(ctx, d.Seconds(), attrs)
}
