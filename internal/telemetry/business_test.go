package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(t *testing.T) (*BusinessTracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return &BusinessTracer{tracer: provider.Tracer("test")}, recorder
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestNewBusinessTracer(t *testing.T) {
	bt := NewBusinessTracer()
	require.NotNil(t, bt)
	require.NotNil(t, bt.tracer)
}

func TestBusinessTracer_Synthesis(t *testing.T) {
	bt, recorder := newRecordingTracer(t)

	_, span := bt.TraceSynthesis(context.Background(), "Kepler-452", 3.5, 3)
	bt.RecordSynthesis(span, 1050, 2*time.Millisecond)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "lightcurve.synthesize", spans[0].Name())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "Kepler-452", attrs["star"].AsString())
	assert.Equal(t, 3.5, attrs["period_days"].AsFloat64())
	assert.Equal(t, int64(1050), attrs["samples"].AsInt64())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestBusinessTracer_Detection(t *testing.T) {
	bt, recorder := newRecordingTracer(t)

	_, span := bt.TraceDetection(context.Background(), "analysis_1", "kepler.csv", 3000)
	bt.RecordDetection(span, DetectionMetrics{
		Detected:     true,
		Period:       3.5,
		Depth:        100,
		Significance: 12.4,
		Candidates:   3,
	})
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "analysis_1", attrs["upload_id"].AsString())
	assert.True(t, attrs["detected"].AsBool())
	assert.Equal(t, int64(3), attrs["candidates"].AsInt64())
}

func TestBusinessTracer_ArchiveLookup(t *testing.T) {
	bt, recorder := newRecordingTracer(t)

	_, span := bt.TraceArchiveLookup(context.Background(), "Kepler-452 b")
	bt.RecordArchiveLookup(span, ArchiveLookupMetrics{CacheHit: true, Rows: 1})
	span.End()

	_, span = bt.TraceArchiveLookup(context.Background(), "Nowhere b")
	bt.RecordArchiveLookup(span, ArchiveLookupMetrics{Err: errors.New("archive down")})
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	hit := attrMap(spans[0].Attributes())
	assert.True(t, hit["cache_hit"].AsBool())
	assert.True(t, hit["found"].AsBool())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "archive down", spans[1].Status().Description)
}

func TestBusinessTracer_Notification(t *testing.T) {
	bt, recorder := newRecordingTracer(t)

	_, span := bt.TraceNotification(context.Background(), "strong_candidate", "telegram")
	bt.RecordNotificationResult(span, false, errors.New("chat not found"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "telegram", attrs["channel"].AsString())
	assert.False(t, attrs["success"].AsBool())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Events(), 1)
}
