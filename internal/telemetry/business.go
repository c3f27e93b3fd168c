package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessTracer traces the domain operations of the analysis pipeline:
// curve synthesis, transit search, archive lookups and notifications.
type BusinessTracer struct {
	tracer trace.Tracer
}

// NewBusinessTracer creates a new instance of BusinessTracer.
//
// Returns:
//   - A pointer to a BusinessTracer bound to the business tracer.
func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{tracer: GetBusinessTracer()}
}

// TraceSynthesis starts a span for generating a synthetic light curve.
//
// Parameters:
//   - ctx: The parent context.
//   - starName: The star named in the request metadata.
//   - period: Orbital period in days.
//   - transitCount: Number of simulated transits.
//
// Returns:
//   - A context containing the new span.
//   - The created span.
func (bt *BusinessTracer) TraceSynthesis(ctx context.Context, starName string, period float64, transitCount int) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "lightcurve.synthesize", trace.WithAttributes(
		attribute.String("star", starName),
		attribute.Float64("period_days", period),
		attribute.Int("transit_count", transitCount),
	))
}

// RecordSynthesis records the size of a generated curve.
func (bt *BusinessTracer) RecordSynthesis(span trace.Span, samples int, elapsed time.Duration) {
	span.SetAttributes(
		attribute.Int("samples", samples),
		attribute.Int64("synthesis_time_ms", elapsed.Milliseconds()),
	)
	span.SetStatus(codes.Ok, "")
}

// TraceDetection starts a span for a transit search over an uploaded curve.
//
// Parameters:
//   - ctx: The parent context.
//   - uploadID: The analysis identifier.
//   - fileName: The uploaded file name.
//   - samples: Number of parsed samples.
//
// Returns:
//   - A context containing the new span.
//   - The created span.
func (bt *BusinessTracer) TraceDetection(ctx context.Context, uploadID string, fileName string, samples int) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "lightcurve.detect", trace.WithAttributes(
		attribute.String("upload_id", uploadID),
		attribute.String("file_name", fileName),
		attribute.Int("samples", samples),
	))
}

// RecordDetection adds the outcome of a transit search to span.
func (bt *BusinessTracer) RecordDetection(span trace.Span, metrics DetectionMetrics) {
	span.SetAttributes(
		attribute.Bool("detected", metrics.Detected),
		attribute.Float64("period_days", metrics.Period),
		attribute.Float64("depth_ppm", metrics.Depth),
		attribute.Float64("significance", metrics.Significance),
		attribute.Int("candidates", metrics.Candidates),
		attribute.Int64("detection_time_ms", metrics.DetectionTime.Milliseconds()),
	)
	span.SetStatus(codes.Ok, "")
}

// TraceArchiveLookup starts a span for a NASA Exoplanet Archive lookup.
func (bt *BusinessTracer) TraceArchiveLookup(ctx context.Context, planetName string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "archive.lookup", trace.WithAttributes(
		attribute.String("planet", planetName),
	))
}

// RecordArchiveLookup records whether the lookup was served from cache and
// how many rows it produced.
func (bt *BusinessTracer) RecordArchiveLookup(span trace.Span, metrics ArchiveLookupMetrics) {
	span.SetAttributes(
		attribute.Bool("cache_hit", metrics.CacheHit),
		attribute.Int("rows", metrics.Rows),
		attribute.Bool("found", metrics.Rows > 0),
	)
	if metrics.Err != nil {
		RecordError(span, metrics.Err)
		return
	}
	span.SetStatus(codes.Ok, "")
}

// TraceNotification starts a span for tracing notification delivery.
//
// Parameters:
//   - ctx: The context to attach the span to.
//   - notificationType: The type of notification being sent.
//   - channel: The delivery channel (e.g., "telegram").
//
// Returns:
//   - A context containing the new span.
//   - The created span.
func (bt *BusinessTracer) TraceNotification(ctx context.Context, notificationType string, channel string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "notification", trace.WithAttributes(
		attribute.String("notification_type", notificationType),
		attribute.String("channel", channel),
	))
}

// RecordNotificationResult records the outcome of a notification attempt onto a span.
func (bt *BusinessTracer) RecordNotificationResult(span trace.Span, success bool, err error) {
	span.SetAttributes(attribute.Bool("success", success))
	if err != nil {
		RecordError(span, err)
		return
	}
	span.SetStatus(codes.Ok, "")
}

// DetectionMetrics describes a finished transit search.
type DetectionMetrics struct {
	Detected      bool
	Period        float64
	Depth         float64
	Significance  float64
	Candidates    int
	DetectionTime time.Duration
}

// ArchiveLookupMetrics describes a finished archive lookup.
type ArchiveLookupMetrics struct {
	CacheHit bool
	Rows     int
	Err      error
}
