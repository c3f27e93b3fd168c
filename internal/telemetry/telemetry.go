package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Service information
	ServiceName    = "github.com/irfndi/exohunter-go"
	ServiceVersion = "1.0.0"

	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"

	tracesPath = "/v1/traces"
)

// TelemetryConfig holds configuration for telemetry
type TelemetryConfig struct {
	Enabled        bool
	Exporter       string
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
	Environment    string
	SampleRate     float64
	BatchTimeout   time.Duration
	MaxExportBatch int
	MaxQueueSize   int
	LogLevel       string

	// Writer receives spans when Exporter is stdout. Defaults to os.Stdout.
	Writer io.Writer
}

// DefaultConfig returns default telemetry configuration
func DefaultConfig() *TelemetryConfig {
	return &TelemetryConfig{
		Enabled:        true,
		Exporter:       ExporterOTLP,
		OTLPEndpoint:   "http://localhost:4318",
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    "development",
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		MaxExportBatch: 512,
		MaxQueueSize:   2048,
		LogLevel:       "info",
	}
}

// Provider holds the telemetry provider
type Provider struct {
	Shutdown func(context.Context) error
	logger   *slog.Logger
}

var (
	mu             sync.Mutex
	globalProvider *Provider
	globalLogger   *slog.Logger
)

// normalizeOTLPEndpoint splits a collector base URL into the host:port and
// path otlptracehttp expects, appending /v1/traces when missing.
func normalizeOTLPEndpoint(raw string) (hostport, urlPath string, insecure bool, resolved string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", "", false, "", fmt.Errorf("invalid OTLPEndpoint %q: expected scheme://host[:port][/path]", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", false, "", fmt.Errorf("invalid OTLPEndpoint %q: unsupported scheme %q", raw, u.Scheme)
	}

	path := strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(path, tracesPath) {
		path += tracesPath
	}

	insecure = u.Scheme == "http"
	resolved = fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, path)
	return u.Host, path, insecure, resolved, nil
}

// InitTelemetry initializes the global tracer provider.
func InitTelemetry(config TelemetryConfig) error {
	provider, err := InitTelemetryWithProvider(context.Background(), &config, slog.Default())
	if err != nil {
		return err
	}

	mu.Lock()
	globalProvider = provider
	mu.Unlock()
	return nil
}

// InitTelemetryWithProvider builds a tracer provider for config and
// installs it globally. A disabled config yields a no-op provider.
func InitTelemetryWithProvider(ctx context.Context, config *TelemetryConfig, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config == nil || !config.Enabled {
		return &Provider{
			Shutdown: func(context.Context) error { return nil },
			logger:   logger,
		}, nil
	}

	exporter, err := newExporter(ctx, config)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(valueOr(config.ServiceName, ServiceName)),
			semconv.ServiceVersion(valueOr(config.ServiceVersion, ServiceVersion)),
			semconv.DeploymentEnvironment(valueOr(config.Environment, "development")),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	batchOpts := []sdktrace.BatchSpanProcessorOption{}
	if config.BatchTimeout > 0 {
		batchOpts = append(batchOpts, sdktrace.WithBatchTimeout(config.BatchTimeout))
	}
	if config.MaxExportBatch > 0 {
		batchOpts = append(batchOpts, sdktrace.WithMaxExportBatchSize(config.MaxExportBatch))
	}
	if config.MaxQueueSize > 0 {
		batchOpts = append(batchOpts, sdktrace.WithMaxQueueSize(config.MaxQueueSize))
	}

	sampleRate := config.SampleRate
	if sampleRate <= 0 || sampleRate > 1 {
		sampleRate = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, batchOpts...),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Telemetry initialized",
		"exporter", valueOr(config.Exporter, ExporterOTLP),
		"service", config.ServiceName,
		"sample_rate", sampleRate,
	)

	return &Provider{Shutdown: tp.Shutdown, logger: logger}, nil
}

func newExporter(ctx context.Context, config *TelemetryConfig) (sdktrace.SpanExporter, error) {
	switch valueOr(config.Exporter, ExporterOTLP) {
	case ExporterStdout:
		w := config.Writer
		if w == nil {
			w = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return exporter, nil
	case ExporterOTLP:
		hostport, path, insecure, _, err := normalizeOTLPEndpoint(config.OTLPEndpoint)
		if err != nil {
			return nil, err
		}
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(hostport),
			otlptracehttp.WithURLPath(path),
		}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("unknown telemetry exporter %q", config.Exporter)
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Shutdown flushes and stops the global provider, if any.
func Shutdown() error {
	mu.Lock()
	provider := globalProvider
	globalProvider = nil
	mu.Unlock()

	if provider == nil || provider.Shutdown == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("telemetry shutdown: %w", err)
	}
	return nil
}

// SetLogger registers the OTLP-backed application logger.
func SetLogger(logger *slog.Logger) {
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
}

// Logger returns the application logger, or slog.Default before SetLogger.
func Logger() *slog.Logger {
	if l := GetLogger(); l != nil {
		return l
	}
	return slog.Default()
}

// GetLogger returns the registered logger or nil.
func GetLogger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return globalLogger
}

// GetTracer returns a named tracer from the global provider.
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func GetHTTPTracer() trace.Tracer { return GetTracer(ServiceName + "/http") }
func GetDatabaseTracer() trace.Tracer { return GetTracer(ServiceName + "/database") }
func GetBusinessTracer() trace.Tracer { return GetTracer(ServiceName + "/business") }
func GetCacheTracer() trace.Tracer { return GetTracer(ServiceName + "/cache") }
func GetExternalTracer() trace.Tracer { return GetTracer(ServiceName + "/external") }
func GetLightCurveTracer() trace.Tracer { return GetTracer(ServiceName + "/lightcurve") }
func GetArchiveTracer() trace.Tracer { return GetTracer(ServiceName + "/archive") }

// StartSpan starts a span on tracer.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordError records err on span and marks it failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func SetSpanStatus(span trace.Span, code codes.Code, description string) {
	span.SetStatus(code, description)
}

func StringAttribute(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

func StringSliceAttribute(key string, value []string) attribute.KeyValue {
	return attribute.StringSlice(key, value)
}

func Int64Attribute(key string, value int64) attribute.KeyValue {
	return attribute.Int64(key, value)
}

func Float64Attribute(key string, value float64) attribute.KeyValue {
	return attribute.Float64(key, value)
}

func BoolAttribute(key string, value bool) attribute.KeyValue {
	return attribute.Bool(key, value)
}
