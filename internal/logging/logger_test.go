package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
)

func setupTestLogger(level string) (*StandardLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewStandardLoggerTo(buf, level, "test"), buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestNewStandardLogger_Basic(t *testing.T) {
	logger := NewStandardLogger("info", "development")
	assert.NotNil(t, logger)
	assert.NotNil(t, logger.Logger())
}

func TestNewStandardLogger_LogLevels(t *testing.T) {
	logger, buf := setupTestLogger("warn")

	logger.Logger().Info("hidden")
	assert.Empty(t, buf.String())

	logger.Logger().Warn("shown")
	assert.Equal(t, "shown", lastEntry(t, buf)["msg"])
	assert.Equal(t, "test", lastEntry(t, buf)["environment"])
}

func TestStandardLogger_ContextHelpers(t *testing.T) {
	tests := []struct {
		name  string
		build func(l *StandardLogger) *slog.Logger
		key   string
		want  interface{}
	}{
		{"service", func(l *StandardLogger) *slog.Logger { return l.WithService("exohunter") }, "service", "exohunter"},
		{"component", func(l *StandardLogger) *slog.Logger { return l.WithComponent("detector") }, "component", "detector"},
		{"operation", func(l *StandardLogger) *slog.Logger { return l.WithOperation("fold") }, "operation", "fold"},
		{"request id", func(l *StandardLogger) *slog.Logger { return l.WithRequestID("req-1") }, "request_id", "req-1"},
		{"user id", func(l *StandardLogger) *slog.Logger { return l.WithUserID("u-7") }, "user_id", "u-7"},
		{"star", func(l *StandardLogger) *slog.Logger { return l.WithStar("Kepler-452") }, "star", "Kepler-452"},
		{"error", func(l *StandardLogger) *slog.Logger { return l.WithError(errors.New("boom")) }, "error", "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := setupTestLogger("debug")
			tt.build(logger).Info("message")
			assert.Equal(t, tt.want, lastEntry(t, buf)[tt.key])
		})
	}
}

func TestStandardLogger_WithUpload(t *testing.T) {
	logger, buf := setupTestLogger("info")
	logger.WithUpload("analysis_1", "kepler.csv").Info("parsed")

	entry := lastEntry(t, buf)
	assert.Equal(t, "analysis_1", entry["upload_id"])
	assert.Equal(t, "kepler.csv", entry["file_name"])
}

func TestStandardLogger_WithErrorNil(t *testing.T) {
	logger, buf := setupTestLogger("info")
	logger.WithError(nil).Info("no error")

	assert.NotContains(t, lastEntry(t, buf), "error")
}

func TestStandardLogger_Events(t *testing.T) {
	logger, buf := setupTestLogger("debug")

	logger.LogStartup("exohunter", "1.0.0", 8080)
	entry := lastEntry(t, buf)
	assert.Equal(t, "startup", entry["event"])
	assert.Equal(t, float64(8080), entry["port"])

	logger.LogShutdown("exohunter", "signal received")
	assert.Equal(t, "signal received", lastEntry(t, buf)["reason"])

	logger.LogCacheOperation("get", "exoplanet:kepler-452 b", true, 3)
	entry = lastEntry(t, buf)
	assert.Equal(t, "cache", entry["event"])
	assert.Equal(t, true, entry["hit"])

	logger.LogDatabaseOperation("insert", "analysis_reports", 12, 1)
	assert.Equal(t, "analysis_reports", lastEntry(t, buf)["table"])

	logger.LogAPIRequest("POST", "/api/v1/lightcurves/analyze", 200, 41, "u-1")
	assert.Equal(t, float64(200), lastEntry(t, buf)["status"])

	logger.LogDetection("analysis_1", true, 3.5, 12.4)
	entry = lastEntry(t, buf)
	assert.Equal(t, "detection", entry["event"])
	assert.Equal(t, 3.5, entry["period_days"])

	logger.LogResourceStats("exohunter", map[string]interface{}{"goroutines": 12})
	assert.Equal(t, "resource", lastEntry(t, buf)["event"])

	logger.LogBusinessEvent("strong_candidate", map[string]interface{}{"significance": 9.1})
	assert.Equal(t, "strong_candidate", lastEntry(t, buf)["event_type"])

	logger.WithMetrics(map[string]interface{}{"points": 3001}).Info("metrics")
	assert.Contains(t, lastEntry(t, buf), "metrics")
}

func TestStandardLogger_SetLogger(t *testing.T) {
	logger, _ := setupTestLogger("info")
	replacement, buf := setupTestLogger("info")

	logger.SetLogger(replacement)
	logger.WithComponent("swapped").Info("routed")

	assert.Equal(t, "swapped", lastEntry(t, buf)["component"])
}

func TestNewLogrus(t *testing.T) {
	logger := NewLogrus("debug")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestParseLogrusLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogrusLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLogrusLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, ParseLogrusLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLogrusLevel("verbose"))
}

func TestGetSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, getSlogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, getSlogLevel("warn"))
	assert.Equal(t, slog.LevelError, getSlogLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, getSlogLevel(""))
}

func TestNewOTLPLogger_Disabled(t *testing.T) {
	logger, err := NewOTLPLogger(OTLPConfig{Enabled: false, LogLevel: "info"})
	require.NoError(t, err)
	assert.NotNil(t, logger.Logger())
	assert.NoError(t, logger.Shutdown(context.Background()))
}

func TestNewOTLPLogger_Enabled(t *testing.T) {
	logger, err := NewOTLPLogger(OTLPConfig{
		Enabled:        true,
		Endpoint:       "http://localhost:4318",
		ServiceName:    "exohunter-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		LogLevel:       "info",
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = logger.Shutdown(ctx)
}

func TestNewStandardOTLPLogger_Disabled(t *testing.T) {
	std, otlp := NewStandardOTLPLogger(OTLPConfig{Enabled: false})
	assert.NotNil(t, std)
	assert.NotNil(t, otlp)
}

func TestHostPort(t *testing.T) {
	assert.Equal(t, "collector:4318", hostPort("http://collector:4318"))
	assert.Equal(t, "collector:4318", hostPort("https://collector:4318/v1/logs"))
	assert.Equal(t, "collector:4318", hostPort("collector:4318/"))
}

// recordingLogger captures emitted OTLP records.
type recordingLogger struct {
	otellog.Logger
	mu      sync.Mutex
	records []otellog.Record
}

func (r *recordingLogger) Enabled(ctx context.Context, params otellog.EnabledParameters) bool {
	return true
}

func (r *recordingLogger) Emit(ctx context.Context, record otellog.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

func attributes(record otellog.Record) map[string]otellog.Value {
	out := map[string]otellog.Value{}
	record.WalkAttributes(func(kv otellog.KeyValue) bool {
		out[kv.Key] = kv.Value
		return true
	})
	return out
}

func TestOTLPHandler_Enabled(t *testing.T) {
	handler := NewOTLPHandler(&recordingLogger{}, slog.LevelInfo)
	ctx := context.Background()

	assert.False(t, handler.Enabled(ctx, slog.LevelDebug))
	assert.True(t, handler.Enabled(ctx, slog.LevelInfo))
	assert.True(t, handler.Enabled(ctx, slog.LevelError))
}

func TestOTLPHandler_Handle(t *testing.T) {
	rec := &recordingLogger{}
	logger := slog.New(NewOTLPHandler(rec, slog.LevelDebug))

	logger.With("component", "detector").
		WithGroup("result").
		Warn("dip found", "period", 3.5, "transits", 3, "detected", true)

	require.Len(t, rec.records, 1)
	record := rec.records[0]
	assert.Equal(t, "dip found", record.Body().AsString())
	assert.Equal(t, otellog.SeverityWarn, record.Severity())

	attrs := attributes(record)
	assert.Equal(t, "detector", attrs["component"].AsString())
	assert.Equal(t, 3.5, attrs["result.period"].AsFloat64())
	assert.Equal(t, int64(3), attrs["result.transits"].AsInt64())
	assert.True(t, attrs["result.detected"].AsBool())
}

func TestOTLPHandler_WithAttrsDoesNotMutateParent(t *testing.T) {
	rec := &recordingLogger{}
	parent := NewOTLPHandler(rec, slog.LevelInfo)
	_ = parent.WithAttrs([]slog.Attr{slog.String("component", "child")})

	slog.New(parent).Info("parent")

	require.Len(t, rec.records, 1)
	assert.NotContains(t, attributes(rec.records[0]), "component")
}

func TestConvertSlogLevelToSeverity(t *testing.T) {
	assert.Equal(t, otellog.SeverityDebug, convertSlogLevelToSeverity(slog.LevelDebug))
	assert.Equal(t, otellog.SeverityInfo, convertSlogLevelToSeverity(slog.LevelInfo))
	assert.Equal(t, otellog.SeverityWarn, convertSlogLevelToSeverity(slog.LevelWarn))
	assert.Equal(t, otellog.SeverityError, convertSlogLevelToSeverity(slog.LevelError+4))
}
