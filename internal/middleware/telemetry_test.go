package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRequestID))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/id", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set(RequestIDHeader, "client-chosen")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "client-chosen", w.Header().Get(RequestIDHeader))
}

func TestTelemetryMiddleware(t *testing.T) {
	recorder := setupRecorder(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID(), TelemetryMiddleware())
	router.POST("/api/v1/lightcurves/simulate", func(c *gin.Context) {
		AddSpanAttribute(c, "lightcurve.samples", 1050)
		AddSpanAttribute(c, "lightcurve.star", "Kepler-452")
		AddSpanAttribute(c, "lightcurve.period", 3.5)
		AddSpanAttribute(c, "lightcurve.clamped", true)
		AddSpanAttribute(c, "lightcurve.other", []int{1})
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.GET("/api/v1/exoplanets", func(c *gin.Context) {
		RecordError(c, errors.New("missing name"), "validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Planet name is required"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	t.Run("successful request", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/lightcurves/simulate", nil))
		require.Equal(t, http.StatusOK, w.Code)

		spans := recorder.Ended()
		require.NotEmpty(t, spans)
		span := spans[len(spans)-1]
		assert.Equal(t, "HTTP POST /api/v1/lightcurves/simulate", span.Name())

		attrs := spanAttrs(span)
		assert.Equal(t, int64(200), attrs["http.status_code"].AsInt64())
		assert.Equal(t, "/api/v1/lightcurves/simulate", attrs["http.route"].AsString())
		assert.Equal(t, int64(1050), attrs["lightcurve.samples"].AsInt64())
		assert.Equal(t, "Kepler-452", attrs["lightcurve.star"].AsString())
		assert.True(t, attrs["lightcurve.clamped"].AsBool())
		assert.Equal(t, "[1]", attrs["lightcurve.other"].AsString())
		assert.NotEmpty(t, attrs["http.request_id"].AsString())
		assert.Equal(t, codes.Ok, span.Status().Code)
	})

	t.Run("client error", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exoplanets", nil))
		require.Equal(t, http.StatusBadRequest, w.Code)

		spans := recorder.Ended()
		span := spans[len(spans)-1]
		assert.Equal(t, codes.Error, span.Status().Code)
		assert.Equal(t, "HTTP 400", span.Status().Description)
		assert.Len(t, span.Events(), 1)
	})

	t.Run("health probes skipped", func(t *testing.T) {
		before := len(recorder.Ended())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, recorder.Ended(), before)
	})
}

func TestHealthCheckTelemetryMiddleware(t *testing.T) {
	recorder := setupRecorder(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(HealthCheckTelemetryMiddleware())
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Health /ready", spans[0].Name())
	assert.Equal(t, "server_error", spanAttrs(spans[0])["health.status"].AsString())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestStartSpan(t *testing.T) {
	recorder := setupRecorder(t)
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/fold", func(c *gin.Context) {
		ctx, span := StartSpan(c, "lightcurve.fold")
		assert.Equal(t, ctx, c.Request.Context())
		span.End()
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fold", nil))

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, "lightcurve.fold", recorder.Ended()[0].Name())
}

func TestGetHealthStatusFromCode(t *testing.T) {
	assert.Equal(t, "healthy", getHealthStatusFromCode(200))
	assert.Equal(t, "client_error", getHealthStatusFromCode(404))
	assert.Equal(t, "server_error", getHealthStatusFromCode(503))
	assert.Equal(t, "unknown", getHealthStatusFromCode(302))
}
