package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/exohunter-go/internal/config"
	"github.com/irfndi/exohunter-go/internal/services"
	"github.com/irfndi/exohunter-go/pkg/nasa"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newLightCurveService(store services.ReportStore) *services.LightCurveService {
	cfg := config.LightCurveConfig{MaxUploadMB: 50, MaxSamples: 100000, SmoothWindow: 5, NotifySignificance: 7}
	return services.NewLightCurveService(cfg, store, nil, nil, quietLogger())
}

// transitCSV has single-sample dips every 3.5 days.
func transitCSV() string {
	var b strings.Builder
	b.WriteString("time,flux\n")
	for i := 0; i < 1000; i++ {
		flux := 1.0
		if i == 100 || i == 450 || i == 800 {
			flux = 0.98
		}
		fmt.Fprintf(&b, "%.2f,%.6f\n", float64(i)*0.01, flux)
	}
	return b.String()
}

// multipartUpload builds an analyze request body. Empty fileName omits the
// file part.
func multipartUpload(t *testing.T, fileName, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func perform(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type fakeArchive struct {
	results map[string]*nasa.LookupResult
	err     error
	calls   int
}

func (f *fakeArchive) LookupPlanet(_ context.Context, name string) (*nasa.LookupResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.results[name]; ok {
		return r, nil
	}
	return &nasa.LookupResult{Data: []nasa.Row{}, Error: fmt.Sprintf("No exoplanet data found for %q", name)}, nil
}

type fakeChecker struct {
	err error
}

func (f fakeChecker) HealthCheck(context.Context) error {
	return f.err
}
