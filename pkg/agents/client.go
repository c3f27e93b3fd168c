package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// ClientOptions configures a Client. A zero Timeout means 120s.
type ClientOptions struct {
	ServiceURL string
	Timeout    time.Duration
	MaxRetries int
}

// Client talks to the AI agents backend (classifier plus the Kepler,
// bibliographic and Grace Hopper agents).
type Client struct {
	HTTPClient *retryablehttp.Client
	baseURL    string
	logger     *logrus.Logger
}

// NewClient creates a new agents client instance.
//
// Parameters:
//
//	opts: Backend URL, timeout and retry budget.
//	logger: Logger; nil discards retry diagnostics.
//
// Returns:
//
//	*Client: Initialized client.
func NewClient(opts ClientOptions, logger *logrus.Logger) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = opts.MaxRetries
	httpClient.HTTPClient.Timeout = timeout
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if logger != nil {
		httpClient.Logger = logger
	} else {
		httpClient.Logger = log.New(io.Discard, "", 0)
	}

	return &Client{
		HTTPClient: httpClient,
		baseURL:    strings.TrimSuffix(opts.ServiceURL, "/"),
		logger:     logger,
	}
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Predict classifies a single transit signal.
func (c *Client) Predict(ctx context.Context, in ExoplanetInput) (*Prediction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var prediction Prediction
	if err := c.makeRequest(ctx, http.MethodPost, "/predict", in, &prediction); err != nil {
		return nil, err
	}
	return &prediction, nil
}

// PredictBatch classifies several signals in one call.
func (c *Client) PredictBatch(ctx context.Context, inputs []ExoplanetInput) (*BatchPredictionResponse, error) {
	if len(inputs) == 0 {
		return nil, invalid("inputs", "Empty payload")
	}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}

	var response BatchPredictionResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/predict/batch", inputs, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// AnalyzeKepler asks the Kepler agent for a synthetic planet sheet.
func (c *Client) AnalyzeKepler(ctx context.Context, q PlanetQuery) (*AgentResponse, error) {
	return c.askAgent(ctx, "/kepler/analyze", q, q.Validate())
}

// AnalyzeBibliographic asks the bibliographic agent for literature on a planet.
func (c *Client) AnalyzeBibliographic(ctx context.Context, q PlanetQuery) (*AgentResponse, error) {
	return c.askAgent(ctx, "/bibliographic/analyze", q, q.Validate())
}

// AnalyzeGraceHopper asks the Grace Hopper agent to interpret characteristics.
func (c *Client) AnalyzeGraceHopper(ctx context.Context, r CharacteristicsRequest) (*AgentResponse, error) {
	return c.askAgent(ctx, "/grace-hopper/analyze", r, r.Validate())
}

func (c *Client) askAgent(ctx context.Context, path string, body interface{}, validationErr error) (*AgentResponse, error) {
	if validationErr != nil {
		return nil, validationErr
	}

	var response AgentResponse
	if err := c.makeRequest(ctx, http.MethodPost, path, body, &response); err != nil {
		return nil, err
	}
	if !response.Success && c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"path":  path,
			"error": response.Error,
		}).Warn("Agent run reported failure")
	}
	return &response, nil
}

var healthEndpoints = []struct {
	name string
	path string
}{
	{"classifier", "/health"},
	{"kepler", "/kepler/health"},
	{"grace_hopper", "/grace-hopper/health"},
}

// Health probes every backend health endpoint concurrently. It never
// fails; unreachable endpoints are reported as unhealthy.
func (c *Client) Health(ctx context.Context) []HealthStatus {
	statuses := make([]HealthStatus, len(healthEndpoints))

	var wg sync.WaitGroup
	for i, ep := range healthEndpoints {
		wg.Add(1)
		go func(i int, name, path string) {
			defer wg.Done()
			statuses[i] = c.probe(ctx, name, path)
		}(i, ep.name, ep.path)
	}
	wg.Wait()

	return statuses
}

func (c *Client) probe(ctx context.Context, name, path string) HealthStatus {
	status := HealthStatus{Name: name, Status: "unreachable"}

	body, code, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	if code >= 400 {
		status.Status = "error"
		status.Error = errorDetail(body)
		return status
	}

	parsed := gjson.ParseBytes(body)
	status.Status = parsed.Get("status").String()
	status.Agent = parsed.Get("agent").String()
	status.Version = parsed.Get("version").String()
	status.Healthy = status.Status == "ok" || status.Status == "healthy"
	return status
}

// makeRequest sends body as JSON and decodes a 2xx answer into result.
func (c *Client) makeRequest(ctx context.Context, method, path string, body, result interface{}) error {
	respBody, code, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}

	if code >= 400 {
		return &APIError{StatusCode: code, Detail: errorDetail(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// errorDetail pulls a readable message out of a backend error body. The
// backend uses {"detail": "..."} or a list of {"msg": ...} for schema
// violations.
func errorDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}

	detail := gjson.GetBytes(body, "detail")
	if detail.IsArray() {
		var msgs []string
		for _, m := range detail.Get("#.msg").Array() {
			msgs = append(msgs, m.String())
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	if detail.Exists() {
		return detail.String()
	}
	if e := gjson.GetBytes(body, "error"); e.Exists() {
		return e.String()
	}
	return strings.TrimSpace(string(body))
}
