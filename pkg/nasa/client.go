package nasa

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultTAPURL    = "https://exoplanetarchive.ipac.caltech.edu/TAP/sync"
	DefaultUserAgent = "ExoplanetsHunter/1.0"
	maxErrorBody     = 4 << 10
)

// ClientOptions configures a Client. Zero values fall back to the public
// archive, a 30s timeout and 2 requests per second.
type ClientOptions struct {
	TAPURL            string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

// Client queries the NASA Exoplanet Archive TAP sync endpoint.
type Client struct {
	HTTPClient *retryablehttp.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewClient creates an archive client with retries and a request throttle.
//
// Parameters:
//
//	opts: Endpoint, timeout, retry and throttle settings.
//	logger: Logger for retry diagnostics; nil discards them.
//
// Returns:
//
//	*Client: Initialized client.
func NewClient(opts ClientOptions, logger *logrus.Logger) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = opts.MaxRetries
	httpClient.RetryWaitMin = 200 * time.Millisecond
	httpClient.RetryWaitMax = 2 * time.Second
	httpClient.HTTPClient.Timeout = timeout
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if logger != nil {
		httpClient.Logger = logger
	} else {
		httpClient.Logger = log.New(io.Discard, "", 0)
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	baseURL := strings.TrimSuffix(opts.TAPURL, "/")
	if baseURL == "" {
		baseURL = DefaultTAPURL
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		HTTPClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		logger:     logger,
	}
}

// BaseURL returns the TAP endpoint this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Query runs a synchronous ADQL query and returns the parsed csv rows.
func (c *Client) Query(ctx context.Context, adql string) ([]Row, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("archive rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("query", adql)
	params.Set("format", "csv")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	rows, err := ParseTAPCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse archive response: %w", err)
	}
	return rows, nil
}

// LookupPlanet fetches the ps rows for a planet name. An unknown planet
// is not an error: the result carries an explanatory message instead.
func (c *Client) LookupPlanet(ctx context.Context, name string) (*LookupResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "Planet name is required"}
	}

	rows, err := c.Query(ctx, BuildPlanetQuery(name))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &LookupResult{Data: []Row{}, Error: fmt.Sprintf("No exoplanet data found for %q", name)}, nil
	}

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"planet": name,
			"rows":   len(rows),
		}).Debug("Archive lookup completed")
	}
	return &LookupResult{Data: rows}, nil
}

// LookupSystem fetches every planet orbiting host.
func (c *Client) LookupSystem(ctx context.Context, host string) (*LookupResult, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, &ValidationError{Field: "host", Message: "Host star name is required"}
	}

	rows, err := c.Query(ctx, BuildSystemQuery(host))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &LookupResult{Data: []Row{}, Error: fmt.Sprintf("No exoplanet data found for %q", host)}, nil
	}
	return &LookupResult{Data: rows}, nil
}
