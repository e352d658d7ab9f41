// Package riot provides the HTTP client for the Riot Games match-history and
// account APIs.
//
// Riot uses header auth (X-Riot-Token) and splits hosts into regional routing
// (match-v5, account-v1) and platform routing (summoner-v4). Every request goes
// through one shared token-bucket limiter, so the per-request delay holds
// globally no matter how many pollers share the client.
package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 10 * time.Second
	apiKeyHeader   = "X-Riot-Token"
)

// HTTPError represents a non-2xx, non-404 response from the Riot API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("riot HTTP %d: %s", e.StatusCode, e.Body)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// Options configures a Client. Zero values fall back to production hosts and
// a 10s per-request timeout.
type Options struct {
	APIKey   string
	Region   string // asia, americas, europe, sea
	Platform string // kr, na1, euw1, ...

	// Base URL overrides, mainly for tests.
	RegionalBaseURL string
	PlatformBaseURL string

	// RequestDelay is the minimum spacing between any two outgoing requests.
	RequestDelay time.Duration
	// Timeout bounds each individual request, including the limiter wait.
	Timeout time.Duration
}

// Client is the shared HTTP client for all Riot endpoints.
type Client struct {
	httpClient  *http.Client
	regionalURL string
	platformURL string
	apiKey      string
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a Riot HTTP client with rate limiting.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RegionalBaseURL == "" {
		opts.RegionalBaseURL = fmt.Sprintf("https://%s.api.riotgames.com", opts.Region)
	}
	if opts.PlatformBaseURL == "" {
		opts.PlatformBaseURL = fmt.Sprintf("https://%s.api.riotgames.com", opts.Platform)
	}

	limit := rate.Inf
	if opts.RequestDelay > 0 {
		limit = rate.Every(opts.RequestDelay)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: opts.Timeout},
		regionalURL: opts.RegionalBaseURL,
		platformURL: opts.PlatformBaseURL,
		apiKey:      opts.APIKey,
		timeout:     opts.Timeout,
		limiter:     rate.NewLimiter(limit, 1),
		logger:      logger,
	}
}

// get performs a rate-limited GET and decodes the JSON body into out.
// A 404 is reported as found=false with a nil error: the Riot API uses it for
// unknown players and matches, which callers treat as absent data.
func (c *Client) get(ctx context.Context, baseURL, path string, params url.Values, out interface{}) (found bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limit wait: %w", err)
	}

	u := baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("riot resource not found", "path", path)
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, &HTTPError{StatusCode: resp.StatusCode, Body: truncate(body, 200)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
