// Package ado is a thin Azure DevOps Git REST client plus the reference URL
// grammar prwright accepts.
package ado

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Azure DevOps Services endpoint.
	DefaultBaseURL = "https://dev.azure.com"
	apiVersion     = "7.1-preview"
)

// ErrAuthExpired is returned when ADO answers with its sign-in redirect (HTTP 203).
var ErrAuthExpired = errors.New("ADO authentication expired: refresh the PAT or run 'az login'")

// ErrNotFound is returned when the requested item, push, or PR does not exist.
var ErrNotFound = errors.New("not found")

// Client issues authenticated ADO REST calls. It is safe for concurrent use.
type Client struct {
	auth       *AuthProvider
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different ADO host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit paces outgoing requests to rps per second. Zero or less disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates a Client.
func NewClient(auth *AuthProvider, opts ...Option) *Client {
	c := &Client{
		auth:       auth,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the host root used for API and web URLs.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest makes an authenticated JSON request to the ADO API. The caller
// owns the response body. Non-2xx statuses are returned as-is for the
// caller to map; 203 is turned into ErrAuthExpired.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}
	fullURL := c.baseURL + path + separator + "api-version=" + apiVersion

	var bodyReader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBytes)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	authHeader, err := c.auth.GetAuthHeader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth header: %w", err)
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	slog.Debug("ado request", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	// ADO serves its sign-in page with 203 when the credential is rejected.
	if resp.StatusCode == http.StatusNonAuthoritativeInfo {
		resp.Body.Close()
		c.auth.InvalidateToken()
		return nil, ErrAuthExpired
	}
	return resp, nil
}

// getJSON performs a GET and decodes a 200 response into out. 404 maps to ErrNotFound.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, parseError(resp))
	}
	if resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// postJSON performs a POST and decodes a 200/201 response into out.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	resp, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return parseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseError extracts error information from an ADO API error response.
func parseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ADO API error (status %d): could not read response body", resp.StatusCode)
	}

	var adoErr adoError
	if err := json.Unmarshal(body, &adoErr); err != nil || adoErr.Message == "" {
		// Non-JSON response (e.g. HTML error pages).
		truncated := strings.TrimSpace(string(body))
		if len(truncated) > 200 {
			truncated = truncated[:200] + "... (truncated)"
		}
		return fmt.Errorf("ADO API error (status %d): %s", resp.StatusCode, truncated)
	}

	return fmt.Errorf("ADO API error (status %d, %s): %s", resp.StatusCode, adoErr.TypeKey, adoErr.Message)
}

// ensureRefPrefix adds "refs/heads/" prefix if not already present.
func ensureRefPrefix(branch string) string {
	if strings.HasPrefix(branch, "refs/") {
		return branch
	}
	return "refs/heads/" + branch
}
