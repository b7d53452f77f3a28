// Package backend is a REST client for the barangay administration API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/barangay-portal/resident-gateway/internal/logger"
	"github.com/barangay-portal/resident-gateway/internal/metrics"
)

// SessionExpiredMessage is what residents see when the backend rejects their
// token.
const SessionExpiredMessage = "Your session has expired. Please log in again."

var (
	// ErrUnauthorized covers 401 and 403. The resident has to log in again.
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrNotFound is returned for 404.
	ErrNotFound = errors.New("backend: not found")
)

// StatusError is any other non-2xx response.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend: %s: http %d", e.Endpoint, e.Code)
	}
	return fmt.Sprintf("backend: %s: http %d: %s", e.Endpoint, e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client calls the barangay backend on behalf of one resident per call; the
// bearer token is passed explicitly and never stored.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient constructs a backend client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend: empty base url")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("backend: invalid base url: %w", err)
	}
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(20), 40),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do issues a request and returns the response for 2xx statuses. The caller
// owns the body.
func (c *Client) do(ctx context.Context, token, method, endpoint, path string, query url.Values, body any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend: encode %s body: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveBackend(endpoint, metrics.ResultError, time.Since(start))
		logger.L.Warn("backend request failed", "endpoint", endpoint, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("backend: %s: %w", endpoint, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		drain(resp)
		metrics.ObserveBackend(endpoint, metrics.ResultUnauthorized, time.Since(start))
		return nil, fmt.Errorf("%s: %w", endpoint, ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		drain(resp)
		metrics.ObserveBackend(endpoint, metrics.ResultNotFound, time.Since(start))
		return nil, fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	case resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		metrics.ObserveBackend(endpoint, metrics.ResultError, time.Since(start))
		logger.L.Warn("backend returned error status", "endpoint", endpoint, "request_id", requestID, "status", resp.StatusCode)
		return nil, &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	metrics.ObserveBackend(endpoint, metrics.ResultSuccess, time.Since(start))
	return resp, nil
}

// doRaw returns the full response body.
func (c *Client) doRaw(ctx context.Context, token, method, endpoint, path string, query url.Values, body any) (json.RawMessage, error) {
	resp, err := c.do(ctx, token, method, endpoint, path, query, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("backend: read %s: %w", endpoint, err)
	}
	return json.RawMessage(data), nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
