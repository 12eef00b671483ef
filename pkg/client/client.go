// Package client is the Go SDK for the chemenv HTTP API. Pattern operations
// hang off Patterns(), stored environments off Environments().
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/chemenv/pkg/errors"
	"github.com/turtacn/chemenv/pkg/types/common"
)

const Version = "0.1.0"

const apiPrefix = "/api/v1"

// Logger defines the logging interface used by the Client
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// Client is the chemenv SDK client. It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	apiKey       string
	userAgent    string
	logger       Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	patterns         *PatternsClient
	patternsOnce     sync.Once
	environments     *EnvironmentsClient
	environmentsOnce sync.Once
}

// APIError is a non-2xx answer from the server, decoded from its error
// envelope when there is one.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("chemenv: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg + " [request_id=" + e.RequestID + "]"
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.InvalidParam("baseURL is required")
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid baseURL").WithDetail(baseURL)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, errors.InvalidParam("baseURL scheme must be http or https").WithDetail(baseURL)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    fmt.Sprintf("chemenv-go-sdk/%s", Version),
		logger:       noopLogger{},
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Patterns returns the stateless pattern sub-client.
func (c *Client) Patterns() *PatternsClient {
	c.patternsOnce.Do(func() {
		c.patterns = &PatternsClient{client: c}
	})
	return c.patterns
}

// Environments returns the stored environment sub-client.
func (c *Client) Environments() *EnvironmentsClient {
	c.environmentsOnce.Do(func() {
		c.environments = &EnvironmentsClient{client: c}
	})
	return c.environments
}

// Readiness is the body of GET /readyz.
type Readiness struct {
	Status     common.HealthStatus      `json:"status"`
	Components []common.ComponentHealth `json:"components,omitempty"`
}

// Ready reports the server's readiness. A 503 still decodes into Readiness
// so callers can see which component is down.
func (c *Client) Ready(ctx context.Context) (*Readiness, error) {
	status, body, reqID, err := c.do(ctx, http.MethodGet, "/readyz", nil, http.StatusServiceUnavailable)
	if err != nil {
		return nil, err
	}
	var r Readiness
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, &APIError{StatusCode: status, Code: string(errors.ErrCodeSerialization), Message: "invalid readiness body", RequestID: reqID}
	}
	return &r, nil
}

// call sends body and decodes the data of a success envelope into a T.
func call[T any](ctx context.Context, c *Client, method, path string, body interface{}) (*T, error) {
	status, raw, reqID, err := c.do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent || len(raw) == 0 {
		return nil, nil
	}
	var env common.APIResponse[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !env.Success {
		return nil, envelopeError(status, env.Error, reqID)
	}
	return &env.Data, nil
}

// do performs an HTTP request with retry logic. Statuses listed in accept
// are returned to the caller instead of being turned into an APIError.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, accept ...int) (int, []byte, string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := c.baseURL + path

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, nil, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var lastErr error
	waited := false
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 && !waited {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debugf("Retry attempt %d after %v", attempt, backoff)
			if err := sleep(ctx, backoff); err != nil {
				return 0, nil, "", err
			}
		}
		waited = false

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return 0, nil, "", fmt.Errorf("failed to create request: %w", err)
		}

		requestID := uuid.New().String()
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)
		if err != nil {
			if ctx.Err() != nil {
				return 0, nil, "", ctx.Err()
			}
			c.logger.Errorf("Request failed: %v", err)
			lastErr = err
			continue
		}
		c.logger.Debugf("%s %s %d (%v)", method, path, resp.StatusCode, duration)

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return 0, nil, "", fmt.Errorf("failed to read response body: %w", err)
		}
		if echoed := resp.Header.Get("X-Request-ID"); echoed != "" {
			requestID = echoed
		}

		if resp.StatusCode < 400 || containsStatus(accept, resp.StatusCode) {
			return resp.StatusCode, respBody, requestID, nil
		}

		apiErr := decodeAPIError(resp.StatusCode, respBody, requestID)
		lastErr = apiErr

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.retryMax {
			if wait, ok := c.retryAfter(resp.Header.Get("Retry-After")); ok {
				c.logger.Infof("Rate limited, retrying after %v", wait)
				if err := sleep(ctx, wait); err != nil {
					return 0, nil, "", err
				}
				// The Retry-After wait replaces the backoff of the next attempt.
				waited = true
				continue
			}
		}
		if !apiErr.IsServerError() {
			return 0, nil, "", apiErr
		}
	}
	return 0, nil, "", lastErr
}

func decodeAPIError(status int, body []byte, requestID string) *APIError {
	apiErr := &APIError{StatusCode: status, RequestID: requestID}
	if len(body) == 0 {
		apiErr.Message = http.StatusText(status)
		return apiErr
	}
	var env common.APIResponse[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Detail = env.Error.Detail
		if env.RequestID != "" {
			apiErr.RequestID = env.RequestID
		}
		return apiErr
	}
	apiErr.Message = string(body)
	return apiErr
}

func envelopeError(status int, detail *common.ErrorDetail, requestID string) *APIError {
	apiErr := &APIError{StatusCode: status, RequestID: requestID, Message: "unsuccessful response"}
	if detail != nil {
		apiErr.Code = detail.Code
		apiErr.Message = detail.Message
		apiErr.Detail = detail.Detail
	}
	return apiErr
}

// retryAfter parses a Retry-After header in seconds, capped at retryWaitMax.
func (c *Client) retryAfter(header string) (time.Duration, bool) {
	if header == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0, false
	}
	wait := time.Duration(seconds) * time.Second
	if wait > c.retryWaitMax {
		wait = c.retryWaitMax
	}
	return wait, true
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	// Add jitter (0-25% of backoff)
	if quarter := int64(backoff / 4); quarter > 0 {
		backoff += time.Duration(rand.Int63n(quarter))
	}
	return backoff
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func containsStatus(list []int, status int) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
