// Package client is the HTTP client for the roster API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultTimeout bounds a single request when the caller's context has no deadline
const DefaultTimeout = 10 * time.Second

// Client is an HTTP client for the API
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithToken sets the initial session token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a new API client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken updates the client's token
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current session token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL returns the server URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

type errorEnvelope struct {
	Error    bool             `json:"error"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Errors   []string         `json:"errors"`
	Conflict *ConflictDetails `json:"conflict"`
}

type successEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// Do performs a JSON request and decodes the success envelope's data into result
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}
	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	return c.do(ctx, method, path, contentType, bodyReader, result)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, result any) error {
	op := method + " " + path

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(ctx, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return classifyTransport(ctx, op, err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp errorEnvelope
		decoded := json.Unmarshal(respBody, &errResp) == nil && errResp.Code != ""
		if transientStatus(resp.StatusCode) {
			cause := fmt.Errorf("%s", http.StatusText(resp.StatusCode))
			if decoded {
				cause = &APIError{Status: resp.StatusCode, Code: errResp.Code, Message: errResp.Message}
			}
			return &TransientError{Op: op, Status: resp.StatusCode, Err: cause}
		}
		if decoded {
			return &APIError{
				Status:   resp.StatusCode,
				Code:     errResp.Code,
				Message:  errResp.Message,
				Errors:   errResp.Errors,
				Conflict: errResp.Conflict,
			}
		}
		return fmt.Errorf("%s: HTTP %d: %s", op, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	// Parse successful response
	if result == nil || len(respBody) == 0 {
		return nil
	}
	var env successEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if !env.Success {
		return fmt.Errorf("%s: response is not a success envelope", op)
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPut, path, body, result)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, result)
}
