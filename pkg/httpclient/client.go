// Package httpclient provides the HTTP client used by catalog providers to
// talk to their upstream APIs.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default timeout for upstream requests.
	DefaultTimeout = 10 * time.Second

	// MaxResponseSize is the maximum allowed response size (16MB). Catalog
	// APIs return bounded JSON payloads; anything larger is upstream
	// misbehavior.
	MaxResponseSize = 16 * 1024 * 1024

	// UserAgent identifies this resolver to upstream catalog APIs.
	UserAgent = "bibliofed-resolver/1.0"
)

// Client is the interface catalog providers use for upstream JSON calls.
type Client interface {
	// GetJSON performs a GET request and decodes the JSON response into out.
	GetJSON(ctx context.Context, url string, out any) error

	// PostJSON performs a POST request with a JSON body and decodes the
	// JSON response into out.
	PostJSON(ctx context.Context, url string, body any, out any) error
}

// DefaultClient is the default Client implementation.
type DefaultClient struct {
	client *http.Client
}

// NewDefaultClient creates a Client with the specified timeout. A zero
// timeout uses DefaultTimeout. Per-request deadlines still come from ctx;
// the client timeout is a backstop.
func NewDefaultClient(timeout time.Duration) *DefaultClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &DefaultClient{
		client: &http.Client{Timeout: timeout},
	}
}

// GetJSON performs a GET request and decodes the JSON response into out.
func (c *DefaultClient) GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

// PostJSON performs a POST request with a JSON body and decodes the JSON
// response into out.
func (c *DefaultClient) PostJSON(ctx context.Context, url string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *DefaultClient) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, req.URL.String(), resp.Status)
	}

	// +1 so reading past the limit is detectable
	limited := io.LimitReader(resp.Body, MaxResponseSize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > MaxResponseSize {
		return fmt.Errorf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.String(), err)
	}
	return nil
}
