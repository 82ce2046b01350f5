// internal/upstream/client.go
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mobilesec-ms/reportgen/api/schemas"
	"github.com/mobilesec-ms/reportgen/internal/config"
)

// DefaultMaxResponseBytes caps an upstream body when no limit is configured.
const DefaultMaxResponseBytes int64 = 32 << 20

// Client retrieves the raw result of one job from one scanner.
type Client interface {
	Fetch(ctx context.Context, service schemas.Service, jobID string) ([]byte, error)
}

// HTTPClient implements Client against the scanners' GET /scan/{job_id} endpoint.
type HTTPClient struct {
	client    *http.Client
	upstreams config.UpstreamsConfig
	maxBytes  int64
}

// NewHTTPClient wires a Client on top of an http.Client built by the network package.
func NewHTTPClient(client *http.Client, upstreams config.UpstreamsConfig, maxBytes int64) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}
	return &HTTPClient{client: client, upstreams: upstreams, maxBytes: maxBytes}
}

// ScanURL builds the result URL of jobID on base.
func ScanURL(base, jobID string) string {
	return strings.TrimRight(base, "/") + "/scan/" + url.PathEscape(jobID)
}

// Fetch performs a single GET. There are no retries.
func (c *HTTPClient) Fetch(ctx context.Context, service schemas.Service, jobID string) ([]byte, error) {
	base := c.upstreams.For(service).BaseURL
	if base == "" {
		return nil, fmt.Errorf("no base URL configured for %s", service)
	}
	target := ScanURL(base, jobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", service, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", target, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", target, c.maxBytes)
	}
	return body, nil
}
