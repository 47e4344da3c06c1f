package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 1 << 20

// HTTPClient wraps http.Client with a base URL and timeout.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	sent    atomic.Int64
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// Sent reports how many requests the client has put on the wire.
func (c *HTTPClient) Sent() int {
	return int(c.sent.Load())
}

// response is what a check needs from one round trip.
type response struct {
	status    int
	requestID string
	body      []byte
}

// get performs a GET with a fresh request id and reads the body.
func (c *HTTPClient) get(ctx context.Context, path string) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	id := uuid.NewString()
	req.Header.Set(RequestIDHeader, id)
	req.Header.Set("Accept", "application/json")

	c.sent.Add(1)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", path, err)
	}
	return &response{status: resp.StatusCode, requestID: id, body: body}, nil
}

// getJSON performs a GET and decodes the body into v when the status matches.
func (c *HTTPClient) getJSON(ctx context.Context, path string, wantStatus int, v any) (*response, error) {
	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	if resp.status != wantStatus {
		return resp, fmt.Errorf("%w: GET %s returned %d, want %d (request %s)",
			ErrCheckFailed, path, resp.status, wantStatus, resp.requestID)
	}
	if err := json.Unmarshal(resp.body, v); err != nil {
		return resp, fmt.Errorf("%w: GET %s: decode: %w (request %s)", ErrCheckFailed, path, err, resp.requestID)
	}
	return resp, nil
}
