// Package ai wraps the AI scoring collaborator: a single HTTP endpoint that
// accepts a prompt and answers with a JSON array. Anything that is not an
// array is a hard, typed failure; callers degrade it to an empty signal.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNotArray is returned when the endpoint answers with anything other
// than a JSON array. The error object some backends return on overload
// must never be iterated as if it were a result.
var ErrNotArray = errors.New("ai response is not a JSON array")

// ErrNotConfigured is returned when no endpoint was configured.
var ErrNotConfigured = errors.New("ai endpoint not configured")

// DefaultTimeout bounds one scoring call.
const DefaultTimeout = 45 * time.Second

// Client calls the scoring endpoint.
type Client struct {
	endpoint string
	client   *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a client for the given endpoint. An empty endpoint
// yields a client whose calls fail with ErrNotConfigured, which callers
// treat as "feature unavailable".
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an endpoint is set.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

// Ask sends a prompt and returns the raw elements of the JSON array reply.
func (c *Client) Ask(ctx context.Context, prompt string) ([]json.RawMessage, error) {
	if c.endpoint == "" {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(promptRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("marshal prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotArray, truncate(body, 120))
	}
	return elements, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
