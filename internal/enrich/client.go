// Package enrich fetches holder and extended market stats for a token
// through the key-hiding proxy. The proxy owns the provider API key;
// when it is not configured the whole feature is unavailable rather
// than broken.
package enrich

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

// ErrUnavailable is returned when no proxy endpoint is configured.
// Callers hide the feature instead of surfacing an error.
var ErrUnavailable = errors.New("enrichment proxy not configured")

// DefaultTimeout bounds one proxy call.
const DefaultTimeout = 15 * time.Second

// Holder is one entry of a token's holder distribution.
type Holder struct {
	Address string  `json:"address"`
	Percent float64 `json:"percent"`
}

// TokenStats is the extended market view the proxy aggregates.
type TokenStats struct {
	Holders       []Holder `json:"holders"`
	TopTenPercent float64  `json:"topTenPercent"`
	PriceChange7d float64  `json:"priceChange7d"`
	PriceChange30 float64  `json:"priceChange30d"`
	Buys24h       int      `json:"buys24h"`
	Sells24h      int      `json:"sells24h"`
}

// Client calls the enrichment proxy.
type Client struct {
	endpoint string
	client   *http.Client
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a client for the given proxy endpoint. An empty
// endpoint yields a client whose calls fail with ErrUnavailable.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a proxy endpoint is set.
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

type proxyRequest struct {
	Endpoint string `json:"endpoint"`
	Address  string `json:"address"`
}

// TokenStats fetches holder distribution and extended price stats for
// an address.
func (c *Client) TokenStats(ctx context.Context, address string) (*TokenStats, error) {
	var stats TokenStats
	if err := c.call(ctx, "token-stats", address, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) call(ctx context.Context, endpoint, address string, out any) error {
	if c.endpoint == "" {
		return ErrUnavailable
	}

	payload, err := json.Marshal(proxyRequest{Endpoint: endpoint, Address: address})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
