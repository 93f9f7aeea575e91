package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Default pump.fun client configuration.
const (
	DefaultPumpBaseURL = "https://frontend-api.pump.fun"
	DefaultPumpTimeout = 15 * time.Second

	defaultPumpRatePerSec = 2
	defaultPumpBurst      = 4
)

// PumpClient talks to a pump.fun-compatible bonding-curve launch API.
type PumpClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// PumpOption configures PumpClient.
type PumpOption func(*PumpClient)

// WithPumpBaseURL overrides the API base URL.
func WithPumpBaseURL(u string) PumpOption {
	return func(c *PumpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithPumpHTTPClient sets a custom http.Client.
func WithPumpHTTPClient(client *http.Client) PumpOption {
	return func(c *PumpClient) {
		c.client = client
	}
}

// WithPumpRateLimit overrides the request rate limit.
func WithPumpRateLimit(perSec float64, burst int) PumpOption {
	return func(c *PumpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// NewPumpClient creates a new bonding-curve feed client.
func NewPumpClient(opts ...PumpOption) *PumpClient {
	c := &PumpClient{
		baseURL: DefaultPumpBaseURL,
		client:  &http.Client{Timeout: DefaultPumpTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultPumpRatePerSec), defaultPumpBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pumpCoin is the wire shape of one bonding-curve launch.
type pumpCoin struct {
	Mint               string  `json:"mint"`
	Symbol             string  `json:"symbol"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	ImageURI           string  `json:"image_uri"`
	UsdMarketCap       float64 `json:"usd_market_cap"`
	Volume             float64 `json:"volume"`
	VirtualSolReserves float64 `json:"virtual_sol_reserves"`
	CreatedTimestamp   int64   `json:"created_timestamp"` // ms
	Complete           bool    `json:"complete"`          // graduated to a standard pool
	RaydiumPool        string  `json:"raydium_pool"`
	PoolAddress        string  `json:"pool_address"`
}

// Latest returns the most recently created launches, newest first.
func (c *PumpClient) Latest(ctx context.Context, limit int) ([]pumpCoin, error) {
	if limit <= 0 {
		limit = 50
	}
	u := fmt.Sprintf("%s/coins?offset=0&limit=%d&sort=created_timestamp&order=DESC&includeNsfw=false",
		c.baseURL, limit)

	coins, err := c.getCoins(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("pump latest: %w", err)
	}
	return coins, nil
}

// TopByMarketCap returns the highest-capped launches still on the curve.
func (c *PumpClient) TopByMarketCap(ctx context.Context, limit int) ([]pumpCoin, error) {
	if limit <= 0 {
		limit = 50
	}
	u := fmt.Sprintf("%s/coins?offset=0&limit=%d&sort=market_cap&order=DESC&includeNsfw=false",
		c.baseURL, limit)

	coins, err := c.getCoins(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("pump top by mcap: %w", err)
	}
	return coins, nil
}

func (c *PumpClient) getCoins(ctx context.Context, u string) ([]pumpCoin, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var coins []pumpCoin
	if err := json.Unmarshal(body, &coins); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return coins, nil
}
