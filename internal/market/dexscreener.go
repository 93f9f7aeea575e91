// Package market is the data gateway: it speaks to the public pair/coin
// feeds and normalizes their heterogeneous records into domain.Token.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Default DexScreener client configuration.
const (
	DefaultDexBaseURL = "https://api.dexscreener.com"
	DefaultDexTimeout = 15 * time.Second

	// The public API allows 300 req/min on most routes; stay under it.
	defaultDexRatePerSec = 4
	defaultDexBurst      = 8
)

// DexClient talks to a DexScreener-compatible pair API.
type DexClient struct {
	baseURL string
	chain   string
	client  *http.Client
	limiter *rate.Limiter
}

// DexOption configures DexClient.
type DexOption func(*DexClient)

// WithDexBaseURL overrides the API base URL.
func WithDexBaseURL(u string) DexOption {
	return func(c *DexClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithDexHTTPClient sets a custom http.Client.
func WithDexHTTPClient(client *http.Client) DexOption {
	return func(c *DexClient) {
		c.client = client
	}
}

// WithDexRateLimit overrides the request rate limit.
func WithDexRateLimit(perSec float64, burst int) DexOption {
	return func(c *DexClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// NewDexClient creates a client for the given target chain (e.g. "solana").
func NewDexClient(chain string, opts ...DexOption) *DexClient {
	c := &DexClient{
		baseURL: DefaultDexBaseURL,
		chain:   chain,
		client:  &http.Client{Timeout: DefaultDexTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultDexRatePerSec), defaultDexBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chain returns the target chain id.
func (c *DexClient) Chain() string {
	return c.chain
}

// pairData is the wire shape of one trading pair.
type pairData struct {
	ChainID       string        `json:"chainId"`
	DexID         string        `json:"dexId"`
	URL           string        `json:"url"`
	PairAddress   string        `json:"pairAddress"`
	BaseToken     pairToken     `json:"baseToken"`
	QuoteToken    pairToken     `json:"quoteToken"`
	PriceUsd      string        `json:"priceUsd"`
	Volume        pairWindow    `json:"volume"`
	PriceChange   pairWindow    `json:"priceChange"`
	Liquidity     *pairLiquidity `json:"liquidity"`
	Fdv           float64       `json:"fdv"`
	MarketCap     float64       `json:"marketCap"`
	PairCreatedAt int64         `json:"pairCreatedAt"`
	Info          *pairInfo     `json:"info"`
}

type pairToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type pairWindow struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

type pairLiquidity struct {
	Usd   float64 `json:"usd"`
	Base  float64 `json:"base"`
	Quote float64 `json:"quote"`
}

type pairInfo struct {
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

// tokenRef is the wire shape of boost/profile feed entries.
type tokenRef struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
	Icon         string `json:"icon"`
	Description  string `json:"description"`
}

type searchResponse struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []pairData `json:"pairs"`
}

// Search issues a free-text pair search, filtered to the client's chain.
func (c *DexClient) Search(ctx context.Context, query string) ([]pairData, error) {
	u := fmt.Sprintf("%s/latest/dex/search?q=%s", c.baseURL, url.QueryEscape(query))

	var resp searchResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("dex search %q: %w", query, err)
	}

	var out []pairData
	for _, p := range resp.Pairs {
		if p.ChainID == c.chain {
			out = append(out, p)
		}
	}
	return out, nil
}

// TokenPairs returns all pairs trading a token, on either side of the pool.
func (c *DexClient) TokenPairs(ctx context.Context, address string) ([]pairData, error) {
	u := fmt.Sprintf("%s/token-pairs/v1/%s/%s", c.baseURL, c.chain, url.PathEscape(address))

	var pairs []pairData
	if err := c.getJSON(ctx, u, &pairs); err != nil {
		return nil, fmt.Errorf("dex token pairs %s: %w", address, err)
	}
	return pairs, nil
}

// Tokens batch-resolves up to 30 token addresses to their primary pairs.
func (c *DexClient) Tokens(ctx context.Context, addresses []string) ([]pairData, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	if len(addresses) > 30 {
		addresses = addresses[:30]
	}
	u := fmt.Sprintf("%s/tokens/v1/%s/%s", c.baseURL, c.chain, strings.Join(addresses, ","))

	var pairs []pairData
	if err := c.getJSON(ctx, u, &pairs); err != nil {
		return nil, fmt.Errorf("dex tokens lookup: %w", err)
	}
	return pairs, nil
}

// TopBoosts returns the boosted-token feed entries for the client's chain.
func (c *DexClient) TopBoosts(ctx context.Context) ([]tokenRef, error) {
	return c.tokenRefs(ctx, c.baseURL+"/token-boosts/top/v1")
}

// LatestProfiles returns the token-profile feed entries for the client's chain.
func (c *DexClient) LatestProfiles(ctx context.Context) ([]tokenRef, error) {
	return c.tokenRefs(ctx, c.baseURL+"/token-profiles/latest/v1")
}

func (c *DexClient) tokenRefs(ctx context.Context, u string) ([]tokenRef, error) {
	var refs []tokenRef
	if err := c.getJSON(ctx, u, &refs); err != nil {
		return nil, fmt.Errorf("dex token refs: %w", err)
	}

	var out []tokenRef
	for _, r := range refs {
		if r.ChainID == c.chain {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *DexClient) getJSON(ctx context.Context, u string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
