package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"betascope/internal/domain"
	"betascope/internal/observability"
)

// ErrNotFound is returned when an address resolves to no live pair.
var ErrNotFound = errors.New("token not found")

// Gateway combines the pair and bonding-curve feeds behind one normalized
// surface. All methods return canonical Tokens with clamped percentages and
// per-address duplicates already merged.
type Gateway struct {
	dex    *DexClient
	pump   *PumpClient
	logger *log.Logger

	minLiquidity float64
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	Dex  *DexClient
	Pump *PumpClient
	// MinLiquidity drops dust pairs from search results. Zero keeps everything.
	MinLiquidity float64
	Logger       *log.Logger
}

// NewGateway creates a new Gateway.
func NewGateway(opts GatewayOptions) *Gateway {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Gateway{
		dex:          opts.Dex,
		pump:         opts.Pump,
		minLiquidity: opts.MinLiquidity,
		logger:       logger,
	}
}

// Search issues a free-text pair search and returns normalized tokens on
// the target chain with at least the configured liquidity floor.
func (g *Gateway) Search(ctx context.Context, query string) ([]domain.Token, error) {
	started := time.Now()
	pairs, err := g.dex.Search(ctx, query)
	observability.ObserveFeedCall("search", started)
	if err != nil {
		return nil, err
	}

	var tokens []domain.Token
	for _, p := range pairs {
		t := tokenFromPair(p, domain.FeedNewPair)
		if !IsValidAddress(t.Address) {
			continue
		}
		if t.Liquidity < g.minLiquidity {
			continue
		}
		tokens = append(tokens, t)
	}
	return MergeDuplicates(tokens), nil
}

// DirectPairs returns tokens that trade directly against the given address:
// pairs whose quote side is the alpha itself. An on-chain pairing is the
// strongest relationship signal there is.
func (g *Gateway) DirectPairs(ctx context.Context, address string) ([]domain.Token, error) {
	started := time.Now()
	pairs, err := g.dex.TokenPairs(ctx, address)
	observability.ObserveFeedCall("token-pairs", started)
	if err != nil {
		return nil, err
	}

	var tokens []domain.Token
	for _, p := range pairs {
		if p.QuoteToken.Address != address {
			continue
		}
		t := tokenFromPair(p, domain.FeedNewPair)
		if !IsValidAddress(t.Address) || t.Address == address {
			continue
		}
		tokens = append(tokens, t)
	}
	return MergeDuplicates(tokens), nil
}

// TokenByAddress resolves one address to its primary pair.
func (g *Gateway) TokenByAddress(ctx context.Context, address string) (*domain.Token, error) {
	started := time.Now()
	pairs, err := g.dex.Tokens(ctx, []string{address})
	observability.ObserveFeedCall("tokens", started)
	if err != nil {
		return nil, err
	}

	var tokens []domain.Token
	for _, p := range pairs {
		if p.BaseToken.Address == address {
			tokens = append(tokens, tokenFromPair(p, domain.FeedNewPair))
		}
	}
	merged := MergeDuplicates(tokens)
	if len(merged) == 0 {
		return nil, ErrNotFound
	}
	return &merged[0], nil
}

// BondingLaunches returns the latest bonding-curve launches as tokens.
// Launch mints are keypair-generated, so an off-curve address here is a
// pool or vault PDA the feed leaked where a mint belongs; those entries
// are dropped.
func (g *Gateway) BondingLaunches(ctx context.Context, limit int) ([]domain.Token, error) {
	started := time.Now()
	coins, err := g.pump.Latest(ctx, limit)
	observability.ObserveFeedCall("bonding", started)
	if err != nil {
		return nil, err
	}

	var tokens []domain.Token
	for _, c := range coins {
		t := tokenFromCoin(c)
		if !IsValidAddress(t.Address) || !IsOnCurve(t.Address) {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// LiveUniverse assembles the current observable token universe from every
// feed. Individual feed failures degrade to a smaller universe; the call
// only errors when every feed failed.
func (g *Gateway) LiveUniverse(ctx context.Context) ([]domain.Token, error) {
	var (
		all      []domain.Token
		failures int
		sources  = 3
	)

	started := time.Now()
	if refs, err := g.dex.TopBoosts(ctx); err != nil {
		failures++
		g.logger.Printf("boosted feed unavailable: %v", err)
	} else {
		all = append(all, g.resolveRefs(ctx, refs, domain.FeedBoosted)...)
	}
	observability.ObserveFeedCall("boosts", started)

	started = time.Now()
	if refs, err := g.dex.LatestProfiles(ctx); err != nil {
		failures++
		g.logger.Printf("profile feed unavailable: %v", err)
	} else {
		all = append(all, g.resolveRefs(ctx, refs, domain.FeedProfile)...)
	}
	observability.ObserveFeedCall("profiles", started)

	started = time.Now()
	if coins, err := g.pump.Latest(ctx, 50); err != nil {
		failures++
		g.logger.Printf("bonding feed unavailable: %v", err)
	} else {
		for _, c := range coins {
			t := tokenFromCoin(c)
			if IsValidAddress(t.Address) && IsOnCurve(t.Address) {
				all = append(all, t)
			}
		}
	}
	observability.ObserveFeedCall("bonding", started)

	if failures == sources {
		return nil, fmt.Errorf("all market feeds unavailable")
	}
	return MergeDuplicates(all), nil
}

// resolveRefs batch-resolves feed references to full pair records. Refs that
// fail to resolve are dropped, not fatal.
func (g *Gateway) resolveRefs(ctx context.Context, refs []tokenRef, source domain.FeedSource) []domain.Token {
	var addresses []string
	byAddr := make(map[string]tokenRef, len(refs))
	for _, r := range refs {
		if !IsValidAddress(r.TokenAddress) {
			continue
		}
		addresses = append(addresses, r.TokenAddress)
		byAddr[r.TokenAddress] = r
	}

	var tokens []domain.Token
	for start := 0; start < len(addresses); start += 30 {
		end := start + 30
		if end > len(addresses) {
			end = len(addresses)
		}
		pairs, err := g.dex.Tokens(ctx, addresses[start:end])
		if err != nil {
			g.logger.Printf("resolve %s refs: %v", source, err)
			continue
		}
		for _, p := range pairs {
			t := tokenFromPair(p, source)
			// The feed entry often carries description/icon the pair lacks
			if ref, ok := byAddr[t.Address]; ok {
				if t.Description == "" {
					t.Description = ref.Description
				}
				if t.LogoURL == "" {
					t.LogoURL = ref.Icon
				}
			}
			tokens = append(tokens, t)
		}
	}
	return tokens
}
