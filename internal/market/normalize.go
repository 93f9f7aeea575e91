package market

import (
	"strconv"

	"betascope/internal/domain"
)

// tokenFromPair converts a pair record into the canonical Token. The base
// token is the asset of interest; quote-side info is dropped. Market cap
// falls back to FDV when the API omits it, which is routine for fresh pairs.
func tokenFromPair(p pairData, source domain.FeedSource) domain.Token {
	price, _ := strconv.ParseFloat(p.PriceUsd, 64)

	mcap := p.MarketCap
	if mcap == 0 {
		mcap = p.Fdv
	}

	var liquidity float64
	if p.Liquidity != nil {
		liquidity = p.Liquidity.Usd
	}

	t := domain.Token{
		Address:        p.BaseToken.Address,
		Symbol:         p.BaseToken.Symbol,
		Name:           p.BaseToken.Name,
		PriceUSD:       price,
		PriceChange24h: domain.ClampPriceChange(p.PriceChange.H24),
		Volume24h:      p.Volume.H24,
		MarketCap:      mcap,
		Liquidity:      liquidity,
		Source:         source,
	}
	if p.Info != nil {
		t.LogoURL = p.Info.ImageURL
		t.Description = p.Info.Description
	}
	if p.PairCreatedAt > 0 {
		created := p.PairCreatedAt
		t.CreatedAt = &created
	}
	return t
}

// tokenFromCoin converts a bonding-curve launch record into the canonical
// Token. Launches have no 24h percent feed; the change stays zero until the
// token shows up on a pair feed.
func tokenFromCoin(c pumpCoin) domain.Token {
	source := domain.FeedBondingCurvePre
	if c.Complete {
		source = domain.FeedBondingCurve
	}

	t := domain.Token{
		Address:     c.Mint,
		Symbol:      c.Symbol,
		Name:        c.Name,
		Description: c.Description,
		MarketCap:   c.UsdMarketCap,
		Volume24h:   c.Volume,
		LogoURL:     c.ImageURI,
		Source:      source,
	}
	if c.CreatedTimestamp > 0 {
		created := c.CreatedTimestamp
		t.CreatedAt = &created
	}
	return t
}

// MergeDuplicates collapses records sharing an address into one Token per
// address. The record with the higher 24h volume wins; missing fields are
// backfilled from the loser so a sparse feed cannot erase a richer one.
func MergeDuplicates(tokens []domain.Token) []domain.Token {
	byAddr := make(map[string]int, len(tokens))
	var out []domain.Token

	for _, t := range tokens {
		if t.Address == "" {
			continue
		}
		idx, seen := byAddr[t.Address]
		if !seen {
			byAddr[t.Address] = len(out)
			out = append(out, t)
			continue
		}

		winner, loser := out[idx], t
		if loser.Volume24h > winner.Volume24h {
			winner, loser = loser, winner
		}
		out[idx] = backfill(winner, loser)
	}
	return out
}

// backfill copies fields the winner is missing from the loser.
func backfill(winner, loser domain.Token) domain.Token {
	if winner.Description == "" {
		winner.Description = loser.Description
	}
	if winner.LogoURL == "" {
		winner.LogoURL = loser.LogoURL
	}
	if winner.CreatedAt == nil {
		winner.CreatedAt = loser.CreatedAt
	}
	if winner.MarketCap == 0 {
		winner.MarketCap = loser.MarketCap
	}
	if winner.Liquidity == 0 {
		winner.Liquidity = loser.Liquidity
	}
	return winner
}
