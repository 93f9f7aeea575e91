package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"betascope/internal/domain"
)

func TestTokenFromPair(t *testing.T) {
	p := pairData{
		ChainID: "solana",
		BaseToken: pairToken{
			Address: "Mint1",
			Symbol:  "WIF",
			Name:    "dogwifhat",
		},
		PriceUsd:      "1.25",
		Volume:        pairWindow{H24: 2_000_000},
		PriceChange:   pairWindow{H24: 40},
		Liquidity:     &pairLiquidity{Usd: 300_000},
		MarketCap:     900_000_000,
		PairCreatedAt: 1700000000000,
		Info: &pairInfo{
			ImageURL:    "https://img.example/wif.png",
			Description: "the hat stays on",
		},
	}

	tok := tokenFromPair(p, domain.FeedBoosted)
	assert.Equal(t, "Mint1", tok.Address)
	assert.Equal(t, 1.25, tok.PriceUSD)
	assert.Equal(t, 40.0, tok.PriceChange24h)
	assert.Equal(t, 900_000_000.0, tok.MarketCap)
	assert.Equal(t, 300_000.0, tok.Liquidity)
	assert.Equal(t, "the hat stays on", tok.Description)
	assert.Equal(t, domain.FeedBoosted, tok.Source)
	if assert.NotNil(t, tok.CreatedAt) {
		assert.Equal(t, int64(1700000000000), *tok.CreatedAt)
	}
}

func TestTokenFromPair_ClampsChangeAndFallsBackToFDV(t *testing.T) {
	p := pairData{
		BaseToken:   pairToken{Address: "Mint2", Symbol: "NEW"},
		PriceChange: pairWindow{H24: 99_999}, // bonding-curve artifact
		Fdv:         50_000,
	}

	tok := tokenFromPair(p, domain.FeedNewPair)
	assert.Equal(t, domain.MaxPriceChange24h, tok.PriceChange24h)
	assert.Equal(t, 50_000.0, tok.MarketCap, "fdv fallback when marketCap absent")
	assert.Nil(t, tok.CreatedAt)
}

func TestTokenFromCoin_GraduationSplitsSource(t *testing.T) {
	pre := tokenFromCoin(pumpCoin{Mint: "M1", Symbol: "A", Complete: false})
	assert.Equal(t, domain.FeedBondingCurvePre, pre.Source)

	grad := tokenFromCoin(pumpCoin{Mint: "M2", Symbol: "B", Complete: true})
	assert.Equal(t, domain.FeedBondingCurve, grad.Source)
}

func TestMergeDuplicates_HigherVolumeWins(t *testing.T) {
	created := int64(1700000000000)
	tokens := []domain.Token{
		{Address: "A", Symbol: "X", Volume24h: 100, MarketCap: 0, Description: "from feed one"},
		{Address: "A", Symbol: "X", Volume24h: 900, MarketCap: 42_000, CreatedAt: &created},
		{Address: "B", Symbol: "Y", Volume24h: 5},
	}

	merged := MergeDuplicates(tokens)
	assert.Len(t, merged, 2)

	var a domain.Token
	for _, tok := range merged {
		if tok.Address == "A" {
			a = tok
		}
	}
	assert.Equal(t, 900.0, a.Volume24h, "higher-volume record wins")
	assert.Equal(t, "from feed one", a.Description, "missing fields backfilled from the loser")
	assert.NotNil(t, a.CreatedAt)
}

func TestMergeDuplicates_Idempotent(t *testing.T) {
	tokens := []domain.Token{
		{Address: "A", Volume24h: 100},
		{Address: "A", Volume24h: 900},
	}

	once := MergeDuplicates(tokens)
	twice := MergeDuplicates(once)
	assert.Equal(t, once, twice)
}

func TestMergeDuplicates_DropsEmptyAddress(t *testing.T) {
	merged := MergeDuplicates([]domain.Token{{Address: "", Symbol: "GHOST"}})
	assert.Empty(t, merged)
}
