package domain

// FeedSource identifies the upstream feed a token record was observed on.
type FeedSource string

const (
	FeedBoosted         FeedSource = "BOOSTED"
	FeedProfile         FeedSource = "PROFILE"
	FeedBondingCurve    FeedSource = "BONDING_CURVE"
	FeedBondingCurvePre FeedSource = "BONDING_CURVE_PRE"
	FeedNewPair         FeedSource = "NEW_PAIR"
)

// String returns the string representation of FeedSource.
func (f FeedSource) String() string {
	return string(f)
}

// IsValid checks if the feed source is a known value.
func (f FeedSource) IsValid() bool {
	switch f {
	case FeedBoosted, FeedProfile, FeedBondingCurve, FeedBondingCurvePre, FeedNewPair:
		return true
	}
	return false
}

// PriceChange24h bounds. Bonding-curve launches report absurd percentages
// in their first hours; anything outside this band is an artifact.
const (
	MinPriceChange24h = -100.0
	MaxPriceChange24h = 5000.0
)

// Token is the canonical record for any on-chain fungible asset observed.
// Identity is the chain address: two records with the same address are the
// same token regardless of which feed produced them.
type Token struct {
	Address        string // chain-unique identity key
	Symbol         string
	Name           string
	Description    string
	PriceUSD       float64
	PriceChange24h float64 // percent, clamped to [MinPriceChange24h, MaxPriceChange24h]
	Volume24h      float64
	MarketCap      float64
	Liquidity      float64
	LogoURL        string
	CreatedAt      *int64 // Unix timestamp in milliseconds (nullable)
	Source         FeedSource
}

// ClampPriceChange clamps a raw 24h percentage into the accepted band.
func ClampPriceChange(pct float64) float64 {
	if pct < MinPriceChange24h {
		return MinPriceChange24h
	}
	if pct > MaxPriceChange24h {
		return MaxPriceChange24h
	}
	return pct
}

// AgeMillis returns the token age relative to nowMs, or -1 when the
// creation time is unknown.
func (t *Token) AgeMillis(nowMs int64) int64 {
	if t.CreatedAt == nil {
		return -1
	}
	age := nowMs - *t.CreatedAt
	if age < 0 {
		return 0
	}
	return age
}
