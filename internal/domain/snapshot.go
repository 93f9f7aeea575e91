package domain

// TokenSnapshot is one observation of a token's market state at poll time.
// Archived append-only for retrospective analysis; the lifecycle manager
// itself only relies on HistoryRecord.
type TokenSnapshot struct {
	Address    string
	ObservedAt int64 // Unix timestamp in milliseconds
	PriceUSD   float64
	MarketCap  float64
	Volume24h  float64
	Liquidity  float64
	Change24h  float64
	Source     FeedSource
}
