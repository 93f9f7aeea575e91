package domain

// HistoryRecord is the persisted lifecycle memory for one token address.
// Created on first observation, updated in place on every subsequent one.
type HistoryRecord struct {
	Address         string  `json:"address"`
	FirstSeen       int64   `json:"firstSeen"` // Unix ms, never moves forward
	LastSeen        int64   `json:"lastSeen"`  // Unix ms, monotonically non-decreasing
	PeakMarketCap   float64 `json:"peakMarketCap"`
	McapAtFirstSeen float64 `json:"mcapAtFirstSeen"`
	Token           Token   `json:"token"` // last known snapshot
}

// Drawdown returns the fraction lost from peak, in [0, 1]. A token at its
// peak has drawdown 0; one at zero has drawdown 1.
func (r *HistoryRecord) Drawdown(currentMcap float64) float64 {
	if r.PeakMarketCap <= 0 {
		return 0
	}
	dd := 1 - currentMcap/r.PeakMarketCap
	if dd < 0 {
		return 0
	}
	if dd > 1 {
		return 1
	}
	return dd
}

// LifecycleState is a token's price-action phase as shown to the user.
type LifecycleState string

const (
	StateLive    LifecycleState = "LIVE"
	StateCooling LifecycleState = "COOLING"
	StateLegend  LifecycleState = "LEGEND" // static curated set, not derived
	StateDumped  LifecycleState = "DUMPED" // terminal display state, re-enterable via Cooling
)

// String returns the string representation of LifecycleState.
func (s LifecycleState) String() string {
	return string(s)
}
