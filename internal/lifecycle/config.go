package lifecycle

import "time"

// Config holds the lifecycle heuristics. Every threshold here was tuned
// against live feeds rather than derived, so all of them stay adjustable.
type Config struct {
	// Dumped detection.
	DumpedPeakMin float64 // minimum peak mcap before a dump verdict applies
	DumpedRatio   float64 // current/peak below this is a dump

	// Staleness and retention.
	StaleAfter time.Duration // absent longer than this is forced to Cooling
	Retention  time.Duration // records unseen longer than this are pruned

	// Live and Cooling floors.
	LiveVolumeFloor    float64
	CoolingVolumeFloor float64
	CoolingMcapFloor   float64

	// Positioning view.
	PositioningPeakMin        float64
	PositioningDrawdown       float64 // minimum drawdown from peak, 0..1
	PositioningVolumeFloor    float64
	PositioningLiquidityFloor float64
	PositioningMinAge         time.Duration

	PollInterval time.Duration
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		DumpedPeakMin: 50_000,
		DumpedRatio:   0.25,

		StaleAfter: 2 * time.Hour,
		Retention:  30 * 24 * time.Hour,

		LiveVolumeFloor:    1_000,
		CoolingVolumeFloor: 1_000,
		CoolingMcapFloor:   10_000,

		PositioningPeakMin:        50_000,
		PositioningDrawdown:       0.40,
		PositioningVolumeFloor:    5_000,
		PositioningLiquidityFloor: 3_000,
		PositioningMinAge:         12 * time.Hour,

		PollInterval: 60 * time.Second,
	}
}
