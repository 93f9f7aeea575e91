package domain

import "time"

// Tier ranks how strongly a beta candidate is tied to its alpha.
// Ordering is strict: a higher value always outranks a lower one.
type Tier int

const (
	TierNone Tier = iota
	TierWeak
	TierLore
	TierStrong
	TierTrending
	TierAI
	TierCabal
)

// String returns the display name of the tier.
func (t Tier) String() string {
	switch t {
	case TierWeak:
		return "WEAK"
	case TierLore:
		return "LORE"
	case TierStrong:
		return "STRONG"
	case TierTrending:
		return "TRENDING"
	case TierAI:
		return "AI"
	case TierCabal:
		return "CABAL"
	default:
		return "NONE"
	}
}

// tierRule maps a required signal combination to a tier. Rules are checked
// in order; the first rule whose sources are all present wins.
type tierRule struct {
	requires []SignalSource
	tier     Tier
}

// tierRules is the strict precedence table. A direct LP pairing beats every
// heuristic combination; combined signals beat their single-source forms.
var tierRules = []tierRule{
	{[]SignalSource{SignalLPPair}, TierCabal},
	{[]SignalSource{SignalAIMatch, SignalKeyword}, TierAI},
	{[]SignalSource{SignalPumpFun, SignalKeyword}, TierTrending},
	{[]SignalSource{SignalMorphology, SignalKeyword}, TierStrong},
	{[]SignalSource{SignalDescription, SignalKeyword}, TierStrong},
	{[]SignalSource{SignalPumpFun}, TierTrending},
	{[]SignalSource{SignalAIMatch}, TierAI},
	{[]SignalSource{SignalVisualMatch}, TierAI},
	{[]SignalSource{SignalDescription}, TierStrong},
	{[]SignalSource{SignalMorphology}, TierStrong},
	{[]SignalSource{SignalKeyword}, TierWeak},
	{[]SignalSource{SignalLore}, TierLore},
}

// ResolveTier derives the relationship tier from a signal set.
func ResolveTier(set SignalSet) Tier {
	for _, rule := range tierRules {
		matched := true
		for _, src := range rule.requires {
			if !set.Has(src) {
				matched = false
				break
			}
		}
		if matched {
			return rule.tier
		}
	}
	return TierNone
}

// TokenClass ranks same-symbol tokens against each other. It is only
// meaningful within a group sharing one symbol; singletons carry ClassNone.
type TokenClass string

const (
	ClassNone  TokenClass = ""
	ClassOG    TokenClass = "OG"
	ClassRival TokenClass = "RIVAL"
	ClassSpin  TokenClass = "SPIN"
)

// WavePhase buckets how early a beta was detected relative to its creation.
type WavePhase string

const (
	WaveEarly     WavePhase = "WAVE"    // under 6 hours old
	WaveSecondLeg WavePhase = "2ND_LEG" // 6 to 24 hours
	WaveLate      WavePhase = "LATE"    // 1 to 7 days
	WaveCold      WavePhase = "COLD"    // 7 days or more
	WaveUnknown   WavePhase = "UNKNOWN" // creation time not reported
)

// Wave phase boundaries.
const (
	waveEarlyMax     = 6 * time.Hour
	waveSecondLegMax = 24 * time.Hour
	waveLateMax      = 7 * 24 * time.Hour
)

// WavePhaseForAge derives the wave phase from a creation timestamp.
func WavePhaseForAge(createdAt *int64, nowMs int64) WavePhase {
	if createdAt == nil {
		return WaveUnknown
	}
	age := time.Duration(nowMs-*createdAt) * time.Millisecond
	switch {
	case age < waveEarlyMax:
		return WaveEarly
	case age < waveSecondLegMax:
		return WaveSecondLeg
	case age < waveLateMax:
		return WaveLate
	default:
		return WaveCold
	}
}

// MinMcapRatio is the floor below which the alpha/candidate market-cap
// ratio is not worth surfacing.
const MinMcapRatio = 2.0

// McapRatio returns alpha mcap divided by candidate mcap, or nil when the
// candidate has no cap or the ratio is below MinMcapRatio.
func McapRatio(alphaMcap, candidateMcap float64) *float64 {
	if candidateMcap <= 0 {
		return nil
	}
	ratio := alphaMcap / candidateMcap
	if ratio < MinMcapRatio {
		return nil
	}
	return &ratio
}

// BetaMatch is one classified beta candidate for an alpha. Derived on every
// detection run, never stored.
type BetaMatch struct {
	Token     Token
	Signals   SignalSet
	Tier      Tier
	Class     TokenClass
	Wave      WavePhase
	McapRatio *float64 // alpha mcap / candidate mcap, nil below MinMcapRatio

	// AI enrichment, attached asynchronously after the first merge.
	AIScore     *float64
	AIReason    string
	VisualScore *float64
}
