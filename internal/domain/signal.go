package domain

import "strings"

// SignalSource identifies which detector proposed a beta candidate.
type SignalSource string

const (
	SignalKeyword     SignalSource = "KEYWORD"
	SignalLore        SignalSource = "LORE"
	SignalMorphology  SignalSource = "MORPHOLOGY"
	SignalDescription SignalSource = "DESCRIPTION"
	SignalLPPair      SignalSource = "LP_PAIR"
	SignalPumpFun     SignalSource = "PUMPFUN"
	SignalAIMatch     SignalSource = "AI_MATCH"
	SignalVisualMatch SignalSource = "VISUAL_MATCH"
)

// AllSignalSources lists every source in canonical order.
var AllSignalSources = []SignalSource{
	SignalKeyword,
	SignalLore,
	SignalMorphology,
	SignalDescription,
	SignalLPPair,
	SignalPumpFun,
	SignalAIMatch,
	SignalVisualMatch,
}

// String returns the string representation of SignalSource.
func (s SignalSource) String() string {
	return string(s)
}

// IsValid checks if the source is a known value.
func (s SignalSource) IsValid() bool {
	for _, known := range AllSignalSources {
		if s == known {
			return true
		}
	}
	return false
}

// SignalSet is the set of sources that proposed one (alpha, candidate) pair.
// Sets are union-only: once attached, a source is never removed within a
// detection run.
type SignalSet map[SignalSource]struct{}

// NewSignalSet creates a set containing the given sources.
func NewSignalSet(sources ...SignalSource) SignalSet {
	set := make(SignalSet, len(sources))
	for _, s := range sources {
		set[s] = struct{}{}
	}
	return set
}

// Add attaches a source to the set.
func (set SignalSet) Add(s SignalSource) {
	set[s] = struct{}{}
}

// Has reports whether the source is attached.
func (set SignalSet) Has(s SignalSource) bool {
	_, ok := set[s]
	return ok
}

// Union attaches every source from other. The receiver is mutated; other
// is not.
func (set SignalSet) Union(other SignalSet) {
	for s := range other {
		set[s] = struct{}{}
	}
}

// Len returns the number of attached sources.
func (set SignalSet) Len() int {
	return len(set)
}

// Clone returns an independent copy of the set.
func (set SignalSet) Clone() SignalSet {
	out := make(SignalSet, len(set))
	for s := range set {
		out[s] = struct{}{}
	}
	return out
}

// Sources returns attached sources in canonical order.
func (set SignalSet) Sources() []SignalSource {
	var out []SignalSource
	for _, s := range AllSignalSources {
		if set.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// Key returns a stable string form of the set, usable as a cache key part.
func (set SignalSet) Key() string {
	sources := set.Sources()
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = string(s)
	}
	return strings.Join(parts, "+")
}
