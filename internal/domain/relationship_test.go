package domain

import (
	"testing"
	"time"
)

func TestResolveTier_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		sources []SignalSource
		want    Tier
	}{
		{"lp pair alone", []SignalSource{SignalLPPair}, TierCabal},
		{"lp pair beats everything", []SignalSource{SignalLPPair, SignalKeyword, SignalMorphology, SignalAIMatch}, TierCabal},
		{"ai plus keyword", []SignalSource{SignalAIMatch, SignalKeyword}, TierAI},
		{"pumpfun plus keyword", []SignalSource{SignalPumpFun, SignalKeyword}, TierTrending},
		{"morphology plus keyword", []SignalSource{SignalMorphology, SignalKeyword}, TierStrong},
		{"description plus keyword", []SignalSource{SignalDescription, SignalKeyword}, TierStrong},
		{"pumpfun alone", []SignalSource{SignalPumpFun}, TierTrending},
		{"ai alone", []SignalSource{SignalAIMatch}, TierAI},
		{"visual alone", []SignalSource{SignalVisualMatch}, TierAI},
		{"description alone", []SignalSource{SignalDescription}, TierStrong},
		{"morphology alone", []SignalSource{SignalMorphology}, TierStrong},
		{"keyword alone", []SignalSource{SignalKeyword}, TierWeak},
		{"lore alone", []SignalSource{SignalLore}, TierLore},
		{"empty", nil, TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveTier(NewSignalSet(tt.sources...))
			if got != tt.want {
				t.Errorf("ResolveTier(%v) = %s, want %s", tt.sources, got, tt.want)
			}
		})
	}
}

func TestResolveTier_LPPairOutranksHeuristics(t *testing.T) {
	lp := ResolveTier(NewSignalSet(SignalLPPair))
	heuristic := ResolveTier(NewSignalSet(SignalKeyword, SignalMorphology))

	if lp <= heuristic {
		t.Errorf("lp_pair tier %s must outrank keyword+morphology tier %s", lp, heuristic)
	}
}

func TestWavePhaseForAge(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC).UnixMilli()

	ts := func(age time.Duration) *int64 {
		v := now - age.Milliseconds()
		return &v
	}

	tests := []struct {
		name      string
		createdAt *int64
		want      WavePhase
	}{
		{"brand new", ts(10 * time.Minute), WaveEarly},
		{"five hours", ts(5 * time.Hour), WaveEarly},
		{"seven hours", ts(7 * time.Hour), WaveSecondLeg},
		{"two days", ts(48 * time.Hour), WaveLate},
		{"ten days", ts(10 * 24 * time.Hour), WaveCold},
		{"no creation time", nil, WaveUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WavePhaseForAge(tt.createdAt, now)
			if got != tt.want {
				t.Errorf("WavePhaseForAge = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMcapRatio(t *testing.T) {
	if r := McapRatio(1_000_000, 100_000); r == nil || *r != 10 {
		t.Errorf("expected ratio 10, got %v", r)
	}
	if r := McapRatio(1_000_000, 900_000); r != nil {
		t.Errorf("ratio below floor should be nil, got %v", *r)
	}
	if r := McapRatio(1_000_000, 0); r != nil {
		t.Errorf("zero candidate mcap should be nil, got %v", *r)
	}
}

func TestSignalSet_UnionOnly(t *testing.T) {
	set := NewSignalSet(SignalKeyword)
	set.Union(NewSignalSet(SignalLore, SignalKeyword))

	if set.Len() != 2 {
		t.Fatalf("expected 2 sources, got %d", set.Len())
	}
	if !set.Has(SignalKeyword) || !set.Has(SignalLore) {
		t.Error("union lost a source")
	}
	if set.Key() != "KEYWORD+LORE" {
		t.Errorf("unexpected key %q", set.Key())
	}
}

func TestClampPriceChange(t *testing.T) {
	if got := ClampPriceChange(-250); got != -100 {
		t.Errorf("expected -100, got %v", got)
	}
	if got := ClampPriceChange(99999); got != 5000 {
		t.Errorf("expected 5000, got %v", got)
	}
	if got := ClampPriceChange(42.5); got != 42.5 {
		t.Errorf("expected passthrough, got %v", got)
	}
}
