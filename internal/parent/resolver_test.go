package parent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betascope/internal/detect"
	"betascope/internal/domain"
)

type fakeSearcher struct {
	byQuery map[string][]domain.Token
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]domain.Token, error) {
	return f.byQuery[strings.ToLower(query)], nil
}

func newResolver(t *testing.T, src Searcher) *Resolver {
	t.Helper()
	vocab, err := detect.DefaultVocabulary()
	require.NoError(t, err)
	return NewResolver(src, vocab, nil)
}

func TestResolver_TextualEvidenceBeatsSymbolCoincidence(t *testing.T) {
	pippin := domain.Token{Address: "addr-pippin", Symbol: "PIPPIN", Name: "pippin", MarketCap: 5_000_000}
	dipping := domain.Token{Address: "addr-dipping", Symbol: "DIPPING", MarketCap: 2_000_000}

	src := &fakeSearcher{byQuery: map[string][]domain.Token{
		"pippin": {pippin},
		"dipp":   {dipping}, // pure symbol-slice coincidence, high prefix similarity
	}}

	child := domain.Token{
		Address:     "addr-dippin",
		Symbol:      "DIPPIN",
		Description: "the alter ego of $PIPPIN",
		MarketCap:   100_000,
	}

	got, err := newResolver(t, src).Resolve(context.Background(), child)
	require.NoError(t, err)
	assert.Equal(t, "PIPPIN", got.Token.Symbol, "description evidence must outrank prefix coincidence")
	assert.Equal(t, 1, got.QueryTier)
	assert.InDelta(t, 0.40, got.Boost, 1e-9)
}

func TestResolver_StrictThresholdForSymbolOnlyMatches(t *testing.T) {
	src := &fakeSearcher{byQuery: map[string][]domain.Token{
		// sim("WIFC", "WOOF") is well under the 0.65 strict floor
		"wifc": {{Address: "addr-woof", Symbol: "WOOF", MarketCap: 9_000_000}},
	}}

	child := domain.Token{Address: "child", Symbol: "WIFCX", MarketCap: 10_000}
	_, err := newResolver(t, src).Resolve(context.Background(), child)
	assert.ErrorIs(t, err, ErrNoParent)
}

func TestResolver_RejectsSmallerParents(t *testing.T) {
	src := &fakeSearcher{byQuery: map[string][]domain.Token{
		"pippin": {{Address: "tiny", Symbol: "PIPPIN", MarketCap: 10_000}},
	}}

	child := domain.Token{
		Address:     "child",
		Symbol:      "DIPPIN",
		Description: "fork of $PIPPIN",
		MarketCap:   1_000_000,
	}
	_, err := newResolver(t, src).Resolve(context.Background(), child)
	assert.ErrorIs(t, err, ErrNoParent, "a parent under half the child's cap is implausible")
}

func TestResolver_TieBreaksOnAddress(t *testing.T) {
	src := &fakeSearcher{byQuery: map[string][]domain.Token{
		"pippin": {
			{Address: "bbb", Symbol: "DIPPIN", MarketCap: 1_000_000},
			{Address: "aaa", Symbol: "DIPPIN", MarketCap: 1_000_000},
		},
	}}

	child := domain.Token{
		Address:     "child",
		Symbol:      "DIPPIN",
		Description: "friend of $PIPPIN",
		MarketCap:   100_000,
	}
	got, err := newResolver(t, src).Resolve(context.Background(), child)
	require.NoError(t, err)
	assert.Equal(t, "aaa", got.Token.Address, "equal scores break on the smaller address")
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		lo   float64
		hi   float64
	}{
		{"WIF", "WIF", 1.0, 1.0},
		{"wif", "WIF", 1.0, 1.0},
		{"WIF", "WIFCAT", 0.75, 0.95},
		{"DIPPIN", "PIPPIN", 0.80, 0.90}, // one substitution
		{"WIF", "ZZZZZZ", 0.0, 0.20},
		{"", "WIF", 0.0, 0.0},
	}
	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		assert.GreaterOrEqual(t, got, tt.lo, "Similarity(%q, %q)", tt.a, tt.b)
		assert.LessOrEqual(t, got, tt.hi, "Similarity(%q, %q)", tt.a, tt.b)
	}
}

func TestQueries_TiersAndDedupe(t *testing.T) {
	r := newResolver(t, &fakeSearcher{})

	child := domain.Token{
		Symbol:      "DIPPIN",
		Name:        "dippin hood",
		Description: "the alter ego of $PIPPIN, pippin but dipped",
	}
	queries := r.Queries(child)
	require.NotEmpty(t, queries)

	assert.Equal(t, "pippin", queries[0].query, "ticker mentions come first")
	assert.Equal(t, 1, queries[0].tier)

	seen := map[string]int{}
	for _, q := range queries {
		seen[q.query]++
	}
	assert.Equal(t, 1, seen["pippin"], "a term repeated across tiers keeps its strongest tier only")
	assert.NotContains(t, seen, "dippin", "the child's own symbol is never a query")
}
