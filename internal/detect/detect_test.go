package detect

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betascope/internal/domain"
)

// fakeSource serves canned tokens by search query.
type fakeSource struct {
	byQuery   map[string][]domain.Token
	pairs     []domain.Token
	launches  []domain.Token
	searchErr error
	queries   []string
}

func (f *fakeSource) Search(_ context.Context, query string) ([]domain.Token, error) {
	f.queries = append(f.queries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.byQuery[strings.ToLower(query)], nil
}

func (f *fakeSource) DirectPairs(_ context.Context, _ string) ([]domain.Token, error) {
	return f.pairs, nil
}

func (f *fakeSource) BondingLaunches(_ context.Context, _ int) ([]domain.Token, error) {
	return f.launches, nil
}

func mustVocab(t *testing.T) *Vocabulary {
	t.Helper()
	v, err := DefaultVocabulary()
	require.NoError(t, err)
	return v
}

func TestMorphologyDetector_ExactMatchOnly(t *testing.T) {
	wifcat := domain.Token{Address: "addr-wifcat", Symbol: "WIFCAT"}
	src := &fakeSource{byQuery: map[string][]domain.Token{
		"wifcat": {
			wifcat,
			{Address: "addr-loose", Symbol: "WIFCATS"}, // fuzzy hit, must be dropped
		},
	}}

	d := NewMorphologyDetector(src, mustVocab(t))
	got, err := d.Detect(context.Background(), domain.Token{Address: "addr-wif", Symbol: "WIF"})
	require.NoError(t, err)
	require.Len(t, got, 1, "only the exact symbol match survives")
	assert.Equal(t, "WIFCAT", got[0].Symbol)
}

func TestMorphologyDetector_TickerGeneration(t *testing.T) {
	d := NewMorphologyDetector(&fakeSource{}, mustVocab(t))

	tickers := d.GenerateTickers("WIF")
	assert.LessOrEqual(t, len(tickers), MaxMorphologyTickers)
	assert.GreaterOrEqual(t, len(tickers), 20, "affix tables should yield a broad candidate set")
	assert.Contains(t, tickers, "BABYWIF")
	assert.Contains(t, tickers, "WIFCAT", "companion map generates the cat pairing")
	assert.Contains(t, tickers, "WIFOUT", "opposite map generates the inverse form")
}

func TestVocabulary_Decompose(t *testing.T) {
	v := mustVocab(t)
	assert.Contains(t, v.Decompose("WIFCAT"), "wif", "stripping the cat suffix exposes the base")
	assert.Contains(t, v.Decompose("BABYPEPE"), "pepe")
	assert.Empty(t, v.Decompose("QQ"), "too short to decompose")
}

func TestSegmentCamelCase(t *testing.T) {
	assert.Equal(t, []string{"dog", "wif", "cat"}, SegmentCamelCase("DogWifCat"))
	assert.Nil(t, SegmentCamelCase("dogwifhat"), "no case transitions means no segments")
}

func TestDescriptionDetector_ExtractTerms(t *testing.T) {
	d := NewDescriptionDetector(&fakeSource{}, mustVocab(t))

	terms := d.ExtractTerms("the alter ego of $PIPPIN, just a meme from solana", "DIPPIN")
	require.NotEmpty(t, terms)
	assert.Equal(t, "pippin", terms[0], "explicit ticker mentions rank first")
	assert.Contains(t, terms, "alter")
	assert.NotContains(t, terms, "just", "stop words are excluded")
	assert.NotContains(t, terms, "solana")
	assert.NotContains(t, terms, "ego", "short words are excluded")
}

func TestDescriptionDetector_EmptyDescriptionIsNoop(t *testing.T) {
	src := &fakeSource{}
	d := NewDescriptionDetector(src, mustVocab(t))

	got, err := d.Detect(context.Background(), domain.Token{Symbol: "WIF"})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, src.queries)
}

func TestPumpFunDetector_MatchesLoreTerms(t *testing.T) {
	src := &fakeSource{launches: []domain.Token{
		{Address: "a", Symbol: "CATWIFHAT", Name: "cat wif hat"},
		{Address: "b", Symbol: "RNDM", Name: "random launch"},
		{Address: "alpha", Symbol: "WIF", Name: "dogwifhat"},
	}}

	d := NewPumpFunDetector(src, mustVocab(t))
	got, err := d.Detect(context.Background(), domain.Token{Address: "alpha", Symbol: "WIF"})
	require.NoError(t, err)
	require.Len(t, got, 1, "the alpha itself and unrelated launches are skipped")
	assert.Equal(t, "CATWIFHAT", got[0].Symbol)
}

func TestLoreDetector_UnknownAlphaIsEmpty(t *testing.T) {
	src := &fakeSource{}
	d := NewLoreDetector(src, mustVocab(t))

	got, err := d.Detect(context.Background(), domain.Token{Symbol: "NOLORE"})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, src.queries, "no lore entry means no queries issued")
}

// failingDetector always errors; used to prove fan-out isolation.
type failingDetector struct{}

func (failingDetector) Source() domain.SignalSource { return domain.SignalKeyword }
func (failingDetector) Detect(context.Context, domain.Token) ([]domain.Token, error) {
	return nil, errors.New("rate limited")
}

func TestRunAll_SettlesEveryDetector(t *testing.T) {
	src := &fakeSource{pairs: []domain.Token{{Address: "paired", Symbol: "WIFPOOL"}}}

	results := RunAll(context.Background(), nil, domain.Token{Address: "alpha", Symbol: "WIF"}, []Detector{
		failingDetector{},
		NewLPPairDetector(src),
	})

	require.Len(t, results, 2)
	assert.False(t, results[0].Ok(), "the failed detector reports its error")
	assert.True(t, results[1].Ok(), "one failure must not stop the others")
	assert.Len(t, results[1].Candidates, 1)
}
