package szn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"betascope/internal/ai"
	"betascope/internal/domain"
)

func keywordEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Options{})
	require.NoError(t, err)
	return e
}

func TestEngine_SpecificCategoriesBeatGeneric(t *testing.T) {
	e := keywordEngine(t)

	r := e.Build([]domain.Token{
		{Address: "a", Symbol: "WIF", Name: "dogwifhat", Volume24h: 100, PriceChange24h: 5},
		{Address: "b", Symbol: "BONK", Name: "bonk the dog", Volume24h: 100, PriceChange24h: 5},
	})

	clusters := r.Clusters()
	require.Len(t, clusters, 1)
	assert.Equal(t, "dogs", clusters[0].Key, "dog keywords land before the generic animals bucket")
	assert.Equal(t, domain.ClusterKeyword, clusters[0].Source)
}

func TestEngine_SingletonCategoriesStayInvisible(t *testing.T) {
	e := keywordEngine(t)

	r := e.Build([]domain.Token{
		{Address: "a", Symbol: "PEPE", Name: "pepe"},
		{Address: "b", Symbol: "BLANK", Name: "no theme at all"},
	})

	assert.Empty(t, r.Clusters(), "one frog is not a frog season")
	assert.Len(t, r.Unmatched(), 1)
}

func TestEngine_AtMostOneCategoryPerToken(t *testing.T) {
	e := keywordEngine(t)

	// Matches dogs, cats and hats; only the first table hit counts.
	r := e.Build([]domain.Token{
		{Address: "a", Symbol: "DWCH", Name: "dog wif cat hat"},
		{Address: "b", Symbol: "DOG2", Name: "second dog"},
		{Address: "c", Symbol: "CAT1", Name: "a cat"},
		{Address: "d", Symbol: "CAT2", Name: "another cat"},
	})

	clusters := r.Clusters()
	byKey := map[string]domain.NarrativeCluster{}
	for _, c := range clusters {
		byKey[c.Key] = c
	}
	require.Contains(t, byKey, "dogs")
	require.Contains(t, byKey, "cats")
	assert.Len(t, byKey["dogs"].Members, 2)
	assert.Len(t, byKey["cats"].Members, 2, "the multi-theme token must not appear in cats too")
}

func TestEngine_AIPassIsAdditive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"index": 0, "category": "quant szn", "novel": true},
			{"index": 1, "category": "quant szn", "novel": true},
			{"index": 2, "category": "dogs", "novel": false}
		]`)
	}))
	defer srv.Close()

	e, err := NewEngine(Options{Classifier: ai.NewNarrativeClassifier(ai.NewClient(srv.URL))})
	require.NoError(t, err)

	tokens := []domain.Token{
		{Address: "dog1", Symbol: "WIF", Name: "dogwifhat", PriceChange24h: 10, Volume24h: 1000},
		{Address: "dog2", Symbol: "BONK", Name: "bonk dog", PriceChange24h: 10, Volume24h: 1000},
		{Address: "q1", Symbol: "ALPHA1", Name: "alpha signals"},
		{Address: "q2", Symbol: "ALPHA2", Name: "beta signals"},
		{Address: "dogish", Symbol: "REX", Name: "rex"}, // no keyword hit, AI says dogs
	}

	r := e.Build(tokens)
	require.Len(t, r.Clusters(), 1, "keyword pass sees only the dog pair")

	e.EnrichAI(context.Background(), r)

	clusters := r.Clusters()
	byKey := map[string]domain.NarrativeCluster{}
	for _, c := range clusters {
		byKey[c.Key] = c
	}
	require.Contains(t, byKey, "quant-szn", "novel proposals sharing a key form a new cluster")
	assert.Equal(t, domain.ClusterAI, byKey["quant-szn"].Source)
	require.Contains(t, byKey, "dogs")
	assert.Len(t, byKey["dogs"].Members, 3, "AI adds to keyword clusters, never rebuilds them")
	assert.Equal(t, domain.ClusterMixed, byKey["dogs"].Source)
	assert.Empty(t, r.Unmatched())
}

func TestEngine_AIFailureLeavesKeywordResultIntact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "overloaded"}`)
	}))
	defer srv.Close()

	e, err := NewEngine(Options{Classifier: ai.NewNarrativeClassifier(ai.NewClient(srv.URL))})
	require.NoError(t, err)

	r := e.Build([]domain.Token{
		{Address: "dog1", Symbol: "WIF", Name: "dogwifhat"},
		{Address: "dog2", Symbol: "BONK", Name: "bonk dog"},
		{Address: "q1", Symbol: "ALPHA1", Name: "alpha signals"},
	})
	before := len(r.Clusters())

	e.EnrichAI(context.Background(), r)
	assert.Equal(t, before, len(r.Clusters()), "a failed AI pass changes nothing")
	assert.Len(t, r.Unmatched(), 1)
}

func TestEngine_VisualPassOnlySendsLogoTokens(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotPrompt = req.Prompt
		fmt.Fprint(w, `[{"index": 0, "category": "dogs", "novel": false}]`)
	}))
	defer srv.Close()

	e, err := NewEngine(Options{Classifier: ai.NewNarrativeClassifier(ai.NewClient(srv.URL))})
	require.NoError(t, err)

	r := e.Build([]domain.Token{
		{Address: "dog1", Symbol: "WIF", Name: "dogwifhat"},
		{Address: "dog2", Symbol: "BONK", Name: "bonk dog"},
		{Address: "logoed", Symbol: "REX", Name: "rex", LogoURL: "https://img/rex.png"},
		{Address: "bare", Symbol: "NIX", Name: "nix"},
	})

	e.EnrichVisual(context.Background(), r)

	assert.Contains(t, gotPrompt, "https://img/rex.png")
	assert.NotContains(t, gotPrompt, "NIX", "tokens without a logo never reach the vision pass")
	assert.Len(t, r.Unmatched(), 1, "the logo token was placed, the bare one remains")
}

func TestScoreClusterHeat(t *testing.T) {
	p := &pool{
		key:   "dogs",
		label: "Dog Szn",
		members: []domain.Token{
			{Address: "a", Volume24h: 5_000_000, PriceChange24h: 120},
			{Address: "b", Volume24h: 3_000_000, PriceChange24h: 80},
			{Address: "c", Volume24h: 2_000_000, PriceChange24h: 40},
		},
		sources: map[domain.ClusterSource]struct{}{domain.ClusterKeyword: {}},
	}

	c := scoreCluster(p)
	assert.Equal(t, 10_000_000.0, c.TotalVolume)
	assert.InDelta(t, 80.0, c.AvgChange, 1e-9)
	assert.Equal(t, 1.0, c.Momentum, "all members green")
	assert.Greater(t, c.SznScore, 60.0)
	assert.Contains(t, []domain.HeatTier{domain.HeatHot, domain.HeatBlazing}, c.Heat)
}
