package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"betascope/internal/cache"
	"betascope/internal/domain"
	"betascope/internal/observability"
)

// Semantic scorer defaults.
const (
	DefaultScoreBatchSize = 8
	DefaultMinMatchScore  = 0.65
	DefaultScoreCacheTTL  = 5 * time.Minute
)

// MatchScore is one scored (alpha, candidate) relation.
type MatchScore struct {
	Address string
	Score   float64
	Reason  string
}

// SemanticScorer asks the AI collaborator how strongly each candidate's
// name, symbol and description relate to the alpha's narrative.
type SemanticScorer struct {
	client    *Client
	cache     *cache.TTL[[]MatchScore]
	batchSize int
	minScore  float64
}

// SemanticScorerOptions configures a SemanticScorer.
type SemanticScorerOptions struct {
	Client    *Client
	BatchSize int           // default DefaultScoreBatchSize
	MinScore  float64       // default DefaultMinMatchScore
	CacheTTL  time.Duration // default DefaultScoreCacheTTL
}

// NewSemanticScorer creates a new scorer with its own result cache.
func NewSemanticScorer(opts SemanticScorerOptions) *SemanticScorer {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultScoreBatchSize
	}
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = DefaultMinMatchScore
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultScoreCacheTTL
	}
	return &SemanticScorer{
		client:    opts.Client,
		cache:     cache.NewTTL[[]MatchScore](ttl),
		batchSize: batchSize,
		minScore:  minScore,
	}
}

// scoreElement is the expected wire shape of one array element.
type scoreElement struct {
	Index  int     `json:"index"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Score returns matches with score >= MinScore for the given candidates.
// Results are cached per (alpha, candidate set) so re-renders of the same
// page do not burn scoring calls.
func (s *SemanticScorer) Score(ctx context.Context, alpha domain.Token, candidates []domain.Token) ([]MatchScore, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	key := scoreCacheKey(alpha.Address, candidates)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	var all []MatchScore
	for start := 0; start < len(candidates); start += s.batchSize {
		end := start + s.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		scores, err := s.scoreBatch(ctx, alpha, batch)
		if err != nil {
			return nil, err
		}
		all = append(all, scores...)
	}

	s.cache.Set(key, all)
	return all, nil
}

func (s *SemanticScorer) scoreBatch(ctx context.Context, alpha domain.Token, batch []domain.Token) ([]MatchScore, error) {
	elements, err := s.client.Ask(ctx, buildScorePrompt(alpha, batch))
	observability.RecordAICall("score", err)
	if err != nil {
		return nil, err
	}

	var out []MatchScore
	for _, raw := range elements {
		var el scoreElement
		if err := json.Unmarshal(raw, &el); err != nil {
			continue // one malformed element does not poison the batch
		}
		if el.Index < 0 || el.Index >= len(batch) {
			continue
		}
		if el.Score < s.minScore || el.Score > 1 {
			continue
		}
		out = append(out, MatchScore{
			Address: batch[el.Index].Address,
			Score:   el.Score,
			Reason:  el.Reason,
		})
	}
	return out, nil
}

func buildScorePrompt(alpha domain.Token, batch []domain.Token) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reference token: $%s (%s), market cap $%.0f.\n", alpha.Symbol, alpha.Name, alpha.MarketCap)
	if alpha.Description != "" {
		fmt.Fprintf(&b, "Reference description: %s\n", alpha.Description)
	}
	b.WriteString("\nFor each candidate below, rate 0 to 1 how likely it is a narrative derivative, spin-off, or companion play of the reference token. ")
	b.WriteString("Respond with ONLY a JSON array of {\"index\", \"score\", \"reason\"}.\n\n")
	for i, c := range batch {
		fmt.Fprintf(&b, "%d. $%s (%s)", i, c.Symbol, c.Name)
		if c.Description != "" {
			fmt.Fprintf(&b, " - %s", c.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// scoreCacheKey builds a stable key from the alpha and the candidate set.
func scoreCacheKey(alphaAddress string, candidates []domain.Token) string {
	addrs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		addrs = append(addrs, c.Address)
	}
	sort.Strings(addrs)
	return alphaAddress + "|" + strings.Join(addrs, ",")
}
