package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"betascope/internal/cache"
	"betascope/internal/domain"
	"betascope/internal/observability"
)

// Vision comparator defaults.
const (
	DefaultMinVisualScore      = 0.5
	DefaultVisionCacheTTL      = 10 * time.Minute
	DefaultMaxVisionCandidates = 12
)

// VisualScore is one logo-similarity verdict.
type VisualScore struct {
	Address string
	Score   float64
	Reason  string
}

// VisionComparator asks a vision-capable scorer whether a candidate's logo
// looks derived from the alpha's. It is the most expensive signal, so it
// only ever runs on candidates the text signals could not resolve.
type VisionComparator struct {
	client        *Client
	cache         *cache.TTL[[]VisualScore]
	minScore      float64
	maxCandidates int
}

// VisionComparatorOptions configures a VisionComparator.
type VisionComparatorOptions struct {
	Client        *Client
	MinScore      float64       // default DefaultMinVisualScore
	MaxCandidates int           // default DefaultMaxVisionCandidates
	CacheTTL      time.Duration // default DefaultVisionCacheTTL
}

// NewVisionComparator creates a new comparator with its own result cache.
func NewVisionComparator(opts VisionComparatorOptions) *VisionComparator {
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = DefaultMinVisualScore
	}
	maxCandidates := opts.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxVisionCandidates
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultVisionCacheTTL
	}
	return &VisionComparator{
		client:        opts.Client,
		cache:         cache.NewTTL[[]VisualScore](ttl),
		minScore:      minScore,
		maxCandidates: maxCandidates,
	}
}

// Compare scores candidates' logos against the alpha's. Candidates without
// a logo are skipped; the alpha must have one or the call is a no-op.
func (v *VisionComparator) Compare(ctx context.Context, alpha domain.Token, candidates []domain.Token) ([]VisualScore, error) {
	if alpha.LogoURL == "" {
		return nil, nil
	}

	var eligible []domain.Token
	for _, c := range candidates {
		if c.LogoURL != "" {
			eligible = append(eligible, c)
		}
		if len(eligible) == v.maxCandidates {
			break
		}
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	key := scoreCacheKey(alpha.Address, eligible)
	if cached, ok := v.cache.Get(key); ok {
		return cached, nil
	}

	elements, err := v.client.Ask(ctx, buildVisionPrompt(alpha, eligible))
	observability.RecordAICall("vision", err)
	if err != nil {
		return nil, err
	}

	var out []VisualScore
	for _, raw := range elements {
		var el scoreElement
		if err := json.Unmarshal(raw, &el); err != nil {
			continue
		}
		if el.Index < 0 || el.Index >= len(eligible) {
			continue
		}
		if el.Score < v.minScore || el.Score > 1 {
			continue
		}
		out = append(out, VisualScore{
			Address: eligible[el.Index].Address,
			Score:   el.Score,
			Reason:  el.Reason,
		})
	}

	v.cache.Set(key, out)
	return out, nil
}

func buildVisionPrompt(alpha domain.Token, eligible []domain.Token) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reference token $%s logo: %s\n\n", alpha.Symbol, alpha.LogoURL)
	b.WriteString("For each candidate logo below, rate 0 to 1 whether the artwork is visually derived from the reference logo (same character, same style, recolor, accessory swap). ")
	b.WriteString("Respond with ONLY a JSON array of {\"index\", \"score\", \"reason\"}.\n\n")
	for i, c := range eligible {
		fmt.Fprintf(&b, "%d. $%s logo: %s\n", i, c.Symbol, c.LogoURL)
	}
	return b.String()
}
