// Package classify merges raw detector output into a deduplicated,
// tiered, classed beta list and applies the asynchronous AI and vision
// enrichment passes on top of it.
package classify

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"betascope/internal/ai"
	"betascope/internal/detect"
	"betascope/internal/domain"
	"betascope/internal/observability"
)

// DefaultMaxResults caps the classified list after sorting.
const DefaultMaxResults = 30

// Chain-native and stable assets excluded from every beta list. Pairing
// against these is plumbing, not narrative.
var defaultExcluded = map[string]struct{}{
	"So11111111111111111111111111111111111111112":  {}, // wSOL
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {}, // USDC
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": {}, // USDT
}

// Engine owns the merge pipeline and its enrichment collaborators.
type Engine struct {
	scorer     *ai.SemanticScorer
	vision     *ai.VisionComparator
	logger     *log.Logger
	maxResults int
	excluded   map[string]struct{}
}

// Options configures an Engine. Scorer and Vision are optional; without
// them the engine produces heuristic-only results.
type Options struct {
	Scorer     *ai.SemanticScorer
	Vision     *ai.VisionComparator
	Logger     *log.Logger
	MaxResults int // default DefaultMaxResults
}

// NewEngine creates a classification engine.
func NewEngine(opts Options) *Engine {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[classify] ", log.LstdFlags)
	}
	return &Engine{
		scorer:     opts.Scorer,
		vision:     opts.Vision,
		logger:     logger,
		maxResults: maxResults,
		excluded:   defaultExcluded,
	}
}

// Merge deduplicates the settled detector results, unions signal sets on
// collision, drops the alpha and chain plumbing assets, then classifies
// and ranks what remains. Merging the same input twice yields the same
// output.
func (e *Engine) Merge(now time.Time, alpha domain.Token, results []detect.Result) []domain.BetaMatch {
	type entry struct {
		token   domain.Token
		signals domain.SignalSet
	}
	byAddress := make(map[string]*entry)
	var order []string

	for _, res := range results {
		if !res.Ok() {
			continue
		}
		for _, tok := range res.Candidates {
			if tok.Address == "" || tok.Address == alpha.Address {
				continue
			}
			if _, excluded := e.excluded[tok.Address]; excluded {
				continue
			}
			if ex, ok := byAddress[tok.Address]; ok {
				ex.signals.Add(res.Source)
				if tok.Volume24h > ex.token.Volume24h {
					ex.token = tok // higher volume wins the identity merge
				}
				continue
			}
			byAddress[tok.Address] = &entry{token: tok, signals: domain.NewSignalSet(res.Source)}
			order = append(order, tok.Address)
		}
	}

	nowMs := now.UnixMilli()
	matches := make([]domain.BetaMatch, 0, len(order))
	for _, addr := range order {
		en := byAddress[addr]
		matches = append(matches, domain.BetaMatch{
			Token:     en.token,
			Signals:   en.signals,
			Tier:      domain.ResolveTier(en.signals),
			Wave:      domain.WavePhaseForAge(en.token.CreatedAt, nowMs),
			McapRatio: domain.McapRatio(alpha.MarketCap, en.token.MarketCap),
		})
	}

	assignClasses(matches)
	matches = e.sortAndTrim(matches)
	for _, m := range matches {
		observability.RecordClassified(m.Tier.String())
	}
	return matches
}

// assignClasses ranks same-symbol tokens by creation order. The earliest
// is the OG; later ones are RIVAL when they compete on cap or volume,
// SPIN otherwise. Singletons stay unclassed.
func assignClasses(matches []domain.BetaMatch) {
	groups := make(map[string][]int)
	for i, m := range matches {
		sym := strings.ToUpper(m.Token.Symbol)
		groups[sym] = append(groups[sym], i)
	}

	for _, idx := range groups {
		if len(idx) < 2 {
			continue
		}
		sort.SliceStable(idx, func(a, b int) bool {
			ca, cb := matches[idx[a]].Token.CreatedAt, matches[idx[b]].Token.CreatedAt
			switch {
			case ca == nil:
				return false // unknown age sorts last
			case cb == nil:
				return true
			default:
				return *ca < *cb
			}
		})

		og := &matches[idx[0]]
		og.Class = domain.ClassOG
		for _, i := range idx[1:] {
			m := &matches[i]
			rival := (og.Token.MarketCap > 0 && m.Token.MarketCap >= 0.8*og.Token.MarketCap) ||
				m.Token.Volume24h > og.Token.Volume24h
			if rival {
				m.Class = domain.ClassRival
			} else {
				m.Class = domain.ClassSpin
			}
		}
	}
}

func (e *Engine) sortAndTrim(matches []domain.BetaMatch) []domain.BetaMatch {
	sort.SliceStable(matches, func(a, b int) bool {
		la, lb := matches[a].Signals.Has(domain.SignalLPPair), matches[b].Signals.Has(domain.SignalLPPair)
		if la != lb {
			return la
		}
		return matches[a].Token.PriceChange24h > matches[b].Token.PriceChange24h
	})
	if len(matches) > e.maxResults {
		matches = matches[:e.maxResults]
	}
	return matches
}

// EnrichSemantic runs the AI scorer over the merged list and attaches
// AI_MATCH signals to candidates it accepts. Any failure degrades to the
// unenriched input; the heuristic result is never blocked.
func (e *Engine) EnrichSemantic(ctx context.Context, alpha domain.Token, matches []domain.BetaMatch) []domain.BetaMatch {
	if e.scorer == nil || len(matches) == 0 {
		return matches
	}

	candidates := make([]domain.Token, len(matches))
	for i, m := range matches {
		candidates[i] = m.Token
	}

	scores, err := e.scorer.Score(ctx, alpha, candidates)
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			e.logger.Printf("semantic enrichment skipped for %s: %v", alpha.Symbol, err)
		}
		return matches
	}

	byAddress := make(map[string]ai.MatchScore, len(scores))
	for _, s := range scores {
		byAddress[s.Address] = s
	}
	for i := range matches {
		s, ok := byAddress[matches[i].Token.Address]
		if !ok {
			continue
		}
		matches[i].Signals.Add(domain.SignalAIMatch)
		matches[i].Tier = domain.ResolveTier(matches[i].Signals)
		score := s.Score
		matches[i].AIScore = &score
		matches[i].AIReason = s.Reason
	}
	return e.sortAndTrim(matches)
}

// VisionConfidenceCutoff gates the vision pass: only candidates whose
// existing signals are weaker than this get the expensive image call.
const VisionConfidenceCutoff = 0.5

// EnrichVisual runs the logo comparator over low-confidence candidates
// that carry a logo. Like the semantic pass, failures degrade silently.
func (e *Engine) EnrichVisual(ctx context.Context, alpha domain.Token, matches []domain.BetaMatch) []domain.BetaMatch {
	if e.vision == nil || len(matches) == 0 {
		return matches
	}

	var eligible []domain.Token
	for _, m := range matches {
		if m.Token.LogoURL != "" && tierConfidence(m.Tier) < VisionConfidenceCutoff {
			eligible = append(eligible, m.Token)
		}
	}
	if len(eligible) == 0 {
		return matches
	}

	scores, err := e.vision.Compare(ctx, alpha, eligible)
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			e.logger.Printf("visual enrichment skipped for %s: %v", alpha.Symbol, err)
		}
		return matches
	}

	byAddress := make(map[string]ai.VisualScore, len(scores))
	for _, s := range scores {
		byAddress[s.Address] = s
	}
	for i := range matches {
		s, ok := byAddress[matches[i].Token.Address]
		if !ok {
			continue
		}
		matches[i].Signals.Add(domain.SignalVisualMatch)
		matches[i].Tier = domain.ResolveTier(matches[i].Signals)
		score := s.Score
		matches[i].VisualScore = &score
	}
	return e.sortAndTrim(matches)
}

// tierConfidence maps a tier to a rough 0..1 confidence used to decide
// whether a candidate still needs visual confirmation.
func tierConfidence(t domain.Tier) float64 {
	switch t {
	case domain.TierCabal:
		return 1.0
	case domain.TierAI:
		return 0.9
	case domain.TierTrending:
		return 0.8
	case domain.TierStrong:
		return 0.7
	case domain.TierLore:
		return 0.4
	case domain.TierWeak:
		return 0.3
	default:
		return 0
	}
}
