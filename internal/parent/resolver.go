// Package parent resolves a candidate token back to its probable origin:
// the higher-cap alpha it derives its name or narrative from.
package parent

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"

	"betascope/internal/detect"
	"betascope/internal/domain"
	"betascope/internal/observability"
)

// ErrNoParent is returned when no candidate clears the thresholds.
var ErrNoParent = errors.New("no parent resolved")

// Query tier confidence boosts. Textual evidence from the description
// outranks symbol-pattern coincidence, so its boost is the largest.
const (
	boostTickerMention = 0.40
	boostDescWord      = 0.25
	boostNameWord      = 0.10
	boostSymbolSlice   = 0.00
)

// Similarity thresholds. A boost from textual evidence relaxes the
// similarity floor; a bare symbol-pattern match must stand on its own.
const (
	RelaxedMinSimilarity = 0.30
	StrictMinSimilarity  = 0.65
)

// MinParentMcapShare is the floor on candidate market cap relative to
// the child. A parent smaller than half its derivative is implausible.
const MinParentMcapShare = 0.5

// Searcher is the market slice the resolver needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.Token, error)
}

// Resolver finds the most plausible parent for a token.
type Resolver struct {
	source Searcher
	vocab  *detect.Vocabulary
	logger *log.Logger
}

// NewResolver creates a parent resolver.
func NewResolver(source Searcher, vocab *detect.Vocabulary, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(log.Writer(), "[parent] ", log.LstdFlags)
	}
	return &Resolver{source: source, vocab: vocab, logger: logger}
}

// tierQuery is one generated search query with its tier boost.
type tierQuery struct {
	query string
	tier  int
	boost float64
}

// Queries generates the ranked search queries for a token, strongest
// evidence first: $TICKER mentions, description words, name words, then
// symbol-derived slices.
func (r *Resolver) Queries(child domain.Token) []tierQuery {
	var queries []tierQuery
	seen := make(map[string]struct{})
	add := func(q string, tier int, boost float64) {
		q = strings.ToLower(strings.TrimSpace(q))
		if len(q) < 2 || strings.EqualFold(q, child.Symbol) {
			return
		}
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		queries = append(queries, tierQuery{query: q, tier: tier, boost: boost})
	}

	for _, m := range tickerMentions(child.Description) {
		add(m, 1, boostTickerMention)
	}
	for _, w := range meaningfulWords(child.Description, r.vocab) {
		add(w, 2, boostDescWord)
	}
	for _, w := range meaningfulWords(child.Name, r.vocab) {
		add(w, 3, boostNameWord)
	}
	for _, s := range symbolSlices(child.Symbol, r.vocab) {
		add(s, 4, boostSymbolSlice)
	}
	return queries
}

// Resolve returns the single best parent candidate, or ErrNoParent when
// nothing clears the thresholds. Ties break deterministically: earlier
// query tier first, then the smaller address.
func (r *Resolver) Resolve(ctx context.Context, child domain.Token) (*domain.ParentMatch, error) {
	queries := r.Queries(child)
	if len(queries) == 0 {
		observability.RecordParentResolution("none")
		return nil, ErrNoParent
	}

	var best *domain.ParentMatch
	for _, tq := range queries {
		tokens, err := r.source.Search(ctx, tq.query)
		if err != nil {
			r.logger.Printf("parent query %q failed: %v", tq.query, err)
			continue
		}
		for _, tok := range tokens {
			if tok.Address == child.Address {
				continue
			}
			if child.MarketCap > 0 && tok.MarketCap < MinParentMcapShare*child.MarketCap {
				continue
			}

			sim := max(Similarity(child.Symbol, tok.Symbol), Similarity(child.Symbol, tok.Name))
			minSim := StrictMinSimilarity
			if tq.boost > 0 {
				minSim = RelaxedMinSimilarity
			}
			if sim < minSim {
				continue
			}

			m := &domain.ParentMatch{
				Token:      tok,
				Similarity: sim,
				Boost:      tq.boost,
				Score:      sim + tq.boost,
				QueryTier:  tq.tier,
				Query:      tq.query,
			}
			if better(m, best) {
				best = m
			}
		}
	}

	if best == nil {
		observability.RecordParentResolution("none")
		return nil, ErrNoParent
	}
	observability.RecordParentResolution("resolved")
	return best, nil
}

// better reports whether a beats b under the deterministic ordering.
func better(a, b *domain.ParentMatch) bool {
	if b == nil {
		return true
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.QueryTier != b.QueryTier {
		return a.QueryTier < b.QueryTier
	}
	return a.Token.Address < b.Token.Address
}

// Similarity scores two symbols on [0, 1] with a prefix-coverage
// heuristic: exact match is 1.0, a clean prefix relation lands in
// 0.75..0.95 by coverage, anything else falls back to edit distance.
func Similarity(a, b string) float64 {
	a, b = strings.ToUpper(strings.TrimSpace(a)), strings.ToUpper(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.HasPrefix(longer, shorter) {
		coverage := float64(len(shorter)) / float64(len(longer))
		score := 0.75 + 0.2*coverage
		if score > 0.95 {
			score = 0.95
		}
		return score
	}

	dist := levenshtein(a, b)
	return 1.0 - float64(dist)/float64(len(longer))
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, min(cur[j-1]+1, prev[j-1]+cost))
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

var parentTickerPattern = regexp.MustCompile(`\$([A-Za-z][A-Za-z0-9]{1,9})`)

func tickerMentions(description string) []string {
	var out []string
	for _, m := range parentTickerPattern.FindAllStringSubmatch(description, -1) {
		out = append(out, m[1])
	}
	return out
}

func meaningfulWords(text string, vocab *detect.Vocabulary) []string {
	var out []string
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		if len(w) < 4 || vocab.IsStopword(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// symbolSlices derives queries from the symbol's own shape: vocabulary
// decomposition plus leading slices long enough to be distinctive.
func symbolSlices(symbol string, vocab *detect.Vocabulary) []string {
	out := vocab.Decompose(symbol)
	s := strings.ToLower(symbol)
	if len(s) > 4 {
		out = append(out, s[:4])
	}
	out = append(out, detect.SegmentCamelCase(symbol)...)
	return out
}
