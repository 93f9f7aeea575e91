// Package szn clusters the live token set into narrative "seasons".
// Pass 1 is a synchronous keyword pass over an ordered category table;
// pass 2 slots leftovers in via AI text classification; pass 3 tries
// logo artwork for tokens whose text said nothing. Later passes only
// ever add members, never remove them.
package szn

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"betascope/internal/ai"
	"betascope/internal/domain"
	"betascope/internal/observability"
)

//go:embed categories.yaml
var categoriesYAML []byte

// Category is one row of the ordered keyword table.
type Category struct {
	Key      string   `yaml:"key"`
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

type categoryTable struct {
	Categories []Category `yaml:"categories"`
}

// DefaultCategories loads the embedded table. Order is significant:
// specific categories come before generic ones.
func DefaultCategories() ([]Category, error) {
	var tbl categoryTable
	if err := yaml.Unmarshal(categoriesYAML, &tbl); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	return tbl.Categories, nil
}

// Engine rebuilds the cluster set each polling cycle.
type Engine struct {
	categories []Category
	classifier *ai.NarrativeClassifier
	logger     *log.Logger
}

// Options configures an Engine. Classifier is optional; without it the
// engine is keyword-only.
type Options struct {
	Categories []Category // default: the embedded table
	Classifier *ai.NarrativeClassifier
	Logger     *log.Logger
}

// NewEngine creates a clustering engine.
func NewEngine(opts Options) (*Engine, error) {
	categories := opts.Categories
	if categories == nil {
		var err error
		categories, err = DefaultCategories()
		if err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[szn] ", log.LstdFlags)
	}
	return &Engine{
		categories: categories,
		classifier: opts.Classifier,
		logger:     logger,
	}, nil
}

// pool accumulates members for one category across passes.
type pool struct {
	key     string
	label   string
	members []domain.Token
	sources map[domain.ClusterSource]struct{}
}

func (p *pool) add(tok domain.Token, src domain.ClusterSource) {
	for _, m := range p.members {
		if m.Address == tok.Address {
			return
		}
	}
	p.members = append(p.members, tok)
	p.sources[src] = struct{}{}
}

// Result carries the cluster state between passes. Clusters() derives
// the visible cluster list from it at any point.
type Result struct {
	pools     map[string]*pool
	poolOrder []string
	assigned  map[string]struct{} // token addresses already placed
	unmatched []domain.Token
}

// Unmatched returns the tokens no pass has placed yet.
func (r *Result) Unmatched() []domain.Token {
	return r.unmatched
}

func (r *Result) pool(key, label string) *pool {
	if p, ok := r.pools[key]; ok {
		return p
	}
	p := &pool{key: key, label: label, sources: make(map[domain.ClusterSource]struct{})}
	r.pools[key] = p
	r.poolOrder = append(r.poolOrder, key)
	return p
}

func (r *Result) place(tok domain.Token, key, label string, src domain.ClusterSource) {
	if _, done := r.assigned[tok.Address]; done {
		return
	}
	r.pool(key, label).add(tok, src)
	r.assigned[tok.Address] = struct{}{}

	kept := r.unmatched[:0]
	for _, u := range r.unmatched {
		if u.Address != tok.Address {
			kept = append(kept, u)
		}
	}
	r.unmatched = kept
}

// Build runs the synchronous keyword pass. Every token gets at most one
// category, the first in table order whose keywords hit.
func (e *Engine) Build(tokens []domain.Token) *Result {
	r := &Result{
		pools:    make(map[string]*pool),
		assigned: make(map[string]struct{}),
	}

	for _, tok := range tokens {
		hay := strings.ToLower(tok.Symbol + " " + tok.Name + " " + tok.Description)
		placed := false
		for _, cat := range e.categories {
			for _, kw := range cat.Keywords {
				if strings.Contains(hay, kw) {
					r.place(tok, cat.Key, cat.Label, domain.ClusterKeyword)
					placed = true
					break
				}
			}
			if placed {
				break
			}
		}
		if !placed {
			r.unmatched = append(r.unmatched, tok)
		}
	}
	return r
}

// EnrichAI runs the text classification pass over the unmatched set.
// Failures leave the result exactly as it was.
func (e *Engine) EnrichAI(ctx context.Context, r *Result) {
	if e.classifier == nil || len(r.unmatched) == 0 {
		return
	}
	assignments, err := e.classifier.Classify(ctx, r.knownKeys(), r.unmatched)
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			e.logger.Printf("ai clustering pass skipped: %v", err)
		}
		return
	}
	e.apply(r, assignments)
}

// EnrichVisual runs the logo pass over whatever is still unmatched.
func (e *Engine) EnrichVisual(ctx context.Context, r *Result) {
	if e.classifier == nil || len(r.unmatched) == 0 {
		return
	}
	assignments, err := e.classifier.ClassifyVisual(ctx, r.knownKeys(), r.unmatched)
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			e.logger.Printf("visual clustering pass skipped: %v", err)
		}
		return
	}
	e.apply(r, assignments)
}

func (e *Engine) apply(r *Result, assignments []ai.NarrativeAssignment) {
	byAddress := make(map[string]domain.Token, len(r.unmatched))
	for _, tok := range r.unmatched {
		byAddress[tok.Address] = tok
	}
	for _, a := range assignments {
		tok, ok := byAddress[a.Address]
		if !ok {
			continue
		}
		key := normalizeKey(a.Category)
		label := a.Category
		cat, known := e.categoryByKey(key)
		if known {
			label = cat.Label
		}
		if _, exists := r.pools[key]; !exists && !known {
			observability.RecordNovelCluster()
		}
		r.place(tok, key, label, domain.ClusterAI)
	}
}

func (e *Engine) categoryByKey(key string) (Category, bool) {
	for _, cat := range e.categories {
		if cat.Key == key {
			return cat, true
		}
	}
	return Category{}, false
}

func (r *Result) knownKeys() []string {
	keys := make([]string, 0, len(r.poolOrder))
	keys = append(keys, r.poolOrder...)
	return keys
}

func normalizeKey(category string) string {
	return strings.Join(strings.Fields(strings.ToLower(category)), "-")
}

// Clusters derives the visible cluster list: pools with enough members,
// scored and ordered by sznScore descending.
func (r *Result) Clusters() []domain.NarrativeCluster {
	var out []domain.NarrativeCluster
	for _, key := range r.poolOrder {
		p := r.pools[key]
		if len(p.members) < domain.MinClusterMembers {
			continue
		}
		out = append(out, scoreCluster(p))
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].SznScore > out[b].SznScore
	})
	return out
}

func scoreCluster(p *pool) domain.NarrativeCluster {
	var totalVolume, sumChange, leaderGain float64
	green := 0
	for _, m := range p.members {
		totalVolume += m.Volume24h
		sumChange += m.PriceChange24h
		if m.PriceChange24h > 0 {
			green++
		}
		if m.PriceChange24h > leaderGain {
			leaderGain = m.PriceChange24h
		}
	}
	count := float64(len(p.members))
	momentum := float64(green) / count

	// Composite: volume depth, breadth of green, leader gain, member count.
	volScore := clamp01(math.Log10(totalVolume+1) / 7)
	leaderScore := clamp01(leaderGain / 100)
	depthScore := clamp01(count / 10)
	score := 100 * (0.35*volScore + 0.25*momentum + 0.25*leaderScore + 0.15*depthScore)

	return domain.NarrativeCluster{
		Key:         p.key,
		Label:       p.label,
		Members:     append([]domain.Token(nil), p.members...),
		TotalVolume: totalVolume,
		AvgChange:   sumChange / count,
		Momentum:    momentum,
		SznScore:    score,
		Heat:        domain.HeatForScore(score),
		Source:      clusterSource(p.sources),
	}
}

func clusterSource(sources map[domain.ClusterSource]struct{}) domain.ClusterSource {
	_, kw := sources[domain.ClusterKeyword]
	_, aiSrc := sources[domain.ClusterAI]
	switch {
	case kw && aiSrc:
		return domain.ClusterMixed
	case aiSrc:
		return domain.ClusterAI
	default:
		return domain.ClusterKeyword
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
