package detect

import (
	"context"
	"strings"

	"betascope/internal/domain"
)

// KeywordDetector searches the market by the literal terms associated
// with the alpha: its symbol, curated lore terms, compound-decomposition
// bases and CamelCase segments of the display name.
type KeywordDetector struct {
	source MarketSource
	vocab  *Vocabulary
}

// NewKeywordDetector creates a keyword detector.
func NewKeywordDetector(source MarketSource, vocab *Vocabulary) *KeywordDetector {
	return &KeywordDetector{source: source, vocab: vocab}
}

func (d *KeywordDetector) Source() domain.SignalSource {
	return domain.SignalKeyword
}

func (d *KeywordDetector) Detect(ctx context.Context, alpha domain.Token) ([]domain.Token, error) {
	queries := []string{strings.ToLower(alpha.Symbol)}
	if entry, ok := d.vocab.LoreFor(alpha.Symbol); ok {
		queries = append(queries, entry.Terms...)
	}
	queries = append(queries, d.vocab.Decompose(alpha.Symbol)...)
	queries = append(queries, SegmentCamelCase(alpha.Name)...)

	return searchMany(ctx, d.source, dedupeStrings(queries))
}

// LoreDetector searches by the broader concept tags of the alpha's lore
// entry ("hat", "frog") rather than literal tickers. Alphas without a
// curated entry contribute nothing.
type LoreDetector struct {
	source MarketSource
	vocab  *Vocabulary
}

// NewLoreDetector creates a lore detector.
func NewLoreDetector(source MarketSource, vocab *Vocabulary) *LoreDetector {
	return &LoreDetector{source: source, vocab: vocab}
}

func (d *LoreDetector) Source() domain.SignalSource {
	return domain.SignalLore
}

func (d *LoreDetector) Detect(ctx context.Context, alpha domain.Token) ([]domain.Token, error) {
	entry, ok := d.vocab.LoreFor(alpha.Symbol)
	if !ok || len(entry.Concepts) == 0 {
		return nil, nil
	}
	return searchMany(ctx, d.source, entry.Concepts)
}
