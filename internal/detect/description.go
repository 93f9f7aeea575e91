package detect

import (
	"context"
	"regexp"
	"strings"

	"betascope/internal/domain"
)

// Limits for the description detector. Descriptions are adversarial
// free text; without a cap, a spammy one turns into a query storm.
const (
	minDescWordLen = 4
	maxDescQueries = 8
)

var tickerPattern = regexp.MustCompile(`\$([A-Za-z][A-Za-z0-9]{1,9})`)

// DescriptionDetector mines the alpha's free-text description for search
// terms: explicit $TICKER mentions first, then salient plain words.
type DescriptionDetector struct {
	source MarketSource
	vocab  *Vocabulary
}

// NewDescriptionDetector creates a description-keyword detector.
func NewDescriptionDetector(source MarketSource, vocab *Vocabulary) *DescriptionDetector {
	return &DescriptionDetector{source: source, vocab: vocab}
}

func (d *DescriptionDetector) Source() domain.SignalSource {
	return domain.SignalDescription
}

// ExtractTerms returns the query terms for a description, $TICKER
// mentions first. The alpha's own symbol is excluded.
func (d *DescriptionDetector) ExtractTerms(description, alphaSymbol string) []string {
	var terms []string

	for _, m := range tickerPattern.FindAllStringSubmatch(description, -1) {
		ticker := strings.ToLower(m[1])
		if strings.EqualFold(ticker, alphaSymbol) {
			continue
		}
		terms = append(terms, ticker)
	}

	for _, word := range strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		if len(word) < minDescWordLen || d.vocab.IsStopword(word) {
			continue
		}
		if strings.EqualFold(word, alphaSymbol) {
			continue
		}
		terms = append(terms, word)
	}

	terms = dedupeStrings(terms)
	if len(terms) > maxDescQueries {
		terms = terms[:maxDescQueries]
	}
	return terms
}

func (d *DescriptionDetector) Detect(ctx context.Context, alpha domain.Token) ([]domain.Token, error) {
	if alpha.Description == "" {
		return nil, nil
	}
	return searchMany(ctx, d.source, d.ExtractTerms(alpha.Description, alpha.Symbol))
}
