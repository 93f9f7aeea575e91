package detect

import (
	"context"
	"strings"

	"betascope/internal/domain"
)

// MaxMorphologyTickers caps how many generated tickers one run searches.
const MaxMorphologyTickers = 30

// MorphologyDetector generates plausible derivative tickers from the
// alpha symbol and searches each one exactly. It only accepts exact
// symbol matches, trading recall for precision.
type MorphologyDetector struct {
	source MarketSource
	vocab  *Vocabulary
}

// NewMorphologyDetector creates a morphology detector.
func NewMorphologyDetector(source MarketSource, vocab *Vocabulary) *MorphologyDetector {
	return &MorphologyDetector{source: source, vocab: vocab}
}

func (d *MorphologyDetector) Source() domain.SignalSource {
	return domain.SignalMorphology
}

// GenerateTickers builds the candidate ticker set: prefix+symbol,
// symbol+suffix, plus curated opposite and companion forms.
func (d *MorphologyDetector) GenerateTickers(symbol string) []string {
	base := strings.ToUpper(symbol)
	var out []string
	for _, p := range d.vocab.Prefixes {
		out = append(out, strings.ToUpper(p)+base)
	}
	for _, s := range d.vocab.Suffixes {
		out = append(out, base+strings.ToUpper(s))
	}
	lower := strings.ToLower(symbol)
	if opp, ok := d.vocab.Opposites[lower]; ok {
		out = append(out, strings.ToUpper(opp))
	}
	if comp, ok := d.vocab.Companions[lower]; ok {
		out = append(out, base+strings.ToUpper(comp))
		out = append(out, strings.ToUpper(comp)+base)
	}

	out = dedupeStrings(out)
	if len(out) > MaxMorphologyTickers {
		out = out[:MaxMorphologyTickers]
	}
	return out
}

func (d *MorphologyDetector) Detect(ctx context.Context, alpha domain.Token) ([]domain.Token, error) {
	tickers := d.GenerateTickers(alpha.Symbol)

	seen := make(map[string]struct{})
	var out []domain.Token
	var lastErr error
	failures := 0

	for _, ticker := range tickers {
		tokens, err := d.source.Search(ctx, ticker)
		if err != nil {
			failures++
			lastErr = err
			continue
		}
		for _, tok := range tokens {
			if !strings.EqualFold(tok.Symbol, ticker) {
				continue // exact match only
			}
			if _, dup := seen[tok.Address]; dup {
				continue
			}
			seen[tok.Address] = struct{}{}
			out = append(out, tok)
		}
	}

	if len(tickers) > 0 && failures == len(tickers) {
		return nil, lastErr
	}
	return out, nil
}
