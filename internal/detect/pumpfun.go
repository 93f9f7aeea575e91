package detect

import (
	"context"
	"strings"

	"betascope/internal/domain"
)

// MaxLaunchFeedSize bounds one launch-feed fetch.
const MaxLaunchFeedSize = 200

// PumpFunDetector scans the bonding-curve launch feed for fresh tokens
// whose symbol or name carries the alpha's terms. It catches derivatives
// before they graduate to a pool and become searchable elsewhere.
type PumpFunDetector struct {
	source MarketSource
	vocab  *Vocabulary
}

// NewPumpFunDetector creates a launch-feed detector.
func NewPumpFunDetector(source MarketSource, vocab *Vocabulary) *PumpFunDetector {
	return &PumpFunDetector{source: source, vocab: vocab}
}

func (d *PumpFunDetector) Source() domain.SignalSource {
	return domain.SignalPumpFun
}

func (d *PumpFunDetector) Detect(ctx context.Context, alpha domain.Token) ([]domain.Token, error) {
	launches, err := d.source.BondingLaunches(ctx, MaxLaunchFeedSize)
	if err != nil {
		return nil, err
	}

	terms := []string{strings.ToLower(alpha.Symbol)}
	if entry, ok := d.vocab.LoreFor(alpha.Symbol); ok {
		terms = append(terms, entry.Terms...)
	}
	terms = dedupeStrings(terms)

	var out []domain.Token
	for _, tok := range launches {
		if tok.Address == alpha.Address {
			continue
		}
		hay := strings.ToLower(tok.Symbol + " " + tok.Name)
		for _, term := range terms {
			if term != "" && strings.Contains(hay, term) {
				out = append(out, tok)
				break
			}
		}
	}
	return out, nil
}
