package detect

import (
	"context"

	"betascope/internal/domain"
)

// LPPairDetector finds tokens that trade in a pool quoted directly in
// the alpha. An on-chain pairing is the strongest relationship evidence
// this system has, so its source tag outranks every heuristic.
type LPPairDetector struct {
	source MarketSource
}

// NewLPPairDetector creates an LP direct-pair detector.
func NewLPPairDetector(source MarketSource) *LPPairDetector {
	return &LPPairDetector{source: source}
}

func (d *LPPairDetector) Source() domain.SignalSource {
	return domain.SignalLPPair
}

func (d *LPPairDetector) Detect(ctx context.Context, alpha domain.Token) ([]domain.Token, error) {
	return d.source.DirectPairs(ctx, alpha.Address)
}
