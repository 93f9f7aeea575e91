// Package detect implements the heuristic signal detectors that propose
// beta candidates for a selected alpha. Each detector is independently
// failable; the fan-out settles every detector and lets the merge step
// work with whatever succeeded.
package detect

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"betascope/internal/domain"
	"betascope/internal/observability"
)

// MarketSource is the slice of the market gateway the detectors need.
type MarketSource interface {
	Search(ctx context.Context, query string) ([]domain.Token, error)
	DirectPairs(ctx context.Context, alphaAddress string) ([]domain.Token, error)
	BondingLaunches(ctx context.Context, limit int) ([]domain.Token, error)
}

// Detector proposes candidate tokens for an alpha under one signal source.
type Detector interface {
	Source() domain.SignalSource
	Detect(ctx context.Context, alpha domain.Token) ([]domain.Token, error)
}

// Result carries one detector's outcome. Exactly one of Candidates and
// Err is meaningful; a failed detector contributes an empty candidate set.
type Result struct {
	Source     domain.SignalSource
	Candidates []domain.Token
	Err        error
}

// Ok reports whether the detector succeeded.
func (r Result) Ok() bool {
	return r.Err == nil
}

// RunAll fans the detectors out concurrently and settles every one of
// them. It never returns an error: a failed detector becomes a Result
// with Err set, and the caller decides whether an all-failed run matters.
func RunAll(ctx context.Context, logger *log.Logger, alpha domain.Token, detectors []Detector) []Result {
	observability.RecordDetectionRun()
	results := make([]Result, len(detectors))

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range detectors {
		g.Go(func() error {
			started := time.Now()
			candidates, err := d.Detect(gctx, alpha)
			results[i] = Result{Source: d.Source(), Candidates: candidates, Err: err}
			observability.RecordDetector(string(d.Source()), len(candidates), err != nil, time.Since(started))
			if err != nil && logger != nil {
				logger.Printf("detector %s failed for %s: %v", d.Source(), alpha.Symbol, err)
			}
			return nil
		})
	}
	g.Wait() // closures never return errors

	return results
}

// searchMany issues one search per query and unions the results by
// address. Individual query failures are skipped; the detector only
// fails when every query failed.
func searchMany(ctx context.Context, source MarketSource, queries []string) ([]domain.Token, error) {
	seen := make(map[string]struct{})
	var out []domain.Token
	var lastErr error
	failures := 0

	for _, q := range queries {
		tokens, err := source.Search(ctx, q)
		if err != nil {
			failures++
			lastErr = err
			continue
		}
		for _, tok := range tokens {
			if _, dup := seen[tok.Address]; dup {
				continue
			}
			seen[tok.Address] = struct{}{}
			out = append(out, tok)
		}
	}

	if len(queries) > 0 && failures == len(queries) {
		return nil, lastErr
	}
	return out, nil
}
