package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"betascope/internal/ai"
	"betascope/internal/classify"
	"betascope/internal/detect"
	"betascope/internal/domain"
	"betascope/internal/enrich"
	"betascope/internal/market"
	"betascope/internal/parent"
)

func main() {
	// Parse flags
	alphaAddr := flag.String("alpha", "", "Alpha token address to scan for betas (required)")
	chain := flag.String("chain", "solana", "Target chain for pair lookups")
	dexURL := flag.String("dex-url", "", "Pair search API base URL (default: public endpoint)")
	pumpURL := flag.String("pump-url", "", "Bonding-curve API base URL (default: public endpoint)")
	minLiquidity := flag.Float64("min-liquidity", 1000, "Minimum pair liquidity in USD")
	aiEndpoint := flag.String("ai-endpoint", "", "AI scoring endpoint (empty disables semantic and visual passes)")
	enrichEndpoint := flag.String("enrich-endpoint", "", "Holder-stats proxy endpoint (empty hides holder data)")
	withParent := flag.Bool("parent", false, "Also resolve the alpha's probable parent token")
	timeout := flag.Duration("timeout", 2*time.Minute, "Total scan timeout")

	flag.Parse()

	logger := log.New(os.Stderr, "[scan] ", log.LstdFlags)

	if *alphaAddr == "" {
		logger.Fatal("--alpha is required")
	}
	if !market.IsValidAddress(*alphaAddr) {
		logger.Fatalf("--alpha %q is not a valid address", *alphaAddr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, logger, *alphaAddr, *chain, *dexURL, *pumpURL, *minLiquidity, *aiEndpoint, *enrichEndpoint, *withParent); err != nil {
		logger.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, logger *log.Logger, alphaAddr, chain, dexURL, pumpURL string, minLiquidity float64, aiEndpoint, enrichEndpoint string, withParent bool) error {
	var dexOpts []market.DexOption
	if dexURL != "" {
		dexOpts = append(dexOpts, market.WithDexBaseURL(dexURL))
	}
	var pumpOpts []market.PumpOption
	if pumpURL != "" {
		pumpOpts = append(pumpOpts, market.WithPumpBaseURL(pumpURL))
	}
	gateway := market.NewGateway(market.GatewayOptions{
		Dex:          market.NewDexClient(chain, dexOpts...),
		Pump:         market.NewPumpClient(pumpOpts...),
		MinLiquidity: minLiquidity,
		Logger:       logger,
	})

	alpha, err := gateway.TokenByAddress(ctx, alphaAddr)
	if err != nil {
		return fmt.Errorf("resolve alpha %s: %w", alphaAddr, err)
	}
	logger.Printf("alpha: $%s (%s), mcap $%.0f", alpha.Symbol, alpha.Name, alpha.MarketCap)

	if proxy := enrich.NewClient(enrichEndpoint); proxy.Configured() {
		stats, err := proxy.TokenStats(ctx, alpha.Address)
		if err != nil {
			logger.Printf("holder stats unavailable: %v", err)
		} else {
			fmt.Printf("holders: %d tracked, top10 %.1f%%, 7d %+.1f%%, 24h flow %d buys / %d sells\n",
				len(stats.Holders), stats.TopTenPercent, stats.PriceChange7d, stats.Buys24h, stats.Sells24h)
		}
	}

	vocab, err := detect.DefaultVocabulary()
	if err != nil {
		return err
	}

	detectors := []detect.Detector{
		detect.NewKeywordDetector(gateway, vocab),
		detect.NewLoreDetector(gateway, vocab),
		detect.NewMorphologyDetector(gateway, vocab),
		detect.NewDescriptionDetector(gateway, vocab),
		detect.NewLPPairDetector(gateway),
		detect.NewPumpFunDetector(gateway, vocab),
	}

	results := detect.RunAll(ctx, logger, *alpha, detectors)
	failed := 0
	for _, r := range results {
		if !r.Ok() {
			failed++
		}
	}
	if failed == len(results) {
		return fmt.Errorf("all detectors failed, try again later")
	}

	var engineOpts classify.Options
	engineOpts.Logger = logger
	if aiEndpoint != "" {
		client := ai.NewClient(aiEndpoint)
		engineOpts.Scorer = ai.NewSemanticScorer(ai.SemanticScorerOptions{Client: client})
		engineOpts.Vision = ai.NewVisionComparator(ai.VisionComparatorOptions{Client: client})
	}
	engine := classify.NewEngine(engineOpts)

	matches := engine.Merge(time.Now(), *alpha, results)
	matches = engine.EnrichSemantic(ctx, *alpha, matches)
	matches = engine.EnrichVisual(ctx, *alpha, matches)

	if len(matches) == 0 {
		fmt.Println("no beta plays detected")
	} else {
		printMatches(matches)
	}

	if withParent {
		resolver := parent.NewResolver(gateway, vocab, logger)
		match, err := resolver.Resolve(ctx, *alpha)
		switch {
		case errors.Is(err, parent.ErrNoParent):
			fmt.Println("\nno parent resolved")
		case err != nil:
			return fmt.Errorf("resolve parent: %w", err)
		default:
			fmt.Printf("\nprobable parent: $%s (score %.2f, via %q tier %d)\n",
				match.Token.Symbol, match.Score, match.Query, match.QueryTier)
		}
	}
	return nil
}

func printMatches(matches []domain.BetaMatch) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tTIER\tCLASS\tWAVE\t24H%\tMCAP\tRATIO\tSIGNALS")
	for _, m := range matches {
		ratio := "-"
		if m.McapRatio != nil {
			ratio = fmt.Sprintf("%.1fx", *m.McapRatio)
		}
		class := string(m.Class)
		if class == "" {
			class = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%+.1f\t%.0f\t%s\t%s\n",
			m.Token.Symbol, m.Tier, class, m.Wave,
			m.Token.PriceChange24h, m.Token.MarketCap, ratio,
			strings.ToLower(m.Signals.Key()))
	}
	w.Flush()
}
