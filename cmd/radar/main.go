package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"betascope/internal/ai"
	"betascope/internal/domain"
	"betascope/internal/lifecycle"
	"betascope/internal/market"
	"betascope/internal/observability"
	"betascope/internal/storage"
	chstore "betascope/internal/storage/clickhouse"
	filestore "betascope/internal/storage/file"
	"betascope/internal/storage/memory"
	"betascope/internal/storage/migrations"
	pgstore "betascope/internal/storage/postgres"
	"betascope/internal/szn"
)

func main() {
	// Parse flags
	chain := flag.String("chain", "solana", "Target chain for pair lookups")
	dexURL := flag.String("dex-url", "", "Pair search API base URL (default: public endpoint)")
	pumpURL := flag.String("pump-url", "", "Bonding-curve API base URL (default: public endpoint)")
	pumpWS := flag.String("pump-ws", "", "Bonding-curve websocket endpoint for live launches (empty to disable)")
	minLiquidity := flag.Float64("min-liquidity", 1000, "Minimum pair liquidity in USD")
	historyFile := flag.String("history-file", "radar_history.json", "JSON history store path")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for the history store")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for the snapshot archive (empty to disable)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of file or PostgreSQL")
	aiEndpoint := flag.String("ai-endpoint", "", "AI scoring endpoint for narrative clustering (empty to disable)")
	legends := flag.String("legends", "", "Comma-separated curated legend addresses")
	pollInterval := flag.Duration("poll-interval", 60*time.Second, "Universe poll interval")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[radar] ", log.LstdFlags|log.Lshortfile)

	// Start metrics server if enabled
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err := run(ctx, logger, options{
		chain:         *chain,
		dexURL:        *dexURL,
		pumpURL:       *pumpURL,
		pumpWS:        *pumpWS,
		minLiquidity:  *minLiquidity,
		historyFile:   *historyFile,
		postgresDSN:   *postgresDSN,
		clickhouseDSN: *clickhouseDSN,
		useMemory:     *useMemory,
		aiEndpoint:    *aiEndpoint,
		legends:       splitList(*legends),
		pollInterval:  *pollInterval,
	})

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

type options struct {
	chain         string
	dexURL        string
	pumpURL       string
	pumpWS        string
	minLiquidity  float64
	historyFile   string
	postgresDSN   string
	clickhouseDSN string
	useMemory     bool
	aiEndpoint    string
	legends       []string
	pollInterval  time.Duration
}

func run(ctx context.Context, logger *log.Logger, opts options) error {
	// Market gateway
	var dexOpts []market.DexOption
	if opts.dexURL != "" {
		dexOpts = append(dexOpts, market.WithDexBaseURL(opts.dexURL))
	}
	var pumpOpts []market.PumpOption
	if opts.pumpURL != "" {
		pumpOpts = append(pumpOpts, market.WithPumpBaseURL(opts.pumpURL))
	}
	gateway := market.NewGateway(market.GatewayOptions{
		Dex:          market.NewDexClient(opts.chain, dexOpts...),
		Pump:         market.NewPumpClient(pumpOpts...),
		MinLiquidity: opts.minLiquidity,
		Logger:       logger,
	})

	// History store (use interfaces)
	var historyStore storage.HistoryStore
	switch {
	case opts.useMemory:
		historyStore = memory.NewHistoryStore()
	case opts.postgresDSN != "":
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}
		historyStore = pgstore.NewHistoryStore(pool)
	default:
		store, err := filestore.NewHistoryStore(filestore.Options{Path: opts.historyFile})
		if err != nil {
			return fmt.Errorf("open history file: %w", err)
		}
		historyStore = store
	}

	// Snapshot archive (optional)
	var archive storage.SnapshotStore
	if opts.clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, opts.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		archive = chstore.NewSnapshotStore(conn)
	}

	// Lifecycle manager
	cfg := lifecycle.DefaultConfig()
	cfg.PollInterval = opts.pollInterval
	manager, err := lifecycle.NewManager(lifecycle.Options{
		Config:  cfg,
		Store:   historyStore,
		Archive: archive,
		Legends: opts.legends,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	// Narrative clustering
	var classifier *ai.NarrativeClassifier
	if opts.aiEndpoint != "" {
		classifier = ai.NewNarrativeClassifier(ai.NewClient(opts.aiEndpoint))
	}
	clusterer, err := szn.NewEngine(szn.Options{Classifier: classifier, Logger: logger})
	if err != nil {
		return err
	}

	// Launch stream (optional)
	var launches <-chan domain.Token
	if opts.pumpWS != "" {
		stream, err := market.NewLaunchStream(ctx, opts.pumpWS, nil, logger)
		if err != nil {
			// The stream is an accelerator, not a requirement; polling
			// alone still observes every launch within one interval.
			logger.Printf("launch stream unavailable, polling only: %v", err)
		} else {
			defer stream.Close()
			launches = stream.Launches()
		}
	}

	// Rebuild narrative clusters after every successful poll. The AI and
	// vision passes run on the poll goroutine but after the keyword pass
	// has already produced a usable cluster set.
	onBoard := func(board lifecycle.Board) {
		observability.RecordBoard(len(board.Live), len(board.Cooling), len(board.Dumped), len(board.Legends))

		tokens := make([]domain.Token, 0, len(board.Live))
		for _, entry := range board.Live {
			tokens = append(tokens, entry.Token)
		}
		result := clusterer.Build(tokens)
		clusterer.EnrichAI(ctx, result)
		clusterer.EnrichVisual(ctx, result)

		clusters := result.Clusters()
		members := 0
		for _, c := range clusters {
			members += len(c.Members)
		}
		observability.RecordClusters(len(clusters), members)
		for _, c := range clusters {
			logger.Printf("szn %s: %d members, score %.0f, heat %s", c.Label, len(c.Members), c.SznScore, c.Heat)
		}
	}

	runner := lifecycle.NewRunner(lifecycle.RunnerOptions{
		Manager:  manager,
		Source:   gateway,
		Launches: launches,
		Interval: opts.pollInterval,
		OnBoard:  onBoard,
		Logger:   logger,
	})

	logger.Println("Starting radar...")
	return runner.Run(ctx)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
