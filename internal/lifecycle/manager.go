// Package lifecycle tracks every observed token's price-action phase
// over time: Live, Cooling, Dumped, the curated Legend set, and the
// derived Positioning view. It owns the persisted history store.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"betascope/internal/domain"
	"betascope/internal/observability"
	"betascope/internal/storage"
)

// Entry is one token on the lifecycle board.
type Entry struct {
	Token    domain.Token
	History  domain.HistoryRecord
	State    domain.LifecycleState
	Momentum float64
	Stale    bool // shown with a "last seen" label instead of live data
}

// Board is the classified view of the tracked universe after one
// ingestion cycle.
type Board struct {
	Live      []Entry
	Cooling   []Entry
	Dumped    []Entry
	Legends   []Entry
	UpdatedAt time.Time
}

// Opportunity is one entry of the Positioning view: a formerly strong
// token sitting well below its peak while still trading.
type Opportunity struct {
	Entry
	Drawdown float64
	Score    float64
}

// Manager owns the history store and classifies the universe each poll.
type Manager struct {
	cfg     Config
	store   storage.HistoryStore
	archive storage.SnapshotStore
	legends map[string]struct{}
	logger  *log.Logger

	mu    sync.RWMutex
	board Board
}

// Options configures a Manager. Store is required; Archive is optional
// and best-effort. Legends is the curated address set.
type Options struct {
	Config  Config
	Store   storage.HistoryStore
	Archive storage.SnapshotStore
	Legends []string
	Logger  *log.Logger
}

// NewManager creates a lifecycle manager.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("lifecycle: history store is required")
	}
	cfg := opts.Config
	if cfg.PollInterval <= 0 {
		cfg = DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[lifecycle] ", log.LstdFlags)
	}
	legends := make(map[string]struct{}, len(opts.Legends))
	for _, addr := range opts.Legends {
		legends[addr] = struct{}{}
	}
	return &Manager{
		cfg:     cfg,
		store:   opts.Store,
		archive: opts.Archive,
		legends: legends,
		logger:  logger,
	}, nil
}

// Ingest folds one poll's worth of feed tokens into the history store,
// prunes expired records, archives the raw snapshots, and returns the
// reclassified board. The write-then-prune discipline runs on every
// cycle so the store never needs out-of-band maintenance.
func (m *Manager) Ingest(ctx context.Context, now time.Time, tokens []domain.Token) (Board, error) {
	started := time.Now()
	nowMs := now.UnixMilli()
	observed := make(map[string]domain.Token, len(tokens))

	for _, tok := range tokens {
		if tok.Address == "" {
			continue
		}
		observed[tok.Address] = tok
		if err := m.upsertHistory(ctx, nowMs, tok); err != nil {
			return Board{}, fmt.Errorf("ingest %s: %w", tok.Address, err)
		}
	}

	cutoff := nowMs - m.cfg.Retention.Milliseconds()
	pruned, err := m.store.Prune(ctx, cutoff)
	if err != nil {
		return Board{}, fmt.Errorf("prune history: %w", err)
	}
	if pruned > 0 {
		m.logger.Printf("pruned %d history records older than %s", pruned, m.cfg.Retention)
	}

	m.archiveSnapshots(ctx, nowMs, tokens)

	board, err := m.classify(ctx, now, observed)
	if err != nil {
		return Board{}, err
	}

	// Last write wins; a superseded slow poll just replaces a fresher
	// board with a marginally older one for a single cycle.
	m.mu.Lock()
	m.board = board
	m.mu.Unlock()

	observability.RecordIngest(len(observed), pruned, started)
	return board, nil
}

// Board returns the most recent classified board.
func (m *Manager) Board() Board {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.board
}

func (m *Manager) upsertHistory(ctx context.Context, nowMs int64, tok domain.Token) error {
	rec, err := m.store.Get(ctx, tok.Address)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		rec = &domain.HistoryRecord{
			Address:         tok.Address,
			FirstSeen:       nowMs,
			LastSeen:        nowMs,
			PeakMarketCap:   tok.MarketCap,
			McapAtFirstSeen: tok.MarketCap,
			Token:           tok,
		}
	case err != nil:
		return err
	default:
		if nowMs > rec.LastSeen {
			rec.LastSeen = nowMs
		}
		if tok.MarketCap > rec.PeakMarketCap {
			rec.PeakMarketCap = tok.MarketCap
		}
		rec.Token = tok
	}
	return m.store.Put(ctx, rec)
}

func (m *Manager) archiveSnapshots(ctx context.Context, nowMs int64, tokens []domain.Token) {
	if m.archive == nil || len(tokens) == 0 {
		return
	}
	snapshots := make([]*domain.TokenSnapshot, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Address == "" {
			continue
		}
		snapshots = append(snapshots, &domain.TokenSnapshot{
			Address:    tok.Address,
			ObservedAt: nowMs,
			PriceUSD:   tok.PriceUSD,
			MarketCap:  tok.MarketCap,
			Volume24h:  tok.Volume24h,
			Liquidity:  tok.Liquidity,
			Change24h:  tok.PriceChange24h,
			Source:     tok.Source,
		})
	}
	if err := m.archive.InsertBulk(ctx, snapshots); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		m.logger.Printf("snapshot archive write failed: %v", err)
	}
}

func (m *Manager) classify(ctx context.Context, now time.Time, observed map[string]domain.Token) (Board, error) {
	records, err := m.store.All(ctx)
	if err != nil {
		return Board{}, fmt.Errorf("load history: %w", err)
	}

	nowMs := now.UnixMilli()
	board := Board{UpdatedAt: now}

	for _, rec := range records {
		tok, seen := observed[rec.Address]
		if !seen {
			tok = rec.Token // fall back to the last known snapshot
		}

		entry := Entry{
			Token:    tok,
			History:  *rec,
			Momentum: m.momentum(nowMs, rec, tok),
		}

		if _, legend := m.legends[rec.Address]; legend {
			entry.State = domain.StateLegend
			board.Legends = append(board.Legends, entry)
			continue
		}

		// The dump verdict overrides the raw 24h percent, which is
		// meaningless after a large drawdown.
		if m.isDumped(rec, tok.MarketCap) {
			entry.State = domain.StateDumped
			board.Dumped = append(board.Dumped, entry)
			continue
		}

		stale := nowMs-rec.LastSeen > m.cfg.StaleAfter.Milliseconds()
		if !seen && stale {
			entry.State = domain.StateCooling
			entry.Stale = true
			board.Cooling = append(board.Cooling, entry)
			continue
		}

		switch {
		case tok.PriceChange24h > 0 && tok.Volume24h >= m.cfg.LiveVolumeFloor:
			entry.State = domain.StateLive
			board.Live = append(board.Live, entry)
		case tok.PriceChange24h < 0 &&
			tok.Volume24h >= m.cfg.CoolingVolumeFloor &&
			tok.MarketCap >= m.cfg.CoolingMcapFloor:
			entry.State = domain.StateCooling
			board.Cooling = append(board.Cooling, entry)
		}
		// Everything else is below the display floors and stays off the board.
	}

	sort.SliceStable(board.Live, func(a, b int) bool {
		return board.Live[a].Momentum > board.Live[b].Momentum
	})
	sort.SliceStable(board.Cooling, func(a, b int) bool {
		return board.Cooling[a].History.LastSeen > board.Cooling[b].History.LastSeen
	})
	sort.SliceStable(board.Dumped, func(a, b int) bool {
		return board.Dumped[a].History.PeakMarketCap > board.Dumped[b].History.PeakMarketCap
	})
	return board, nil
}

func (m *Manager) isDumped(rec *domain.HistoryRecord, currentMcap float64) bool {
	return rec.PeakMarketCap >= m.cfg.DumpedPeakMin &&
		currentMcap < m.cfg.DumpedRatio*rec.PeakMarketCap
}

// momentum ranks the Live set: half gain, a third volume, the rest
// recency of first discovery.
func (m *Manager) momentum(nowMs int64, rec *domain.HistoryRecord, tok domain.Token) float64 {
	gain := clamp01(tok.PriceChange24h / 100)
	volume := clamp01(math.Log10(tok.Volume24h+1) / 6)
	ageHours := float64(nowMs-rec.FirstSeen) / float64(time.Hour.Milliseconds())
	recency := clamp01(1 - ageHours/24)
	return 0.5*gain + 0.3*volume + 0.2*recency
}

// Positioning computes the derived read-only view of recoverable dumps:
// tokens with a real peak, a deep drawdown, and enough residual volume
// and liquidity to re-enter.
func (m *Manager) Positioning(ctx context.Context, now time.Time) ([]Opportunity, error) {
	records, err := m.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	nowMs := now.UnixMilli()
	var out []Opportunity
	for _, rec := range records {
		tok := rec.Token
		if rec.PeakMarketCap < m.cfg.PositioningPeakMin {
			continue
		}
		dd := rec.Drawdown(tok.MarketCap)
		if dd < m.cfg.PositioningDrawdown {
			continue
		}
		if tok.Volume24h < m.cfg.PositioningVolumeFloor || tok.Liquidity < m.cfg.PositioningLiquidityFloor {
			continue
		}
		if nowMs-rec.FirstSeen < m.cfg.PositioningMinAge.Milliseconds() {
			continue
		}

		volNorm := clamp01(math.Log10(tok.Volume24h+1) / 6)
		hoursSinceSeen := float64(nowMs-rec.LastSeen) / float64(time.Hour.Milliseconds())
		freshness := clamp01(1 - hoursSinceSeen/24)

		out = append(out, Opportunity{
			Entry: Entry{
				Token:    tok,
				History:  *rec,
				Momentum: m.momentum(nowMs, rec, tok),
			},
			Drawdown: dd,
			Score:    0.5*dd + 0.3*volNorm + 0.2*freshness,
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	observability.RecordPositioning(len(out))
	return out, nil
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
