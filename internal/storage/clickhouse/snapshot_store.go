package clickhouse

import (
	"context"
	"fmt"
	"time"

	"betascope/internal/domain"
	"betascope/internal/observability"
	"betascope/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate
// (address, observed_at). MergeTree does not enforce uniqueness, so
// duplicates are checked explicitly before the batch is sent.
func (s *SnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.TokenSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	type key struct {
		address    string
		observedAt int64
	}
	seen := make(map[key]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.Address == "" {
			return storage.ErrInvalidInput
		}
		k := key{snap.Address, snap.ObservedAt}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, snap := range snapshots {
		exists, err := s.exists(ctx, snap.Address, snap.ObservedAt)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO token_snapshots (
			address, observed_at, price_usd, market_cap, volume_24h, liquidity, change_24h, source
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.Address, uint64(snap.ObservedAt),
			snap.PriceUSD, snap.MarketCap, snap.Volume24h, snap.Liquidity, snap.Change24h,
			string(snap.Source),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	started := time.Now()
	err = batch.Send()
	observability.ObserveDBQuery("clickhouse", "insert_bulk", started, err)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByAddress retrieves all snapshots for an address, ordered by observed_at ASC.
func (s *SnapshotStore) GetByAddress(ctx context.Context, address string) ([]*domain.TokenSnapshot, error) {
	query := `
		SELECT address, observed_at, price_usd, market_cap, volume_24h, liquidity, change_24h, source
		FROM token_snapshots
		WHERE address = ?
		ORDER BY observed_at ASC
	`
	return s.query(ctx, query, address)
}

// GetByTimeRange retrieves snapshots for an address within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(ctx context.Context, address string, start, end int64) ([]*domain.TokenSnapshot, error) {
	query := `
		SELECT address, observed_at, price_usd, market_cap, volume_24h, liquidity, change_24h, source
		FROM token_snapshots
		WHERE address = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`
	return s.query(ctx, query, address, uint64(start), uint64(end))
}

func (s *SnapshotStore) query(ctx context.Context, query string, args ...any) ([]*domain.TokenSnapshot, error) {
	started := time.Now()
	rows, err := s.conn.Query(ctx, query, args...)
	observability.ObserveDBQuery("clickhouse", "select", started, err)
	if err != nil {
		return nil, fmt.Errorf("query token snapshots: %w", err)
	}
	defer rows.Close()

	var result []*domain.TokenSnapshot
	for rows.Next() {
		var (
			snap       domain.TokenSnapshot
			observedAt uint64
			source     string
		)
		err := rows.Scan(
			&snap.Address, &observedAt,
			&snap.PriceUSD, &snap.MarketCap, &snap.Volume24h, &snap.Liquidity, &snap.Change24h,
			&source,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token snapshot: %w", err)
		}
		snap.ObservedAt = int64(observedAt)
		snap.Source = domain.FeedSource(source)
		result = append(result, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token snapshots: %w", err)
	}
	return result, nil
}

func (s *SnapshotStore) exists(ctx context.Context, address string, observedAt int64) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count() FROM token_snapshots WHERE address = ? AND observed_at = ?`,
		address, uint64(observedAt),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
