package storage

import (
	"context"

	"betascope/internal/domain"
)

// HistoryStore provides access to persisted per-address lifecycle history.
// It is the only long-lived mutable state in the system and is owned
// exclusively by the lifecycle manager.
type HistoryStore interface {
	// Get retrieves the record for an address. Returns ErrNotFound if not exists.
	Get(ctx context.Context, address string) (*domain.HistoryRecord, error)

	// Put inserts or updates the record for record.Address.
	Put(ctx context.Context, record *domain.HistoryRecord) error

	// All retrieves every record, ordered by first_seen ASC.
	All(ctx context.Context) ([]*domain.HistoryRecord, error)

	// Prune removes records whose last_seen is strictly before cutoff (ms).
	// Returns the number of records removed.
	Prune(ctx context.Context, cutoff int64) (int, error)
}

// SnapshotStore provides access to the append-only per-poll market snapshot
// archive.
type SnapshotStore interface {
	// InsertBulk adds multiple snapshots. Fails entire batch on duplicate
	// (address, observed_at).
	InsertBulk(ctx context.Context, snapshots []*domain.TokenSnapshot) error

	// GetByAddress retrieves all snapshots for an address, ordered by
	// observed_at ASC.
	GetByAddress(ctx context.Context, address string) ([]*domain.TokenSnapshot, error)

	// GetByTimeRange retrieves snapshots for an address within [start, end]
	// (inclusive, ms), ordered by observed_at ASC.
	GetByTimeRange(ctx context.Context, address string, start, end int64) ([]*domain.TokenSnapshot, error)
}
