package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"betascope/internal/domain"
	"betascope/internal/observability"
	"betascope/internal/storage"
)

// HistoryStore implements storage.HistoryStore using PostgreSQL.
type HistoryStore struct {
	pool *Pool
}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(pool *Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HistoryStore = (*HistoryStore)(nil)

// Put inserts or updates the record for record.Address. The upsert keeps
// first_seen at its original value and never lets peak_market_cap decrease,
// so concurrent writers cannot violate the history invariants.
func (s *HistoryStore) Put(ctx context.Context, r *domain.HistoryRecord) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}

	snapshot, err := json.Marshal(r.Token)
	if err != nil {
		return fmt.Errorf("marshal token snapshot: %w", err)
	}

	query := `
		INSERT INTO token_history (
			address, first_seen, last_seen, peak_market_cap, mcap_at_first_seen, snapshot
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (address) DO UPDATE SET
			first_seen = LEAST(token_history.first_seen, EXCLUDED.first_seen),
			last_seen = GREATEST(token_history.last_seen, EXCLUDED.last_seen),
			peak_market_cap = GREATEST(token_history.peak_market_cap, EXCLUDED.peak_market_cap),
			snapshot = EXCLUDED.snapshot
	`

	started := time.Now()
	_, err = s.pool.Exec(ctx, query,
		r.Address,
		r.FirstSeen,
		r.LastSeen,
		r.PeakMarketCap,
		r.McapAtFirstSeen,
		string(snapshot),
	)
	observability.ObserveDBQuery("postgres", "put", started, err)
	if err != nil {
		return fmt.Errorf("upsert token history: %w", err)
	}
	return nil
}

// Get retrieves the record for an address. Returns ErrNotFound if not exists.
func (s *HistoryStore) Get(ctx context.Context, address string) (*domain.HistoryRecord, error) {
	query := `
		SELECT address, first_seen, last_seen, peak_market_cap, mcap_at_first_seen, snapshot
		FROM token_history
		WHERE address = $1
	`

	started := time.Now()
	row := s.pool.QueryRow(ctx, query, address)

	var (
		r   domain.HistoryRecord
		raw []byte
	)
	err := row.Scan(&r.Address, &r.FirstSeen, &r.LastSeen, &r.PeakMarketCap, &r.McapAtFirstSeen, &raw)
	observability.ObserveDBQuery("postgres", "get", started, err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token history: %w", err)
	}

	if err := json.Unmarshal(raw, &r.Token); err != nil {
		return nil, fmt.Errorf("unmarshal token snapshot: %w", err)
	}
	return &r, nil
}

// All retrieves every record, ordered by first_seen ASC.
func (s *HistoryStore) All(ctx context.Context) ([]*domain.HistoryRecord, error) {
	query := `
		SELECT address, first_seen, last_seen, peak_market_cap, mcap_at_first_seen, snapshot
		FROM token_history
		ORDER BY first_seen ASC
	`

	started := time.Now()
	rows, err := s.pool.Query(ctx, query)
	observability.ObserveDBQuery("postgres", "all", started, err)
	if err != nil {
		return nil, fmt.Errorf("query token history: %w", err)
	}
	defer rows.Close()

	var result []*domain.HistoryRecord
	for rows.Next() {
		var (
			r   domain.HistoryRecord
			raw []byte
		)
		if err := rows.Scan(&r.Address, &r.FirstSeen, &r.LastSeen, &r.PeakMarketCap, &r.McapAtFirstSeen, &raw); err != nil {
			return nil, fmt.Errorf("scan token history: %w", err)
		}
		if err := json.Unmarshal(raw, &r.Token); err != nil {
			return nil, fmt.Errorf("unmarshal token snapshot: %w", err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token history: %w", err)
	}
	return result, nil
}

// Prune removes records whose last_seen is strictly before cutoff.
func (s *HistoryStore) Prune(ctx context.Context, cutoff int64) (int, error) {
	started := time.Now()
	tag, err := s.pool.Exec(ctx, `DELETE FROM token_history WHERE last_seen < $1`, cutoff)
	observability.ObserveDBQuery("postgres", "prune", started, err)
	if err != nil {
		return 0, fmt.Errorf("prune token history: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
