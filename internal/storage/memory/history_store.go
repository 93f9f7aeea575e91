package memory

import (
	"context"
	"sort"
	"sync"

	"betascope/internal/domain"
	"betascope/internal/storage"
)

// HistoryStore is an in-memory implementation of storage.HistoryStore.
type HistoryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.HistoryRecord // keyed by address
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		data: make(map[string]*domain.HistoryRecord),
	}
}

// Get retrieves the record for an address. Returns ErrNotFound if not exists.
func (s *HistoryStore) Get(_ context.Context, address string) (*domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	// Return a copy
	recordCopy := *r
	return &recordCopy, nil
}

// Put inserts or updates the record for record.Address.
func (s *HistoryStore) Put(_ context.Context, record *domain.HistoryRecord) error {
	if record == nil || record.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy to prevent external mutation
	recordCopy := *record
	s.data[record.Address] = &recordCopy
	return nil
}

// All retrieves every record, ordered by first_seen ASC.
func (s *HistoryStore) All(_ context.Context) ([]*domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.HistoryRecord, 0, len(s.data))
	for _, r := range s.data {
		recordCopy := *r
		result = append(result, &recordCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].FirstSeen < result[j].FirstSeen
	})

	return result, nil
}

// Prune removes records whose last_seen is strictly before cutoff.
func (s *HistoryStore) Prune(_ context.Context, cutoff int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for addr, r := range s.data {
		if r.LastSeen < cutoff {
			delete(s.data, addr)
			removed++
		}
	}
	return removed, nil
}

// Verify interface compliance at compile time.
var _ storage.HistoryStore = (*HistoryStore)(nil)
