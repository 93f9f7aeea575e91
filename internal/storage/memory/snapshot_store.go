package memory

import (
	"context"
	"sort"
	"sync"

	"betascope/internal/domain"
	"betascope/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[snapshotKey]*domain.TokenSnapshot
}

type snapshotKey struct {
	address    string
	observedAt int64
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[snapshotKey]*domain.TokenSnapshot),
	}
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate
// (address, observed_at).
func (s *SnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.TokenSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check intra-batch and against existing entries before mutating
	seen := make(map[snapshotKey]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.Address == "" {
			return storage.ErrInvalidInput
		}
		k := snapshotKey{snap.Address, snap.ObservedAt}
		if _, dup := seen[k]; dup {
			return storage.ErrDuplicateKey
		}
		if _, dup := s.data[k]; dup {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, snap := range snapshots {
		snapCopy := *snap
		s.data[snapshotKey{snap.Address, snap.ObservedAt}] = &snapCopy
	}
	return nil
}

// GetByAddress retrieves all snapshots for an address, ordered by observed_at ASC.
func (s *SnapshotStore) GetByAddress(_ context.Context, address string) ([]*domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenSnapshot
	for k, snap := range s.data {
		if k.address == address {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAt < result[j].ObservedAt
	})

	return result, nil
}

// GetByTimeRange retrieves snapshots for an address within [start, end] (inclusive).
func (s *SnapshotStore) GetByTimeRange(_ context.Context, address string, start, end int64) ([]*domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenSnapshot
	for k, snap := range s.data {
		if k.address == address && snap.ObservedAt >= start && snap.ObservedAt <= end {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAt < result[j].ObservedAt
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)
