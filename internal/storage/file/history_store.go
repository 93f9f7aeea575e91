// Package file implements storage.HistoryStore as a single JSON document on
// disk. The document holds one namespaced key mapping token addresses to
// their history records, mirroring the layout a key-value store would use.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"betascope/internal/domain"
	"betascope/internal/storage"
)

// DefaultNamespace is the key the record map is stored under.
const DefaultNamespace = "betascope:history:v1"

// HistoryStore persists history records to a JSON file. Every mutation
// rewrites the file; the record set is small enough that this is cheaper
// than doing it right.
type HistoryStore struct {
	mu        sync.Mutex
	path      string
	namespace string
	data      map[string]*domain.HistoryRecord
}

// Options configures a file-backed HistoryStore.
type Options struct {
	// Path is the JSON file location. Required.
	Path string
	// Namespace overrides DefaultNamespace.
	Namespace string
}

// NewHistoryStore opens or creates the store at opts.Path. A missing or
// corrupt file is treated as an empty store, never an error: persisted
// state is a cache of observations, not a source of truth.
func NewHistoryStore(opts Options) (*HistoryStore, error) {
	if opts.Path == "" {
		return nil, storage.ErrInvalidInput
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	s := &HistoryStore{
		path:      opts.Path,
		namespace: namespace,
		data:      make(map[string]*domain.HistoryRecord),
	}
	s.load()
	return s, nil
}

// load reads the document from disk. Malformed content is discarded.
func (s *HistoryStore) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var doc map[string]map[string]*domain.HistoryRecord
	if err := json.Unmarshal(raw, &doc); err != nil {
		return
	}

	records, ok := doc[s.namespace]
	if !ok {
		return
	}
	for addr, r := range records {
		if r == nil || addr == "" {
			continue
		}
		s.data[addr] = r
	}
}

// persist writes the document atomically (write temp, rename).
func (s *HistoryStore) persist() error {
	doc := map[string]map[string]*domain.HistoryRecord{
		s.namespace: s.data,
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal history document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write history temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename history file: %w", err)
	}
	return nil
}

// Get retrieves the record for an address. Returns ErrNotFound if not exists.
func (s *HistoryStore) Get(_ context.Context, address string) (*domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}
	recordCopy := *r
	return &recordCopy, nil
}

// Put inserts or updates the record and persists the document.
func (s *HistoryStore) Put(_ context.Context, record *domain.HistoryRecord) error {
	if record == nil || record.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recordCopy := *record
	s.data[record.Address] = &recordCopy
	return s.persist()
}

// All retrieves every record, ordered by first_seen ASC.
func (s *HistoryStore) All(_ context.Context) ([]*domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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

// Prune removes records whose last_seen is strictly before cutoff and
// persists the document when anything was removed.
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
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persist()
}

// Verify interface compliance at compile time.
var _ storage.HistoryStore = (*HistoryStore)(nil)
