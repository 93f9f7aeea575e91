package memory

import (
	"context"
	"errors"
	"testing"

	"betascope/internal/domain"
	"betascope/internal/storage"
)

func TestHistoryStore_PutGet(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	record := &domain.HistoryRecord{
		Address:         "Addr1",
		FirstSeen:       1000,
		LastSeen:        2000,
		PeakMarketCap:   500_000,
		McapAtFirstSeen: 100_000,
	}

	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := store.Get(ctx, "Addr1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.PeakMarketCap != 500_000 {
		t.Errorf("PeakMarketCap = %v, want 500000", got.PeakMarketCap)
	}

	// Mutating the returned copy must not affect the store
	got.PeakMarketCap = 1
	again, _ := store.Get(ctx, "Addr1")
	if again.PeakMarketCap != 500_000 {
		t.Error("store returned a shared reference, not a copy")
	}
}

func TestHistoryStore_GetMissing(t *testing.T) {
	store := NewHistoryStore()

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryStore_PutUpdatesInPlace(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	_ = store.Put(ctx, &domain.HistoryRecord{Address: "A", FirstSeen: 1, LastSeen: 1})
	_ = store.Put(ctx, &domain.HistoryRecord{Address: "A", FirstSeen: 1, LastSeen: 9})

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 record, got %d", len(all))
	}
	if all[0].LastSeen != 9 {
		t.Errorf("LastSeen = %d, want 9", all[0].LastSeen)
	}
}

func TestHistoryStore_AllOrdered(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	_ = store.Put(ctx, &domain.HistoryRecord{Address: "B", FirstSeen: 300, LastSeen: 300})
	_ = store.Put(ctx, &domain.HistoryRecord{Address: "A", FirstSeen: 100, LastSeen: 100})
	_ = store.Put(ctx, &domain.HistoryRecord{Address: "C", FirstSeen: 200, LastSeen: 200})

	all, _ := store.All(ctx)
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].Address != "A" || all[1].Address != "C" || all[2].Address != "B" {
		t.Errorf("records not ordered by first_seen: %v %v %v",
			all[0].Address, all[1].Address, all[2].Address)
	}
}

func TestHistoryStore_Prune(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	_ = store.Put(ctx, &domain.HistoryRecord{Address: "old", FirstSeen: 1, LastSeen: 100})
	_ = store.Put(ctx, &domain.HistoryRecord{Address: "fresh", FirstSeen: 1, LastSeen: 900})

	removed, err := store.Prune(ctx, 500)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := store.Get(ctx, "old"); !errors.Is(err, storage.ErrNotFound) {
		t.Error("pruned record still present")
	}
	if _, err := store.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh record should survive prune: %v", err)
	}
}

func TestHistoryStore_PutInvalid(t *testing.T) {
	store := NewHistoryStore()

	if err := store.Put(context.Background(), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil record, got %v", err)
	}
	if err := store.Put(context.Background(), &domain.HistoryRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty address, got %v", err)
	}
}
