package memory

import (
	"context"
	"errors"
	"testing"

	"betascope/internal/domain"
	"betascope/internal/storage"
)

func TestSnapshotStore_InsertBulkAndGet(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snaps := []*domain.TokenSnapshot{
		{Address: "A", ObservedAt: 200, MarketCap: 2},
		{Address: "A", ObservedAt: 100, MarketCap: 1},
		{Address: "B", ObservedAt: 100, MarketCap: 9},
	}

	if err := store.InsertBulk(ctx, snaps); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByAddress(ctx, "A")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(got))
	}
	if got[0].ObservedAt != 100 || got[1].ObservedAt != 200 {
		t.Error("snapshots not ordered by observed_at ASC")
	}
}

func TestSnapshotStore_DuplicateRejected(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	first := []*domain.TokenSnapshot{{Address: "A", ObservedAt: 100}}
	if err := store.InsertBulk(ctx, first); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	// Same (address, observed_at) again
	err := store.InsertBulk(ctx, []*domain.TokenSnapshot{{Address: "A", ObservedAt: 100}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// Intra-batch duplicate fails the entire batch, storing nothing
	err = store.InsertBulk(ctx, []*domain.TokenSnapshot{
		{Address: "C", ObservedAt: 1},
		{Address: "C", ObservedAt: 1},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	got, _ := store.GetByAddress(ctx, "C")
	if len(got) != 0 {
		t.Error("failed batch must not partially insert")
	}
}

func TestSnapshotStore_GetByTimeRange(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	_ = store.InsertBulk(ctx, []*domain.TokenSnapshot{
		{Address: "A", ObservedAt: 100},
		{Address: "A", ObservedAt: 200},
		{Address: "A", ObservedAt: 300},
	})

	got, err := store.GetByTimeRange(ctx, "A", 100, 200)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 snapshots in range, got %d", len(got))
	}
}
