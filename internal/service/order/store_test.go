package order

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func TestComputeETA(t *testing.T) {
	tests := []struct {
		items     int
		variation int
		want      int
	}{
		{items: 1, variation: 0, want: 18},
		{items: 2, variation: 10, want: 31},
		{items: 1, variation: -5, want: 13},
		{items: 0, variation: -5, want: 10},
		{items: 5, variation: -5, want: 25},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d items variation %d", tt.items, tt.variation), func(t *testing.T) {
			if got := ComputeETA(tt.items, tt.variation); got != tt.want {
				t.Errorf("expected eta %d, got %d", tt.want, got)
			}
		})
	}
}

func TestStoreCreate_UsesInjectedVariation(t *testing.T) {
	// Arrange
	ctx := context.Background()
	snapshots := mocks.NewMockSnapshotStore()
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	store, err := NewStore(ctx, snapshots, newTestLogger(),
		WithVariation(func() int { return 7 }),
		WithClock(func() time.Time { return fixed }),
	)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	// Act
	order, err := store.Create(ctx, "Sami", []string{"burger", "fries"})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if order.ETAMinutes != 15+3*2+7 {
		t.Errorf("expected eta %d, got %d", 15+3*2+7, order.ETAMinutes)
	}
	if order.Status != domain.OrderStatusConfirmed {
		t.Errorf("expected status confirmed, got %s", order.Status)
	}
	if !order.CreatedAt.Equal(fixed) {
		t.Errorf("expected created_at %s, got %s", fixed, order.CreatedAt)
	}
	if snapshots.SavedCount() != 1 {
		t.Errorf("expected snapshot with 1 order, got %d", snapshots.SavedCount())
	}
}

func TestStoreCreate_ETAWithinBoundsForRandomDraws(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(ctx, mocks.NewMockSnapshotStore(), zap.NewNop(),
		WithRand(rand.New(rand.NewSource(42))),
	)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	for n := 1; n <= 6; n++ {
		items := make([]string, n)
		for i := range items {
			items[i] = fmt.Sprintf("item-%d", i)
		}
		for i := 0; i < 20; i++ {
			order, _ := store.Create(ctx, "Lina", items)
			low := ComputeETA(n, MinVariation)
			high := ComputeETA(n, MaxVariation)
			if order.ETAMinutes < low || order.ETAMinutes > high {
				t.Fatalf("eta %d outside [%d, %d] for %d items", order.ETAMinutes, low, high, n)
			}
			if order.ETAMinutes < MinimumETAMinutes {
				t.Fatalf("eta %d below minimum", order.ETAMinutes)
			}
		}
	}
}

func TestStoreCreate_ConcurrentCreatesLoseNoWrites(t *testing.T) {
	// Arrange
	ctx := context.Background()
	snapshots := mocks.NewMockSnapshotStore()
	store, err := NewStore(ctx, snapshots, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan string, n)

	// Act
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order, err := store.Create(ctx, fmt.Sprintf("customer-%d", i), []string{"shawarma"})
			if err != nil {
				t.Errorf("Create %d failed: %v", i, err)
				return
			}
			ids <- order.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	// Assert
	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate order id %s", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d unique ids, got %d", n, len(seen))
	}
	if store.Count() != n {
		t.Errorf("expected %d orders in store, got %d", n, store.Count())
	}
	if snapshots.SavedCount() != n {
		t.Errorf("expected last snapshot to hold %d orders, got %d", n, snapshots.SavedCount())
	}
}

func TestNewStore_LoadsPriorSnapshot(t *testing.T) {
	ctx := context.Background()
	snapshots := mocks.NewMockSnapshotStore()
	snapshots.Saved = map[string]domain.Order{
		"ORD-A": {ID: "ORD-A", Name: "Rami", Items: []string{"falafel"}, ETAMinutes: 18, Status: domain.OrderStatusConfirmed},
		"ORD-B": {ID: "ORD-B", Name: "Hala", Items: []string{"kebab"}, ETAMinutes: 20, Status: domain.OrderStatusConfirmed},
		"ORD-C": {ID: "ORD-C", Name: "Omar", Items: []string{"tea"}, ETAMinutes: 12, Status: domain.OrderStatusConfirmed},
	}

	store, err := NewStore(ctx, snapshots, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	if got := len(store.GetAll()); got != 3 {
		t.Errorf("expected 3 orders after restart, got %d", got)
	}
}

func TestNewStore_LoadFailure(t *testing.T) {
	snapshots := mocks.NewMockSnapshotStore()
	snapshots.LoadFunc = func(ctx context.Context) (map[string]domain.Order, error) {
		return nil, errors.New("corrupt snapshot")
	}

	_, err := NewStore(context.Background(), snapshots, zap.NewNop())
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestStoreCreate_PersistFailureKeepsOrder(t *testing.T) {
	// Arrange
	ctx := context.Background()
	snapshots := mocks.NewMockSnapshotStore()
	snapshots.SaveFunc = func(ctx context.Context, orders map[string]domain.Order) error {
		return errors.New("disk full")
	}
	store, _ := NewStore(ctx, snapshots, zap.NewNop())

	// Act
	order, err := store.Create(ctx, "Sami", []string{"burger"})

	// Assert
	var storeErr *domain.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if order.ID == "" {
		t.Fatal("expected order to be returned alongside the store error")
	}
	if _, ok := store.Get(order.ID); !ok {
		t.Error("expected order to remain queryable in memory")
	}
}

func TestStore_ReturnedOrdersAreCopies(t *testing.T) {
	ctx := context.Background()
	store, _ := NewStore(ctx, mocks.NewMockSnapshotStore(), zap.NewNop())

	order, _ := store.Create(ctx, "Sami", []string{"burger"})
	order.Items[0] = "mutated"

	stored, _ := store.Get(order.ID)
	if stored.Items[0] != "burger" {
		t.Errorf("expected stored items to be unaffected, got %v", stored.Items)
	}
}

func TestNewOrderID_Format(t *testing.T) {
	now := time.Unix(1700001234, 0)
	id := NewOrderID(now)

	var random string
	var suffix int
	if _, err := fmt.Sscanf(id, "ORD-%8s-%04d", &random, &suffix); err != nil {
		t.Fatalf("unexpected id format %q: %v", id, err)
	}
	if suffix != 1234 {
		t.Errorf("expected time component 1234, got %d", suffix)
	}
}
