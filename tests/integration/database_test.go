//go:build integration

package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	pgstore "github.com/seu-repo/voice-order-assistant/internal/adapter/storage/postgres"
	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/service/order"
)

func TestPostgresSnapshotStore_SaveLoad(t *testing.T) {
	env := SetupTestEnvironment(t)
	CleanDatabase(t, env.DB)

	ctx := context.Background()
	store := pgstore.NewOrderSnapshotStore(env.DB, env.Logger)
	created := time.Date(2025, 5, 2, 12, 0, 0, 0, time.UTC)

	t.Run("EmptyTable", func(t *testing.T) {
		orders, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(orders) != 0 {
			t.Errorf("expected empty snapshot, got %d", len(orders))
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		snapshot := map[string]domain.Order{
			"ORD-A": {ID: "ORD-A", Name: "سامي", Items: []string{"برغر", "بطاطا"}, ETAMinutes: 21, Status: domain.OrderStatusConfirmed, CreatedAt: created},
			"ORD-B": {ID: "ORD-B", Name: "Hala", Items: []string{"kebab"}, ETAMinutes: 18, Status: domain.OrderStatusConfirmed, CreatedAt: created},
		}
		if err := store.Save(ctx, snapshot); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(loaded) != 2 {
			t.Fatalf("expected 2 orders, got %d", len(loaded))
		}
		got := loaded["ORD-A"]
		if got.Name != "سامي" || len(got.Items) != 2 || got.Items[0] != "برغر" {
			t.Errorf("unexpected order %+v", got)
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("expected created_at %s, got %s", created, got.CreatedAt)
		}
	})

	t.Run("SaveUpserts", func(t *testing.T) {
		snapshot, _ := store.Load(ctx)
		a := snapshot["ORD-A"]
		a.ETAMinutes = 30
		snapshot["ORD-A"] = a
		snapshot["ORD-C"] = domain.Order{ID: "ORD-C", Name: "Omar", Items: []string{"tea"}, ETAMinutes: 13, Status: domain.OrderStatusConfirmed, CreatedAt: created}

		if err := store.Save(ctx, snapshot); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, _ := store.Load(ctx)
		if len(loaded) != 3 {
			t.Errorf("expected 3 orders, got %d", len(loaded))
		}
		if loaded["ORD-A"].ETAMinutes != 30 {
			t.Errorf("expected updated eta, got %d", loaded["ORD-A"].ETAMinutes)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := store.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}

func TestPostgresSnapshotStore_SurvivesRestart(t *testing.T) {
	env := SetupTestEnvironment(t)
	CleanDatabase(t, env.DB)

	ctx := context.Background()
	snapshots := pgstore.NewOrderSnapshotStore(env.DB, env.Logger)

	first, err := order.NewStore(ctx, snapshots, env.Logger)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := first.Create(ctx, fmt.Sprintf("customer-%d", i), []string{"shawarma"}); err != nil {
				t.Errorf("Create failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	restarted, err := order.NewStore(ctx, snapshots, env.Logger)
	if err != nil {
		t.Fatalf("NewStore after restart failed: %v", err)
	}
	if restarted.Count() != n {
		t.Errorf("expected %d orders after restart, got %d", n, restarted.Count())
	}
}
