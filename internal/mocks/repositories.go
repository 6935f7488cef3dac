package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

// MockSnapshotStore is an in-memory OrderSnapshotStore that records every Save.
type MockSnapshotStore struct {
	mu        sync.Mutex
	Saved     map[string]domain.Order
	SaveCalls int

	LoadFunc func(ctx context.Context) (map[string]domain.Order, error)
	SaveFunc func(ctx context.Context, orders map[string]domain.Order) error
	PingFunc func(ctx context.Context) error
}

func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{Saved: make(map[string]domain.Order)}
}

func (m *MockSnapshotStore) Load(ctx context.Context) (map[string]domain.Order, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]domain.Order, len(m.Saved))
	for k, v := range m.Saved {
		out[k] = v
	}
	return out, nil
}

func (m *MockSnapshotStore) Save(ctx context.Context, orders map[string]domain.Order) error {
	m.mu.Lock()
	m.SaveCalls++
	m.mu.Unlock()

	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, orders)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saved = orders
	return nil
}

func (m *MockSnapshotStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// SavedCount returns the number of orders in the last successful Save.
func (m *MockSnapshotStore) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Saved)
}
