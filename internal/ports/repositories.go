package ports

import (
	"context"
	"time"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

// OrderSnapshotStore persists the complete order collection as one unit.
// Save always receives the full current set; Load returns an empty map when nothing was saved yet.
type OrderSnapshotStore interface {
	Load(ctx context.Context) (map[string]domain.Order, error)
	Save(ctx context.Context, orders map[string]domain.Order) error
	Ping(ctx context.Context) error
}

type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}
