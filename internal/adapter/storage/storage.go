package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/voice-order-assistant/internal/adapter/storage/jsonfile"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/storage/postgres"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/storage/redisstore"
	"github.com/seu-repo/voice-order-assistant/internal/infrastructure/redisconn"
	"github.com/seu-repo/voice-order-assistant/internal/ports"
	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

// Backend is an opened snapshot store plus whatever connection it owns.
type Backend struct {
	Snapshots ports.OrderSnapshotStore
	Redis     *redis.Client
	DB        *gorm.DB
}

// Close releases the connection held by the backend, if any.
func (b *Backend) Close() error {
	if b.Redis != nil {
		return b.Redis.Close()
	}
	if b.DB != nil {
		return postgres.Close(b.DB)
	}
	return nil
}

// Open builds the snapshot store selected by cfg.Orders.Storage.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	switch cfg.Orders.Storage {
	case "file", "":
		log.Info("Using JSON file order storage", zap.String("path", cfg.Orders.File))
		return &Backend{Snapshots: jsonfile.NewStore(cfg.Orders.File, log)}, nil

	case "redis":
		client, err := redisconn.Open(ctx, cfg.Redis.URL, log)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Snapshots: redisstore.NewStore(client, cfg.Orders.RedisKey, log),
			Redis:     client,
		}, nil

	case "postgres":
		db, err := postgres.NewConnection(cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(db); err != nil {
				postgres.Close(db)
				return nil, fmt.Errorf("migrate orders table: %w", err)
			}
		}
		return &Backend{
			Snapshots: postgres.NewOrderSnapshotStore(db, log),
			DB:        db,
		}, nil

	default:
		return nil, fmt.Errorf("unknown orders.storage %q", cfg.Orders.Storage)
	}
}
