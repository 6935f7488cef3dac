package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/adapter/storage/jsonfile"
	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

const DefaultKey = "orders:snapshot"

// Store keeps the snapshot document under a single redis key.
type Store struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

func NewStore(client *redis.Client, key string, log *zap.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{client: client, key: key, log: log}
}

func (s *Store) Load(ctx context.Context) (map[string]domain.Order, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.log.Info("No order snapshot in redis yet, starting empty", zap.String("key", s.key))
		return make(map[string]domain.Order), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return jsonfile.Decode(data)
}

func (s *Store) Save(ctx context.Context, orders map[string]domain.Order) error {
	data, err := jsonfile.Encode(orders)
	if err != nil {
		return fmt.Errorf("encode order snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
