package cache

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/ports"
	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

// ErrMiss is returned by Get for absent or expired keys.
var ErrMiss = errors.New("cache: miss")

// New builds the cache named by cfg.Driver. client is only required for the redis driver.
func New(cfg config.CacheConfig, client *redis.Client, log *zap.Logger) (ports.Cache, error) {
	switch cfg.Driver {
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("cache: redis driver selected without a redis client")
		}
		return NewRedisCache(client, log), nil
	case "local", "":
		return NewLocalCache(cfg.CleanupInterval, cfg.MaxEntries, log), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}
