//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	pgstore "github.com/seu-repo/voice-order-assistant/internal/adapter/storage/postgres"
	"github.com/seu-repo/voice-order-assistant/internal/infrastructure/redisconn"
	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB                *gorm.DB
	Redis             *goredis.Client
	PostgresContainer testcontainers.Container
	RedisContainer    testcontainers.Container
	Logger            *zap.Logger
}

var testEnv *TestEnv

// TestMain owns the containers so every test in the package shares one pair.
func TestMain(m *testing.M) {
	code := m.Run()
	teardownTestEnvironment()
	os.Exit(code)
}

// SetupTestEnvironment starts postgres and redis, or connects to DATABASE_URL and
// REDIS_URL when they are set (CI).
func SetupTestEnvironment(t *testing.T) *TestEnv {
	t.Helper()
	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()
	logger, _ := zap.NewDevelopment()

	env := &TestEnv{Logger: logger}

	databaseURL := os.Getenv("DATABASE_URL")
	redisURL := os.Getenv("REDIS_URL")

	if databaseURL == "" {
		container, err := postgres.Run(ctx, "postgres:16-alpine",
			postgres.WithDatabase("orders_test"),
			postgres.WithUsername("orders"),
			postgres.WithPassword("orders_test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			t.Skipf("Postgres container not available: %v", err)
		}
		env.PostgresContainer = container

		databaseURL, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("Failed to get postgres connection string: %v", err)
		}
	}

	if redisURL == "" {
		container, err := redis.Run(ctx, "redis:7-alpine",
			testcontainers.WithWaitStrategy(
				wait.ForLog("Ready to accept connections").
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			t.Skipf("Redis container not available: %v", err)
		}
		env.RedisContainer = container

		redisURL, err = container.ConnectionString(ctx)
		if err != nil {
			t.Fatalf("Failed to get redis connection string: %v", err)
		}
	}

	db, err := pgstore.NewConnection(config.DatabaseConfig{URL: databaseURL, MaxOpenConns: 5}, logger)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}
	if err := pgstore.RunMigrations(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	env.DB = db

	client, err := redisconn.Open(ctx, redisURL, logger)
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	env.Redis = client

	testEnv = env
	return testEnv
}

func teardownTestEnvironment() {
	if testEnv == nil {
		return
	}

	ctx := context.Background()

	if testEnv.DB != nil {
		pgstore.Close(testEnv.DB)
	}
	if testEnv.Redis != nil {
		testEnv.Redis.Close()
	}
	if testEnv.PostgresContainer != nil {
		testEnv.PostgresContainer.Terminate(ctx)
	}
	if testEnv.RedisContainer != nil {
		testEnv.RedisContainer.Terminate(ctx)
	}

	testEnv = nil
}

// CleanDatabase empties the orders table.
func CleanDatabase(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := db.Exec("TRUNCATE TABLE orders").Error; err != nil {
		t.Fatalf("Failed to truncate orders: %v", err)
	}
}

// FlushRedis clears all Redis keys
func FlushRedis(t *testing.T, client *goredis.Client) {
	t.Helper()
	if err := client.FlushAll(context.Background()).Err(); err != nil {
		t.Fatalf("Failed to flush redis: %v", err)
	}
}
