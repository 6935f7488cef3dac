package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	grpcserver "github.com/seu-repo/voice-order-assistant/internal/adapter/grpc/server"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/queue"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/storage"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/vault"
	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/observability/logging"
	"github.com/seu-repo/voice-order-assistant/internal/observability/telemetry"
	"github.com/seu-repo/voice-order-assistant/internal/service/health"
	"github.com/seu-repo/voice-order-assistant/internal/service/order"
	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

const serviceName = "order-backend"

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// 2. Initialize Logger
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting order backend",
		zap.String("service", serviceName),
		zap.String("version", cfg.App.Version),
		zap.String("storage", cfg.Orders.Storage),
	)

	ctx := context.Background()

	// 3. Secrets
	if cfg.Vault.Enabled {
		sm, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token, logger)
		if err != nil {
			logger.Fatal("Failed to create Vault client", zap.Error(err))
		}
		if err := sm.LoadAPIKeys(ctx, cfg); err != nil {
			logger.Warn("Failed to load secrets from Vault", zap.Error(err))
		}
	}

	// 4. Tracing
	tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry, serviceName, cfg.App.Version)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// 5. Order snapshot storage
	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open order storage", zap.Error(err))
	}
	defer backend.Close()

	store, err := order.NewStore(ctx, backend.Snapshots, logger)
	if err != nil {
		logger.Fatal("Failed to load orders", zap.Error(err))
	}

	// 6. Order events
	events, err := queue.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect message queue", zap.Error(err))
	}
	defer events.Close()

	if err := startKitchenWorker(events, cfg.Orders.EventTopic, logger); err != nil {
		logger.Fatal("Failed to start kitchen worker", zap.Error(err))
	}

	orderService := order.NewService(store, events, cfg.Orders.EventTopic, logger)

	// 7. Health
	healthService := health.NewService(cfg.App.Version, logger)
	healthService.Require("order_store", store.Ping)
	healthService.Report("orders", func() interface{} { return store.Count() })

	// 8. HTTP
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.NewCORS(cfg.CORS))

	health.NewFiberHandler(healthService).RegisterRoutes(app)
	app.Get("/metrics", metricsHandler())

	api := app.Group("")
	if cfg.CircuitBreaker.Enabled {
		api.Use(middleware.CircuitBreaker(serviceName, cfg.CircuitBreaker, logger))
	}
	handlers.NewOrderHandler(orderService, logger).RegisterRoutes(api)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.Info("Starting HTTP Server", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 9. gRPC health
	var grpcSrv *grpcserver.GRPCServer
	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.GRPC.Port))
		if err != nil {
			logger.Fatal("Failed to listen for gRPC", zap.Error(err))
		}
		grpcSrv = grpcserver.NewGRPCServer(healthService, cfg.GRPC.WatchInterval, logger)
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				logger.Error("gRPC Server failed", zap.Error(err))
			}
		}()
	}

	// 10. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if grpcSrv != nil {
		grpcSrv.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully", zap.Int("orders", store.Count()))
}

func metricsHandler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}

// startKitchenWorker logs a preparation ticket for each created order.
func startKitchenWorker(mq queue.MessageQueue, topic string, logger *zap.Logger) error {
	if topic == "" {
		topic = domain.SubjectOrderCreated
	}
	logger.Info("Starting kitchen worker", zap.String("topic", topic))

	return mq.Subscribe(topic, func(msg []byte) error {
		var event domain.OrderCreatedEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			logger.Warn("Discarding malformed order event", zap.ByteString("msg", msg), zap.Error(err))
			return err
		}

		logger.Info("Kitchen ticket",
			zap.String("order_id", event.OrderID),
			zap.String("name", event.Name),
			zap.Strings("items", event.Items),
			zap.Int("eta_minutes", event.ETAMinutes),
			zap.Time("ready_by", event.CreatedAt.Add(time.Duration(event.ETAMinutes)*time.Minute)),
		)
		return nil
	})
}
