package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/adapter/ai/anthropic"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/ai/gemini"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/ai/openai"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/backend"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/cache"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/queue"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/speech"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/speech/elevenlabs"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/speech/huggingface"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/storage"
	"github.com/seu-repo/voice-order-assistant/internal/adapter/vault"
	wsAdapter "github.com/seu-repo/voice-order-assistant/internal/adapter/websocket"
	"github.com/seu-repo/voice-order-assistant/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/voice-order-assistant/internal/infrastructure/redisconn"
	"github.com/seu-repo/voice-order-assistant/internal/observability/logging"
	"github.com/seu-repo/voice-order-assistant/internal/observability/telemetry"
	"github.com/seu-repo/voice-order-assistant/internal/ports"
	"github.com/seu-repo/voice-order-assistant/internal/service/assistant"
	"github.com/seu-repo/voice-order-assistant/internal/service/dialogue"
	"github.com/seu-repo/voice-order-assistant/internal/service/directive"
	"github.com/seu-repo/voice-order-assistant/internal/service/health"
	"github.com/seu-repo/voice-order-assistant/internal/service/order"
	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

const serviceName = "voice-order-assistant"

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

	logger.Info("Starting voice order assistant",
		zap.String("service", serviceName),
		zap.String("version", cfg.App.Version),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("backend_mode", cfg.Backend.Mode),
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

	healthService := health.NewService(cfg.App.Version, logger)

	// 5. Order submission boundary
	var orders ports.OrderService
	switch cfg.Backend.Mode {
	case "embedded":
		store, events, closeFn := openEmbeddedOrders(ctx, cfg, logger)
		defer closeFn()
		orders = order.NewService(store, events, cfg.Orders.EventTopic, logger)
		healthService.Require("order_store", store.Ping)
		healthService.Report("orders", func() interface{} { return store.Count() })
	default:
		httpClient := circuitbreaker.NewHTTPClientWithSettings(
			cfg.Backend.SubmitTimeout,
			circuitbreaker.SettingsFromConfig("order-backend", cfg.CircuitBreaker),
			logger,
		)
		client := backend.NewClient(cfg.Backend.URL, httpClient, cfg.Backend.SubmitTimeout, cfg.Backend.ListTimeout, logger)
		orders = client
		healthService.Optional("backend", client.Ping)
	}

	// 6. Cache
	var redisClient *redis.Client
	if cfg.Cache.Driver == "redis" {
		redisClient, err = redisconn.Open(ctx, cfg.Redis.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
	}
	audioCache, err := cache.New(cfg.Cache, redisClient, logger)
	if err != nil {
		logger.Fatal("Failed to create cache", zap.Error(err))
	}
	defer audioCache.Close()
	healthService.Optional("cache", func(ctx context.Context) error {
		return audioCache.Ping()
	})

	// 7. Completion provider
	completer := newCompleter(cfg, logger)

	// 8. Speech
	transcriber, synthesizer, mimeType := newSpeech(cfg, audioCache, logger)

	// 9. Dialogue and turn pipeline
	dialogueManager := dialogue.NewManager(completer, logger, dialogue.WithMaxTurns(cfg.Session.MaxHistoryTurns))
	healthService.Report("sessions", func() interface{} { return dialogueManager.Sessions() })

	wsHub := wsAdapter.NewHub(logger)
	go wsHub.Run()
	defer wsHub.Stop()

	turnPipeline := assistant.New(
		dialogueManager,
		directive.NewExtractor(logger),
		orders,
		logger,
		assistant.WithSpeech(transcriber, synthesizer, mimeType),
		assistant.WithNotifier(wsHub),
	)

	// 10. HTTP
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024 * 1024,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.NewCORS(cfg.CORS))

	health.NewFiberHandler(healthService).RegisterRoutes(app)
	app.Get("/metrics", metricsHandler())

	app.Use(middleware.Identity(cfg.JWT, cfg.Session.DefaultUser, logger))

	v1 := app.Group("/api/v1", middleware.RateLimit(cfg.RateLimiting))
	if cfg.CircuitBreaker.Enabled {
		v1.Use(middleware.CircuitBreaker(serviceName, cfg.CircuitBreaker, logger))
	}
	handlers.NewAssistantHandler(turnPipeline, logger).RegisterRoutes(v1)

	wsAdapter.SetupChatRoutes(app, wsAdapter.NewChatStreamHandler(turnPipeline, wsHub, logger))

	addr := fmt.Sprintf("%s:%d", cfg.Assistant.Host, cfg.Assistant.Port)
	go func() {
		logger.Info("Starting HTTP Server", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down assistant...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Assistant exited gracefully", zap.Int("orders_confirmed", len(turnPipeline.OrderLog())))
}

func openEmbeddedOrders(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*order.Store, queue.MessageQueue, func()) {
	backendStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open order storage", zap.Error(err))
	}

	store, err := order.NewStore(ctx, backendStore.Snapshots, logger)
	if err != nil {
		logger.Fatal("Failed to load orders", zap.Error(err))
	}

	events, err := queue.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect message queue", zap.Error(err))
	}

	return store, events, func() {
		events.Close()
		backendStore.Close()
	}
}

func newCompleter(cfg *config.Config, logger *zap.Logger) ports.Completer {
	httpClient := circuitbreaker.NewHTTPClientWithSettings(
		cfg.LLM.Timeout,
		circuitbreaker.SettingsFromConfig("llm", cfg.CircuitBreaker),
		logger,
	)

	switch cfg.LLM.Provider {
	case "openai":
		model := cfg.LLM.Model
		if strings.HasPrefix(model, "gemini") {
			model = ""
		}
		return openai.NewClient(openai.Options{
			APIKey:       cfg.OpenAI.APIKey,
			BaseURL:      cfg.OpenAI.BaseURL,
			Model:        model,
			Temperature:  cfg.LLM.Temperature,
			SystemPrompt: assistant.SystemPrompt,
		}, httpClient, logger)

	case "anthropic":
		model := cfg.LLM.Model
		if !strings.HasPrefix(model, "claude") {
			model = ""
		}
		return anthropic.NewClient(anthropic.Options{
			APIKey:       cfg.Anthropic.APIKey,
			BaseURL:      cfg.Anthropic.BaseURL,
			Model:        model,
			MaxTokens:    cfg.Anthropic.MaxTokens,
			Temperature:  cfg.LLM.Temperature,
			SystemPrompt: assistant.SystemPrompt,
		}, httpClient, logger)

	case "gemini-live":
		return gemini.NewLiveClient(cfg.Gemini.LiveURL, gemini.Options{
			APIKey:       cfg.Gemini.APIKey,
			Model:        cfg.LLM.Model,
			Temperature:  cfg.LLM.Temperature,
			SystemPrompt: assistant.SystemPrompt,
		}, logger)

	default:
		return gemini.NewClient(gemini.Options{
			APIKey:       cfg.Gemini.APIKey,
			BaseURL:      cfg.Gemini.BaseURL,
			Model:        cfg.LLM.Model,
			Temperature:  cfg.LLM.Temperature,
			SystemPrompt: assistant.SystemPrompt,
		}, httpClient, logger)
	}
}

func newSpeech(cfg *config.Config, audioCache ports.Cache, logger *zap.Logger) (ports.Transcriber, ports.Synthesizer, string) {
	var transcriber ports.Transcriber
	if cfg.STT.APIKey != "" {
		httpClient := circuitbreaker.NewHTTPClientWithSettings(
			cfg.STT.Timeout,
			circuitbreaker.SettingsFromConfig("stt", cfg.CircuitBreaker),
			logger,
		)
		transcriber = huggingface.NewTranscriber(cfg.STT.APIKey, cfg.STT.BaseURL, cfg.STT.Model, httpClient, logger)
	} else {
		logger.Warn("Speech recognition disabled: no stt.api_key")
	}

	var synthesizer ports.Synthesizer
	var mimeType string
	if cfg.TTS.Enabled && cfg.TTS.APIKey != "" {
		httpClient := circuitbreaker.NewHTTPClientWithSettings(
			cfg.TTS.Timeout,
			circuitbreaker.SettingsFromConfig("tts", cfg.CircuitBreaker),
			logger,
		)
		eleven := elevenlabs.NewSynthesizer(cfg.TTS, httpClient, logger)
		mimeType = eleven.MimeType()
		synthesizer = speech.NewCachedSynthesizer(eleven, audioCache, cfg.Cache.TTSTTL, logger)
	} else {
		logger.Warn("Speech synthesis disabled")
	}

	return transcriber, synthesizer, mimeType
}

func metricsHandler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
