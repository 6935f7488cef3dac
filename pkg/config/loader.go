package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	return LoadWith(viper.New())
}

// LoadWith reads configuration through v. Tests pass a fresh instance to avoid global state.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("/app/configs")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	v.BindEnv("server.port", "PORT", "APP_SERVER_PORT")
	v.BindEnv("backend.url", "BACKEND_URL", "APP_BACKEND_URL")
	v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	v.BindEnv("nats.url", "NATS_URL", "APP_NATS_URL")
	v.BindEnv("rabbitmq.url", "RABBITMQ_URL", "APP_RABBITMQ_URL")
	v.BindEnv("jwt.secret", "JWT_SECRET", "APP_JWT_SECRET")
	v.BindEnv("gemini.api_key", "GEMINI_API_KEY", "GOOGLE_API_KEY", "APP_GEMINI_API_KEY")
	v.BindEnv("openai.api_key", "OPENAI_API_KEY", "APP_OPENAI_API_KEY")
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY", "APP_ANTHROPIC_API_KEY")
	v.BindEnv("tts.api_key", "ELEVENLABS_API_KEY", "APP_TTS_API_KEY")
	v.BindEnv("stt.api_key", "HUGGINGFACE_API_KEY", "APP_STT_API_KEY")
	v.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	v.BindEnv("vault.address", "VAULT_ADDR", "APP_VAULT_ADDRESS")
	v.BindEnv("logging.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "voice-order-assistant")
	v.SetDefault("app.version", "v1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("assistant.host", "0.0.0.0")
	v.SetDefault("assistant.port", 8080)
	v.SetDefault("grpc.enabled", false)
	v.SetDefault("grpc.port", 5001)
	v.SetDefault("grpc.watch_interval", 10*time.Second)

	v.SetDefault("orders.storage", "file")
	v.SetDefault("orders.file", "orders.json")
	v.SetDefault("orders.redis_key", "orders:snapshot")
	v.SetDefault("orders.event_topic", "orders.created")

	v.SetDefault("backend.mode", "remote")
	v.SetDefault("backend.url", "http://localhost:5000")
	v.SetDefault("backend.submit_timeout", 10*time.Second)
	v.SetDefault("backend.list_timeout", 5*time.Second)

	v.SetDefault("session.default_user", "default_user")
	v.SetDefault("session.max_history_turns", 0)

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "gemini-2.5-flash")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.live_url", "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("anthropic.base_url", "https://api.anthropic.com/v1")
	v.SetDefault("anthropic.max_tokens", 1024)

	v.SetDefault("stt.base_url", "https://api-inference.huggingface.co/models")
	v.SetDefault("stt.model", "openai/whisper-large-v3-turbo")
	v.SetDefault("stt.timeout", 30*time.Second)

	v.SetDefault("tts.enabled", true)
	v.SetDefault("tts.base_url", "https://api.elevenlabs.io/v1")
	v.SetDefault("tts.voice_id", "pNInz6obpgDQGcFmaJgB")
	v.SetDefault("tts.model_id", "eleven_turbo_v2_5")
	v.SetDefault("tts.output_format", "mp3_22050_32")
	v.SetDefault("tts.timeout", 30*time.Second)
	v.SetDefault("tts.voice.stability", 0.0)
	v.SetDefault("tts.voice.similarity_boost", 1.0)
	v.SetDefault("tts.voice.style", 0.0)
	v.SetDefault("tts.voice.use_speaker_boost", true)
	v.SetDefault("tts.voice.speed", 0.8)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("cache.driver", "local")
	v.SetDefault("cache.tts_ttl", 24*time.Hour)
	v.SetDefault("cache.cleanup_interval", time.Minute)
	v.SetDefault("cache.max_entries", 1000)

	v.SetDefault("queue.driver", "memory")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("nats.queue_group", "kitchen")
	v.SetDefault("rabbitmq.exchange", "voice-orders")
	v.SetDefault("rabbitmq.prefetch", 16)
	v.SetDefault("rabbitmq.reconnect_delay", 5*time.Second)

	v.SetDefault("vault.secret_path", "secret/data/voice-order-assistant")

	v.SetDefault("opentelemetry.enabled", false)
	v.SetDefault("opentelemetry.jaeger.endpoint", "http://jaeger:14268/api/traces")
	v.SetDefault("opentelemetry.jaeger.sampler_param", 1.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("rate_limiting.enabled", true)
	v.SetDefault("rate_limiting.max_requests", 60)
	v.SetDefault("rate_limiting.window", time.Minute)

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 0.6)
	v.SetDefault("circuit_breaker.min_requests", 3)

	v.SetDefault("cors.allowed_origins", []string{"*"})
}
