package config

import (
	"fmt"
	"time"
)

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	Server         ServerConfig         `mapstructure:"server"`
	Assistant      AssistantConfig      `mapstructure:"assistant"`
	GRPC           GRPCConfig           `mapstructure:"grpc"`
	Orders         OrdersConfig         `mapstructure:"orders"`
	Backend        BackendConfig        `mapstructure:"backend"`
	Session        SessionConfig        `mapstructure:"session"`
	LLM            LLMConfig            `mapstructure:"llm"`
	Gemini         GeminiConfig         `mapstructure:"gemini"`
	OpenAI         OpenAIConfig         `mapstructure:"openai"`
	Anthropic      AnthropicConfig      `mapstructure:"anthropic"`
	STT            STTConfig            `mapstructure:"stt"`
	TTS            TTSConfig            `mapstructure:"tts"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Queue          QueueConfig          `mapstructure:"queue"`
	NATS           NATSConfig           `mapstructure:"nats"`
	RabbitMQ       RabbitMQConfig       `mapstructure:"rabbitmq"`
	JWT            JWTConfig            `mapstructure:"jwt"`
	Vault          VaultConfig          `mapstructure:"vault"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	RateLimiting   RateLimitingConfig   `mapstructure:"rate_limiting"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig is the order backend HTTP listener.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// AssistantConfig is the dialogue pipeline HTTP listener.
type AssistantConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type OrdersConfig struct {
	Storage    string `mapstructure:"storage"` // file | redis | postgres
	File       string `mapstructure:"file"`
	RedisKey   string `mapstructure:"redis_key"`
	EventTopic string `mapstructure:"event_topic"`
}

type BackendConfig struct {
	Mode          string        `mapstructure:"mode"` // remote | embedded
	URL           string        `mapstructure:"url"`
	SubmitTimeout time.Duration `mapstructure:"submit_timeout"`
	ListTimeout   time.Duration `mapstructure:"list_timeout"`
}

type SessionConfig struct {
	DefaultUser     string `mapstructure:"default_user"`
	MaxHistoryTurns int    `mapstructure:"max_history_turns"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // gemini | gemini-live | openai | anthropic
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	LiveURL string `mapstructure:"live_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

type STTConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TTSConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	VoiceID      string        `mapstructure:"voice_id"`
	ModelID      string        `mapstructure:"model_id"`
	OutputFormat string        `mapstructure:"output_format"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Voice        VoiceSettings `mapstructure:"voice"`
}

type VoiceSettings struct {
	Stability       float64 `mapstructure:"stability"`
	SimilarityBoost float64 `mapstructure:"similarity_boost"`
	Style           float64 `mapstructure:"style"`
	UseSpeakerBoost bool    `mapstructure:"use_speaker_boost"`
	Speed           float64 `mapstructure:"speed"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type CacheConfig struct {
	Driver          string        `mapstructure:"driver"` // local | redis
	TTSTTL          time.Duration `mapstructure:"tts_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	MaxEntries      int           `mapstructure:"max_entries"`
}

type QueueConfig struct {
	Driver string `mapstructure:"driver"` // memory | nats | rabbitmq
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	QueueGroup    string        `mapstructure:"queue_group"`
}

type RabbitMQConfig struct {
	URL            string        `mapstructure:"url"`
	Exchange       string        `mapstructure:"exchange"`
	Prefetch       int           `mapstructure:"prefetch"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type VaultConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	SecretPath string `mapstructure:"secret_path"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
	ServiceName string       `mapstructure:"service_name"`
}

type JaegerConfig struct {
	Endpoint     string  `mapstructure:"endpoint"`
	SamplerParam float64 `mapstructure:"sampler_param"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

type RateLimitingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
	MinRequests      uint32        `mapstructure:"min_requests"`
}

// GRPCConfig controls the grpc.health.v1 endpoint of the order backend.
type GRPCConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Port          int           `mapstructure:"port"`
	WatchInterval time.Duration `mapstructure:"watch_interval"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}

// Validate rejects configurations no process could start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Assistant.Port <= 0 || c.Assistant.Port > 65535 {
		return fmt.Errorf("assistant.port out of range: %d", c.Assistant.Port)
	}
	if c.GRPC.Enabled && (c.GRPC.Port <= 0 || c.GRPC.Port > 65535) {
		return fmt.Errorf("grpc.port out of range: %d", c.GRPC.Port)
	}

	switch c.Orders.Storage {
	case "file":
		if c.Orders.File == "" {
			return fmt.Errorf("orders.file is required for file storage")
		}
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url is required for redis order storage")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for postgres order storage")
		}
	default:
		return fmt.Errorf("unknown orders.storage %q", c.Orders.Storage)
	}

	switch c.Backend.Mode {
	case "remote":
		if c.Backend.URL == "" {
			return fmt.Errorf("backend.url is required in remote mode")
		}
	case "embedded":
	default:
		return fmt.Errorf("unknown backend.mode %q", c.Backend.Mode)
	}

	switch c.LLM.Provider {
	case "gemini", "gemini-live", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}

	switch c.Cache.Driver {
	case "local", "redis":
	default:
		return fmt.Errorf("unknown cache.driver %q", c.Cache.Driver)
	}

	switch c.Queue.Driver {
	case "memory", "nats", "rabbitmq":
	default:
		return fmt.Errorf("unknown queue.driver %q", c.Queue.Driver)
	}

	if c.Session.MaxHistoryTurns < 0 {
		return fmt.Errorf("session.max_history_turns must not be negative")
	}

	return nil
}
