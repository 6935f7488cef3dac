package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

type SecretManager struct {
	client *api.Client
	log    *zap.Logger
}

func NewSecretManager(address, token string, log *zap.Logger) (*SecretManager, error) {
	cfg := api.DefaultConfig()
	cfg.Address = address

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)

	return &SecretManager{client: client, log: log}, nil
}

// ReadKV reads the data map of a KV v2 secret at path.
func (sm *SecretManager) ReadKV(ctx context.Context, path string) (map[string]string, error) {
	secret, err := sm.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("vault: read %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("vault: secret %s not found", path)
	}

	raw, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("vault: secret %s has no data field", path)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}

// LoadAPIKeys fills credentials that the configuration left empty.
// Keys already set through file or environment win over Vault.
func (sm *SecretManager) LoadAPIKeys(ctx context.Context, cfg *config.Config) error {
	data, err := sm.ReadKV(ctx, cfg.Vault.SecretPath)
	if err != nil {
		return err
	}

	fill := func(dst *string, key string) {
		if *dst == "" && data[key] != "" {
			*dst = data[key]
			sm.log.Info("Loaded secret from Vault", zap.String("key", key))
		}
	}

	fill(&cfg.Gemini.APIKey, "gemini_api_key")
	fill(&cfg.OpenAI.APIKey, "openai_api_key")
	fill(&cfg.Anthropic.APIKey, "anthropic_api_key")
	fill(&cfg.TTS.APIKey, "elevenlabs_api_key")
	fill(&cfg.STT.APIKey, "huggingface_api_key")
	fill(&cfg.JWT.Secret, "jwt_secret")
	fill(&cfg.Database.URL, "database_url")
	fill(&cfg.Redis.URL, "redis_url")

	return nil
}
