package speech

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/seu-repo/voice-order-assistant/internal/observability/telemetry"
	"github.com/seu-repo/voice-order-assistant/internal/ports"
)

// CachedSynthesizer memoises synthesized audio by text hash.
// Cache failures fall through to the wrapped synthesizer.
type CachedSynthesizer struct {
	next  ports.Synthesizer
	cache ports.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedSynthesizer(next ports.Synthesizer, cache ports.Cache, ttl time.Duration, log *zap.Logger) *CachedSynthesizer {
	return &CachedSynthesizer{next: next, cache: cache, ttl: ttl, log: log}
}

func CacheKey(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return "tts:" + hex.EncodeToString(sum[:])
}

func (s *CachedSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	key := CacheKey(text)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		if audio, err := base64.StdEncoding.DecodeString(cached); err == nil {
			telemetry.SpeechRequestsTotal.WithLabelValues("tts", "cache_hit").Inc()
			return audio, nil
		}
		s.log.Warn("Discarding undecodable cached audio", zap.String("key", key))
	}

	audio, err := s.next.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, base64.StdEncoding.EncodeToString(audio), s.ttl); err != nil {
		s.log.Warn("Failed to cache synthesized audio", zap.String("key", key), zap.Error(err))
	}
	return audio, nil
}
