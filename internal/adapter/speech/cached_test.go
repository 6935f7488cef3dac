package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/mocks"
)

func TestCachedSynthesizer_HitSkipsProvider(t *testing.T) {
	// Arrange
	next := &mocks.MockSynthesizer{}
	cache := mocks.NewMockCache()
	synth := NewCachedSynthesizer(next, cache, time.Hour, zap.NewNop())
	ctx := context.Background()

	// Act
	first, err := synth.Synthesize(ctx, "أهلاً")
	if err != nil {
		t.Fatalf("first Synthesize failed: %v", err)
	}
	second, err := synth.Synthesize(ctx, "أهلاً")
	if err != nil {
		t.Fatalf("second Synthesize failed: %v", err)
	}

	// Assert
	if next.Calls != 1 {
		t.Errorf("expected provider to be called once, got %d", next.Calls)
	}
	if string(first) != string(second) {
		t.Error("expected cached audio to match")
	}
	stored, _ := cache.Get(ctx, CacheKey("أهلاً"))
	if stored != base64.StdEncoding.EncodeToString(first) {
		t.Error("expected base64 audio in cache")
	}
	if ttl, _ := cache.TTL(CacheKey("أهلاً")); ttl != time.Hour {
		t.Errorf("expected entry stored for 1h, got %s", ttl)
	}
}

func TestCachedSynthesizer_CacheFailureFallsThrough(t *testing.T) {
	next := &mocks.MockSynthesizer{}
	cache := mocks.NewMockCache()
	cache.GetFunc = func(ctx context.Context, key string) (string, error) {
		return "", errors.New("redis down")
	}
	cache.SetFunc = func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
		return errors.New("redis down")
	}
	synth := NewCachedSynthesizer(next, cache, time.Hour, zap.NewNop())

	audio, err := synth.Synthesize(context.Background(), "hi")

	if err != nil || string(audio) != "audio:hi" {
		t.Errorf("expected provider audio, got %q (%v)", audio, err)
	}
}

func TestCachedSynthesizer_ProviderErrorNotCached(t *testing.T) {
	next := &mocks.MockSynthesizer{
		SynthesizeFunc: func(ctx context.Context, text string) ([]byte, error) {
			return nil, errors.New("quota")
		},
	}
	cache := mocks.NewMockCache()
	synth := NewCachedSynthesizer(next, cache, time.Hour, zap.NewNop())

	if _, err := synth.Synthesize(context.Background(), "hi"); err == nil {
		t.Error("expected provider error")
	}
	if cache.Len() != 0 {
		t.Error("expected nothing cached")
	}
}

func TestCacheKey(t *testing.T) {
	if CacheKey("a") == CacheKey("b") {
		t.Error("expected distinct keys for distinct text")
	}
	if len(CacheKey("a")) != len("tts:")+64 {
		t.Errorf("unexpected key length %d", len(CacheKey("a")))
	}
}
