package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/voice-order-assistant/internal/observability/telemetry"
	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

// Synthesizer converts reply text to speech with the ElevenLabs text-to-speech API.
type Synthesizer struct {
	cfg  config.TTSConfig
	http *circuitbreaker.HTTPClient
	log  *zap.Logger
}

func NewSynthesizer(cfg config.TTSConfig, httpClient *circuitbreaker.HTTPClient, log *zap.Logger) *Synthesizer {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Synthesizer{cfg: cfg, http: httpClient, log: log}
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
	Speed           float64 `json:"speed"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// MimeType derives the content type from the configured output format.
func (s *Synthesizer) MimeType() string {
	switch {
	case strings.HasPrefix(s.cfg.OutputFormat, "pcm"):
		return "audio/pcm"
	case strings.HasPrefix(s.cfg.OutputFormat, "ulaw"):
		return "audio/basic"
	default:
		return "audio/mpeg"
	}
}

func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.cfg.APIKey == "" {
		return nil, fmt.Errorf("elevenlabs: API key not configured")
	}

	payload, err := json.Marshal(speechRequest{
		Text:    text,
		ModelID: s.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       s.cfg.Voice.Stability,
			SimilarityBoost: s.cfg.Voice.SimilarityBoost,
			Style:           s.cfg.Voice.Style,
			UseSpeakerBoost: s.cfg.Voice.UseSpeakerBoost,
			Speed:           s.cfg.Voice.Speed,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s",
		s.cfg.BaseURL, url.PathEscape(s.cfg.VoiceID), url.QueryEscape(s.cfg.OutputFormat))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create request: %w", err)
	}
	req.Header.Set("xi-api-key", s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", s.MimeType())

	resp, err := s.http.Do(req)
	if err != nil {
		telemetry.SpeechRequestsTotal.WithLabelValues("tts", "error").Inc()
		return nil, fmt.Errorf("elevenlabs: send request: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.SpeechRequestsTotal.WithLabelValues("tts", "error").Inc()
		return nil, fmt.Errorf("elevenlabs: read audio: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		telemetry.SpeechRequestsTotal.WithLabelValues("tts", "error").Inc()
		return nil, fmt.Errorf("elevenlabs: status %d: %s", resp.StatusCode, truncate(string(audio), 200))
	}

	telemetry.SpeechRequestsTotal.WithLabelValues("tts", "success").Inc()
	s.log.Debug("Speech synthesized", zap.Int("text_len", len(text)), zap.Int("audio_bytes", len(audio)))
	return audio, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
