package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/voice-order-assistant/internal/observability/telemetry"
)

// Transcriber posts raw audio to a hosted Whisper model.
type Transcriber struct {
	apiKey string
	url    string
	http   *circuitbreaker.HTTPClient
	log    *zap.Logger
}

func NewTranscriber(apiKey, baseURL, model string, httpClient *circuitbreaker.HTTPClient, log *zap.Logger) *Transcriber {
	return &Transcriber{
		apiKey: apiKey,
		url:    strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(model, "/"),
		http:   httpClient,
		log:    log,
	}
}

type transcription struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Transcribe returns the recognised text. A response without text yields "".
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}
	if contentType == "" {
		contentType = "audio/wav"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("huggingface: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := t.http.Do(req)
	if err != nil {
		telemetry.SpeechRequestsTotal.WithLabelValues("stt", "error").Inc()
		return "", fmt.Errorf("huggingface: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.SpeechRequestsTotal.WithLabelValues("stt", "error").Inc()
		return "", fmt.Errorf("huggingface: read response: %w", err)
	}

	var result transcription
	decodeErr := json.Unmarshal(body, &result)

	if resp.StatusCode != http.StatusOK {
		telemetry.SpeechRequestsTotal.WithLabelValues("stt", "error").Inc()
		if decodeErr == nil && result.Error != "" {
			return "", fmt.Errorf("huggingface: status %d: %s", resp.StatusCode, result.Error)
		}
		return "", fmt.Errorf("huggingface: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		telemetry.SpeechRequestsTotal.WithLabelValues("stt", "error").Inc()
		return "", fmt.Errorf("huggingface: decode response: %w", decodeErr)
	}

	telemetry.SpeechRequestsTotal.WithLabelValues("stt", "success").Inc()
	t.log.Debug("Audio transcribed", zap.Int("audio_bytes", len(audio)), zap.Int("text_len", len(result.Text)))
	return strings.TrimSpace(result.Text), nil
}
