package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/infrastructure/circuitbreaker"
)

// Client calls the generateContent REST endpoint.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	temperature  float64
	systemPrompt string
	http         *circuitbreaker.HTTPClient
	log          *zap.Logger
}

type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float64
	SystemPrompt string
}

func NewClient(opts Options, httpClient *circuitbreaker.HTTPClient, log *zap.Logger) *Client {
	return &Client{
		apiKey:       opts.APIKey,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		model:        opts.Model,
		temperature:  opts.Temperature,
		systemPrompt: opts.SystemPrompt,
		http:         httpClient,
		log:          log,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// role maps dialogue roles onto Gemini's user/model roles.
func role(r domain.Role) string {
	if r == domain.RoleAssistant {
		return "model"
	}
	return "user"
}

// buildContents renders history plus the new input as Gemini turns.
func buildContents(history []domain.Turn, input string) []content {
	contents := make([]content, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, content{Role: role(turn.Role), Parts: []part{{Text: turn.Text}}})
	}
	return append(contents, content{Role: "user", Parts: []part{{Text: input}}})
}

func (c *Client) Complete(ctx context.Context, history []domain.Turn, input string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini: API key not configured")
	}

	reqBody := generateRequest{
		Contents:         buildContents(history, input),
		GenerationConfig: generationConfig{Temperature: c.temperature},
	}
	if c.systemPrompt != "" {
		reqBody.SystemInstruction = &content{Parts: []part{{Text: c.systemPrompt}}}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("gemini: decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if result.Error != nil {
			return "", fmt.Errorf("gemini: API error %d: %s", resp.StatusCode, result.Error.Message)
		}
		return "", fmt.Errorf("gemini: API error status %d", resp.StatusCode)
	}
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates returned")
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}

	c.log.Debug("Gemini completion",
		zap.String("model", c.model),
		zap.Int("history", len(history)),
		zap.Duration("latency", time.Since(start)),
		zap.String("finish_reason", result.Candidates[0].FinishReason),
	)

	return sb.String(), nil
}
