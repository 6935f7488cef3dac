package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/infrastructure/circuitbreaker"
)

const (
	apiVersion       = "2023-06-01"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
)

// Client completes dialogue turns through the Messages API.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	maxTokens    int
	temperature  float64
	systemPrompt string
	httpClient   *circuitbreaker.HTTPClient
	log          *zap.Logger
}

type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
}

func NewClient(opts Options, httpClient *circuitbreaker.HTTPClient, log *zap.Logger) *Client {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.anthropic.com/v1"
	}
	return &Client{
		apiKey:       opts.APIKey,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		model:        opts.Model,
		maxTokens:    opts.MaxTokens,
		temperature:  opts.Temperature,
		systemPrompt: opts.SystemPrompt,
		httpClient:   httpClient,
		log:          log,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// buildMessages merges consecutive same-role turns; the API rejects two user
// messages in a row.
func buildMessages(history []domain.Turn, input string) []message {
	msgs := make([]message, 0, len(history)+1)
	appendTurn := func(role, text string) {
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content += "\n\n" + text
			return
		}
		msgs = append(msgs, message{Role: role, Content: text})
	}

	for _, turn := range history {
		role := "user"
		if turn.Role == domain.RoleAssistant {
			role = "assistant"
		}
		appendTurn(role, turn.Text)
	}
	appendTurn("user", input)
	return msgs
}

func (c *Client) Complete(ctx context.Context, history []domain.Turn, input string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("anthropic: API key not configured")
	}

	payload, err := json.Marshal(messagesRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      c.systemPrompt,
		Temperature: c.temperature,
		Messages:    buildMessages(history, input),
	})
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("anthropic: create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic: send request: %w", err)
	}
	defer resp.Body.Close()

	var result messagesResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && result.Error != nil {
			return "", fmt.Errorf("anthropic: API error status %d: %s", resp.StatusCode, result.Error.Message)
		}
		return "", fmt.Errorf("anthropic: API error status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("anthropic: decode response: %w", decodeErr)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic: no text content returned")
	}

	c.log.Debug("Anthropic completion",
		zap.String("model", c.model),
		zap.Int("input_tokens", result.Usage.InputTokens),
		zap.Int("output_tokens", result.Usage.OutputTokens),
		zap.String("stop_reason", result.StopReason),
	)

	return sb.String(), nil
}
