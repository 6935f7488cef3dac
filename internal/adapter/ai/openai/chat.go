package openai

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

// Client provides chat completions from any OpenAI-compatible endpoint.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	temperature  float64
	systemPrompt string
	httpClient   *circuitbreaker.HTTPClient
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
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	return &Client{
		apiKey:       opts.APIKey,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		model:        opts.Model,
		temperature:  opts.Temperature,
		systemPrompt: opts.SystemPrompt,
		httpClient:   httpClient,
		log:          log,
	}
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) messages(history []domain.Turn, input string) []Message {
	msgs := make([]Message, 0, len(history)+2)
	if c.systemPrompt != "" {
		msgs = append(msgs, Message{Role: "system", Content: c.systemPrompt})
	}
	for _, turn := range history {
		msgs = append(msgs, Message{Role: string(turn.Role), Content: turn.Text})
	}
	return append(msgs, Message{Role: "user", Content: input})
}

// Complete sends the history and input as a chat completion request.
func (c *Client) Complete(ctx context.Context, history []domain.Turn, input string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("openai: API key not configured")
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    c.messages(history, input),
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: send request: %w", err)
	}
	defer resp.Body.Close()

	var result chatResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && result.Error != nil {
			return "", fmt.Errorf("openai: API error status %d: %s", resp.StatusCode, result.Error.Message)
		}
		return "", fmt.Errorf("openai: API error status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("openai: decode response: %w", decodeErr)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}

	c.log.Debug("OpenAI completion",
		zap.String("model", c.model),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)

	return result.Choices[0].Message.Content, nil
}
