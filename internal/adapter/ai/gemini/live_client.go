package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

// LiveClient completes a turn over the bidirectional Live API with text responses.
// Each Complete call opens its own session so concurrent users never share a stream.
type LiveClient struct {
	apiKey       string
	url          string
	model        string
	temperature  float64
	systemPrompt string
	logger       *zap.Logger
}

func NewLiveClient(url string, opts Options, logger *zap.Logger) *LiveClient {
	return &LiveClient{
		apiKey:       opts.APIKey,
		url:          url,
		model:        opts.Model,
		temperature:  opts.Temperature,
		systemPrompt: opts.SystemPrompt,
		logger:       logger,
	}
}

type liveSetup struct {
	Setup struct {
		Model             string                 `json:"model"`
		GenerationConfig  map[string]interface{} `json:"generation_config"`
		SystemInstruction *content               `json:"system_instruction,omitempty"`
	} `json:"setup"`
}

type liveClientContent struct {
	ClientContent struct {
		Turns        []content `json:"turns"`
		TurnComplete bool      `json:"turn_complete"`
	} `json:"client_content"`
}

// LiveMessage is one server frame of a Live session.
type LiveMessage struct {
	SetupComplete *struct{} `json:"setupComplete,omitempty"`
	ServerContent *struct {
		ModelTurn *struct {
			Parts []struct {
				Text string `json:"text,omitempty"`
			} `json:"parts"`
		} `json:"modelTurn,omitempty"`
		TurnComplete bool `json:"turnComplete"`
	} `json:"serverContent,omitempty"`
}

func (c *LiveClient) Complete(ctx context.Context, history []domain.Turn, input string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini live: API key not configured")
	}

	conn, _, err := websocket.Dial(ctx, c.url+"?key="+c.apiKey, nil)
	if err != nil {
		return "", fmt.Errorf("gemini live: dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "turn complete")
	conn.SetReadLimit(4 << 20)

	var setup liveSetup
	setup.Setup.Model = "models/" + c.model
	setup.Setup.GenerationConfig = map[string]interface{}{
		"response_modalities": []string{"TEXT"},
		"temperature":         c.temperature,
	}
	if c.systemPrompt != "" {
		setup.Setup.SystemInstruction = &content{Parts: []part{{Text: c.systemPrompt}}}
	}
	if err := c.send(ctx, conn, setup); err != nil {
		return "", err
	}

	for {
		msg, err := c.receive(ctx, conn)
		if err != nil {
			return "", err
		}
		if msg.SetupComplete != nil {
			break
		}
	}

	var turn liveClientContent
	turn.ClientContent.Turns = buildContents(history, input)
	turn.ClientContent.TurnComplete = true
	if err := c.send(ctx, conn, turn); err != nil {
		return "", err
	}

	var sb strings.Builder
	for {
		msg, err := c.receive(ctx, conn)
		if err != nil {
			return "", err
		}
		if msg.ServerContent == nil {
			continue
		}
		if msg.ServerContent.ModelTurn != nil {
			for _, p := range msg.ServerContent.ModelTurn.Parts {
				sb.WriteString(p.Text)
			}
		}
		if msg.ServerContent.TurnComplete {
			break
		}
	}

	c.logger.Debug("Gemini Live completion", zap.String("model", c.model), zap.Int("history", len(history)))
	return sb.String(), nil
}

func (c *LiveClient) receive(ctx context.Context, conn *websocket.Conn) (*LiveMessage, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("gemini live: read: %w", err)
	}

	var msg LiveMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("gemini live: decode: %w", err)
	}
	return &msg, nil
}

func (c *LiveClient) send(ctx context.Context, conn *websocket.Conn, msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("gemini live: write: %w", err)
	}
	return nil
}
