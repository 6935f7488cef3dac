package websocket

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/service/assistant"
)

const (
	MessageText           = "text"
	MessageClear          = "clear"
	MessageTurn           = "turn"
	MessageCleared        = "cleared"
	MessageError          = "error"
	MessageOrderConfirmed = "order_confirmed"

	defaultAudioContentType = "audio/wav"
)

// Message is the JSON frame exchanged on /ws/chat in both directions.
type Message struct {
	Type      string                    `json:"type"`
	Text      string                    `json:"text,omitempty"`
	Status    string                    `json:"status,omitempty"`
	Result    *domain.TurnResult        `json:"result,omitempty"`
	Order     *domain.OrderConfirmation `json:"order,omitempty"`
	Error     string                    `json:"error,omitempty"`
	ErrorKind string                    `json:"error_kind,omitempty"`
}

// TurnHandler is the slice of the assistant the chat stream drives.
type TurnHandler interface {
	HandleText(ctx context.Context, userID, text string) (*domain.TurnResult, error)
	HandleVoice(ctx context.Context, userID string, audio []byte, contentType string) (*domain.TurnResult, error)
	Clear(ctx context.Context, userID string) error
}

type ChatStreamHandler struct {
	assistant TurnHandler
	hub       *Hub
	logger    *zap.Logger
}

func NewChatStreamHandler(a TurnHandler, hub *Hub, logger *zap.Logger) *ChatStreamHandler {
	return &ChatStreamHandler{
		assistant: a,
		hub:       hub,
		logger:    logger,
	}
}

// HandleChat runs one chat connection. Text frames carry Message JSON, binary frames
// carry audio for a voice turn.
func (h *ChatStreamHandler) HandleChat(c *websocket.Conn) {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		userID = domain.DefaultUserID
	}
	contentType := c.Query("content_type", defaultAudioContentType)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := h.hub.Register(c, userID)
	defer h.hub.Unregister(client)

	h.logger.Info("Chat stream opened", zap.String("user_id", userID))

	for {
		messageType, data, err := c.ReadMessage()
		if err != nil {
			h.logger.Debug("Chat stream closed", zap.String("user_id", userID), zap.Error(err))
			return
		}

		var reply Message
		switch messageType {
		case websocket.BinaryMessage:
			reply = h.turn(h.assistant.HandleVoice(ctx, userID, data, contentType))
		case websocket.TextMessage:
			var in Message
			if err := json.Unmarshal(data, &in); err != nil {
				reply = Message{Type: MessageError, Error: "Invalid message"}
				break
			}
			switch in.Type {
			case MessageClear:
				if err := h.assistant.Clear(ctx, userID); err != nil {
					reply = Message{Type: MessageError, Error: err.Error()}
					break
				}
				reply = Message{Type: MessageCleared, Status: assistant.MsgCleared}
			case MessageText, "":
				reply = h.turn(h.assistant.HandleText(ctx, userID, in.Text))
			default:
				reply = Message{Type: MessageError, Error: "Unknown message type: " + in.Type}
			}
		default:
			continue
		}

		out, err := json.Marshal(reply)
		if err != nil {
			h.logger.Error("Failed to encode chat reply", zap.Error(err))
			continue
		}
		client.Send(out)
	}
}

func (h *ChatStreamHandler) turn(result *domain.TurnResult, err error) Message {
	if err != nil {
		return Message{Type: MessageError, Error: domain.UserMessage(err), ErrorKind: domain.ErrorKind(err)}
	}
	return Message{Type: MessageTurn, Result: result}
}

// SetupChatRoutes mounts the chat stream on /ws/chat.
func SetupChatRoutes(router fiber.Router, handler *ChatStreamHandler) {
	router.Use("/ws/chat", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws/chat", websocket.New(handler.HandleChat))
}
