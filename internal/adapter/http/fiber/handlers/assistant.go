package handlers

import (
	"context"
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/service/assistant"
)

// Assistant is the turn pipeline as seen by the HTTP and websocket adapters.
type Assistant interface {
	HandleText(ctx context.Context, userID, text string) (*domain.TurnResult, error)
	HandleVoice(ctx context.Context, userID string, audio []byte, contentType string) (*domain.TurnResult, error)
	Clear(ctx context.Context, userID string) error
	History(ctx context.Context, userID string) ([]domain.Turn, error)
	OrderLog() []domain.OrderLogEntry
	BackendOrders(ctx context.Context) string
}

type AssistantHandler struct {
	assistant Assistant
	log       *zap.Logger
}

func NewAssistantHandler(a Assistant, log *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistant: a,
		log:       log,
	}
}

func (h *AssistantHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/turns/text", h.Text)
	router.Post("/turns/voice", h.Voice)
	router.Delete("/sessions/me", h.Clear)
	router.Get("/sessions/me/history", h.History)
	router.Get("/orders/log", h.OrderLog)
	router.Get("/orders/backend", h.BackendOrders)
}

type TextTurnRequest struct {
	Text string `json:"text"`
}

type VoiceTurnRequest struct {
	Audio       string `json:"audio"` // Base64
	ContentType string `json:"content_type"`
}

func (h *AssistantHandler) Text(c *fiber.Ctx) error {
	var req TextTurnRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	result, err := h.assistant.HandleText(c.UserContext(), middleware.UserID(c), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *AssistantHandler) Voice(c *fiber.Ctx) error {
	var req VoiceTurnRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid body"})
	}

	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid base64 audio"})
	}

	result, err := h.assistant.HandleVoice(c.UserContext(), middleware.UserID(c), audio, req.ContentType)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *AssistantHandler) Clear(c *fiber.Ctx) error {
	if err := h.assistant.Clear(c.UserContext(), middleware.UserID(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": assistant.MsgCleared})
}

func (h *AssistantHandler) History(c *fiber.Ctx) error {
	turns, err := h.assistant.History(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	return c.JSON(turns)
}

func (h *AssistantHandler) OrderLog(c *fiber.Ctx) error {
	entries := h.assistant.OrderLog()
	return c.JSON(fiber.Map{
		"entries":   entries,
		"formatted": assistant.FormatOrderLog(entries),
	})
}

func (h *AssistantHandler) BackendOrders(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"formatted": h.assistant.BackendOrders(c.UserContext())})
}
