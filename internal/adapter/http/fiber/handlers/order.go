package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/internal/ports"
)

// OrderHandler exposes the order backend contract.
type OrderHandler struct {
	orders ports.OrderService
	log    *zap.Logger
}

func NewOrderHandler(orders ports.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		log:    log,
	}
}

func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/submit-order", h.Submit)
	router.Get("/orders", h.List)
	router.Get("/orders/:id", h.Get)
}

type SubmitOrderRequest struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

func (h *OrderHandler) Submit(c *fiber.Ctx) error {
	if !hasFields(c.Body()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No data provided"})
	}

	var req SubmitOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No data provided"})
	}

	result, err := h.orders.Submit(c.UserContext(), req.Name, req.Items)
	if err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Message})
		}
		h.log.Error("Failed to submit order", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error: " + err.Error()})
	}

	return c.JSON(result)
}

// hasFields reports whether body is a JSON object with at least one member.
// Blank input, null, an empty object or any non-object value carries no order data.
func hasFields(body []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	return len(fields) > 0
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.orders.GetAll(c.UserContext())
	if err != nil {
		h.log.Error("Failed to list orders", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error: " + err.Error()})
	}
	return c.JSON(orders)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	order, err := h.orders.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Order not found"})
		}
		h.log.Error("Failed to get order", zap.String("order_id", c.Params("id")), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error: " + err.Error()})
	}
	return c.JSON(order)
}
