package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

// StatusFor maps an error to the HTTP status the APIs answer with.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrTransport):
		var te *domain.TransportError
		if errors.As(err, &te) && te.Kind == domain.TransportTimeout {
			return fiber.StatusGatewayTimeout
		}
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusFor(err)

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		}

		body := fiber.Map{"error": domain.UserMessage(err)}
		if kind := domain.ErrorKind(err); kind != "internal_error" {
			body["error_kind"] = kind
		}
		return c.Status(code).JSON(body)
	}
}
