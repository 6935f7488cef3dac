package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

const corsMaxAge = 12 * 60 * 60

// orDefault joins configured values, or returns def when none are configured.
func orDefault(values []string, def string) string {
	if len(values) == 0 {
		return def
	}
	return strings.Join(values, ",")
}

// NewCORS lets browser clients call both APIs. X-User-ID must be allowed so a
// web UI can pick its session without a token.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = corsMaxAge
	}

	return fibercors.New(fibercors.Config{
		AllowOrigins:     orDefault(cfg.AllowedOrigins, "*"),
		AllowMethods:     orDefault(cfg.AllowedMethods, "GET,POST,DELETE,OPTIONS"),
		AllowHeaders:     orDefault(cfg.AllowedHeaders, "Origin,Content-Type,Accept,Authorization,X-User-ID"),
		ExposeHeaders:    orDefault(cfg.ExposeHeaders, "Content-Length"),
		AllowCredentials: cfg.Credentials && orDefault(cfg.AllowedOrigins, "*") != "*",
		MaxAge:           maxAge,
	})
}
