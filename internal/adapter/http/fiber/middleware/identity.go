package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
	"github.com/seu-repo/voice-order-assistant/pkg/config"
)

const UserIDKey = "user_id"

// Identity resolves the caller's user id into c.Locals(UserIDKey).
// Order of precedence: bearer token subject (when a secret is configured),
// X-User-ID header, user_id query parameter, then defaultUser.
func Identity(cfg config.JWTConfig, defaultUser string, log *zap.Logger) fiber.Handler {
	if defaultUser == "" {
		defaultUser = domain.DefaultUserID
	}

	return func(c *fiber.Ctx) error {
		if cfg.Secret != "" {
			if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || parts[0] != "Bearer" {
					return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization header format"})
				}

				sub, err := subject(parts[1], cfg)
				if err != nil {
					log.Debug("Rejected bearer token", zap.Error(err))
					return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
				}
				c.Locals(UserIDKey, sub)
				return c.Next()
			}
		}

		userID := c.Get("X-User-ID")
		if userID == "" {
			userID = c.Query("user_id")
		}
		if userID == "" {
			userID = defaultUser
		}
		c.Locals(UserIDKey, userID)

		return c.Next()
	}
}

func subject(tokenString string, cfg config.JWTConfig) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	}, opts...)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// UserID returns the identity resolved by Identity, or the default user.
func UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals(UserIDKey).(string); ok && id != "" {
		return id
	}
	return domain.DefaultUserID
}
