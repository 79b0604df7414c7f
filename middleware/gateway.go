// middleware/gateway.go
package middleware

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// InternalAuthMiddleware validates the Bearer token on internal routes
// (manual report triggers). Public routes authenticate wallets instead.
func InternalAuthMiddleware() fiber.Handler {
	expectedToken := os.Getenv("CHAT_SERVICE_TOKEN")

	return func(c *fiber.Ctx) error {
		if expectedToken == "" {
			log.Printf("🚫 [INTERNAL_AUTH] CHAT_SERVICE_TOKEN not set — rejecting %s", c.Path())
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "internal routes are disabled",
			})
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			log.Printf("🚫 [INTERNAL_AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "service authentication token missing",
			})
		}

		// Parse "Bearer <token>"; accept a raw token as well.
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if token != expectedToken {
			log.Printf("❌ [INTERNAL_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service authentication token",
			})
		}

		return c.Next()
	}
}
