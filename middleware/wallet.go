// middleware/wallet.go
package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"wallet-chat-service/utils"
)

// WalletContextMiddleware canonicalizes the caller's wallet address from the
// X-Wallet-Address header and attaches it to the request context. Handlers
// that accept the address in the body or query prefer that value; the header
// is a convenience for clients that set it once.
func WalletContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get("X-Wallet-Address")
		if raw == "" {
			return c.Next()
		}

		address, err := utils.NormalizeAddress(raw)
		if err != nil {
			log.Printf("❌ [WALLET_CTX] Invalid X-Wallet-Address on %s: %v", c.Path(), err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid wallet address",
			})
		}

		c.Locals("wallet_address", address)
		return c.Next()
	}
}

// WalletFromContext returns the canonical address attached by
// WalletContextMiddleware, or "" when the header was absent.
func WalletFromContext(c *fiber.Ctx) string {
	if addr, ok := c.Locals("wallet_address").(string); ok {
		return addr
	}
	return ""
}
