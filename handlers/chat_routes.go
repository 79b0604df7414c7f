package handlers

import (
	"wallet-chat-service/services"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func SetupChatRoutes(app *fiber.App, chatService *services.ChatService) {
	app.Use("/chat", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/chat", websocket.New(chatService.HandleConnection))
}
