package handlers

import (
	"wallet-chat-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMessageRoutes(app *fiber.App, messageService *services.MessageService, translationService *services.TranslationService) {
	message := app.Group("/message")
	message.Get("/history", messageService.History)
	message.Post("/completeTranslation", messageService.CompleteTranslation)

	app.Post("/translate/proxy", translationService.Proxy)
}
