package handlers

import (
	"wallet-chat-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupContactRoutes(app *fiber.App, contactService *services.ContactService) {
	contact := app.Group("/contact")

	contact.Post("/add", contactService.Add)
	contact.Get("/list", contactService.List)
}
