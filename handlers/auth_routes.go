package handlers

import (
	"wallet-chat-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService) {
	auth := app.Group("/auth")

	auth.Post("/register", authService.Register)
	auth.Post("/updateProfile", authService.UpdateProfile)
	auth.Post("/userInfo", authService.UserInfo)
}
