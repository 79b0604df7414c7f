package handlers

import (
	"wallet-chat-service/middleware"
	"wallet-chat-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTaskRoutes(app *fiber.App, taskService *services.TaskService, reportService *services.ReportService) {
	task := app.Group("/task")
	task.Post("/authorize", taskService.Authorize)
	task.Post("/revoke", taskService.Revoke)
	task.Get("/list", taskService.List)
	task.Get("/reports", taskService.Reports)

	// Manual report trigger — service-token only, never exposed to wallets.
	internal := app.Group("/internal", middleware.InternalAuthMiddleware())
	internal.Post("/reports/run", reportService.RunNow)
}
