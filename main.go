package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wallet-chat-service/handlers"
	"wallet-chat-service/middleware"
	"wallet-chat-service/models"
	"wallet-chat-service/services"
	"wallet-chat-service/utils"
	"wallet-chat-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // avatars only
	})

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Wallet-Address",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(middleware.WalletContextMiddleware())

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}
	if !utils.R2Enabled() {
		log.Println("⚠️  R2 not configured — avatars go to the local uploads dir, report uploads are skipped")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Contact{},
		&models.Message{},
		&models.AuthorizedTask{},
		&models.Report{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	conversationService := services.NewConversationService(db)
	authService := services.NewAuthService(db)
	contactService := services.NewContactService(db)
	messageService := services.NewMessageService(db, conversationService)
	chatService := services.NewChatService(db, conversationService)
	taskService := services.NewTaskService(db, conversationService)
	inferenceClient := services.NewInferenceClientFromEnv()
	translationService := services.NewTranslationService(inferenceClient)
	reportService := services.NewReportService(db, inferenceClient)

	reportWorker := workers.NewReportWorker(reportService)
	if inferenceClient.Enabled() {
		if err := reportWorker.Start(); err != nil {
			log.Fatal("failed to start report worker:", err)
		}
	} else {
		log.Println("⚠️  INFERENCE_ENDPOINT not set — translation and report generation disabled")
	}

	handlers.SetupAuthRoutes(app, authService)
	handlers.SetupContactRoutes(app, contactService)
	handlers.SetupMessageRoutes(app, messageService, translationService)
	handlers.SetupChatRoutes(app, chatService)
	handlers.SetupTaskRoutes(app, taskService, reportService)

	app.Static("/uploads", "./uploads")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5001"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")

	reportWorker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
