package services

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wallet-chat-service/middleware"
	"wallet-chat-service/models"
	"wallet-chat-service/utils"
)

// TaskService manages per-user, per-conversation report authorizations.
type TaskService struct {
	DB            *gorm.DB
	Conversations *ConversationService
}

func NewTaskService(db *gorm.DB, conversations *ConversationService) *TaskService {
	return &TaskService{DB: db, Conversations: conversations}
}

type taskRequest struct {
	UserAddress    string `json:"userAddress"`
	ConversationID uint   `json:"conversationId"`
}

func parseTaskRequest(c *fiber.Ctx) (string, uint, error) {
	var body taskRequest
	if err := c.BodyParser(&body); err != nil {
		return "", 0, errors.New("invalid request body")
	}
	if body.UserAddress == "" || body.ConversationID == 0 {
		return "", 0, errors.New("missing required parameters")
	}

	address, err := utils.NormalizeAddress(body.UserAddress)
	if err != nil {
		return "", 0, errors.New("invalid address")
	}
	return address, body.ConversationID, nil
}

// Authorize upserts the (user, conversation) authorization: one row per pair,
// re-granting re-activates and bumps updated_at. Only participants may grant.
func (s *TaskService) Authorize(c *fiber.Ctx) error {
	address, conversationID, err := parseTaskRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ok, err := s.Conversations.IsParticipant(conversationID, address)
	if err != nil {
		log.Printf("[TASK] Membership check failed for conversation %d: %v", conversationID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "authorization failed"})
	}
	if !ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not a participant of this conversation"})
	}

	task := models.AuthorizedTask{
		UserAddress:    address,
		ConversationID: conversationID,
		Active:         true,
	}
	err = s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_address"}, {Name: "conversation_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"active":     true,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&task).Error
	if err != nil {
		log.Printf("[TASK] Failed to authorize conversation %d for %s: %v", conversationID, address, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "authorization failed"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// Revoke clears the active flag; the row itself is kept.
func (s *TaskService) Revoke(c *fiber.Ctx) error {
	address, conversationID, err := parseTaskRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	err = s.DB.Model(&models.AuthorizedTask{}).
		Where("user_address = ? AND conversation_id = ?", address, conversationID).
		Updates(map[string]any{"active": false, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		log.Printf("[TASK] Failed to revoke conversation %d for %s: %v", conversationID, address, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "revocation failed"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// List returns the caller's active authorizations.
func (s *TaskService) List(c *fiber.Ctx) error {
	raw := c.Query("userAddress")
	if raw == "" {
		raw = middleware.WalletFromContext(c)
	}
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing required parameters"})
	}
	address, err := utils.NormalizeAddress(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid address"})
	}

	var tasks []models.AuthorizedTask
	err = s.DB.Where("user_address = ? AND active = ?", address, true).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		log.Printf("[TASK] Failed to list tasks for %s: %v", address, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load tasks"})
	}

	return c.JSON(fiber.Map{"tasks": tasks})
}

// Reports lists generated summary reports for the caller, newest first.
func (s *TaskService) Reports(c *fiber.Ctx) error {
	raw := c.Query("userAddress")
	if raw == "" {
		raw = middleware.WalletFromContext(c)
	}
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing required parameters"})
	}
	address, err := utils.NormalizeAddress(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid address"})
	}

	var reports []models.Report
	err = s.DB.Where("user_address = ?", address).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		log.Printf("[TASK] Failed to list reports for %s: %v", address, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load reports"})
	}

	return c.JSON(fiber.Map{"reports": reports})
}
