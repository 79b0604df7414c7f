package services

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wallet-chat-service/models"
	"wallet-chat-service/utils"
)

// MessageService exposes the history window over REST and owns the
// asynchronous translation-completion path.
type MessageService struct {
	DB            *gorm.DB
	Conversations *ConversationService
}

func NewMessageService(db *gorm.DB, conversations *ConversationService) *MessageService {
	return &MessageService{DB: db, Conversations: conversations}
}

// jsonPath quotes a translations-map key as a JSON1 path ("Haitian Creole"
// and the like contain spaces).
func jsonPath(key string) string {
	return `$."` + key + `"`
}

// History returns up to 200 most recent messages at or after the optional
// start_time, oldest first.
func (s *MessageService) History(c *fiber.Ctx) error {
	rawID := c.Query("conversationId")
	if rawID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing conversation id"})
	}
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid conversation id"})
	}

	var since *time.Time
	if raw := c.Query("start_time"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid start_time, want RFC 3339"})
		}
		since = &parsed
	}

	messages, err := s.Conversations.History(uint(id), since)
	if err != nil {
		log.Printf("[MESSAGE] History query failed for conversation %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load history"})
	}

	var latest any
	if len(messages) > 0 {
		latest = messages[len(messages)-1].Timestamp
	}

	return c.JSON(fiber.Map{
		"messages":         messages,
		"count":            len(messages),
		"latest_timestamp": latest,
	})
}

// CompleteTranslation merges a late-arriving translation into an existing
// message, addressed by its id. Matching by id (instead of conversation +
// sender + text) keeps repeated identical texts from clobbering each other.
func (s *MessageService) CompleteTranslation(c *fiber.Ctx) error {
	var body struct {
		MessageID      uint   `json:"message_id"`
		Sender         string `json:"sender"`
		Language       string `json:"language"`
		TranslatedText string `json:"translated_text"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.MessageID == 0 || body.Language == "" || body.TranslatedText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing required parameters"})
	}

	sender, err := utils.NormalizeAddress(body.Sender)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid sender address"})
	}

	var msg models.Message
	if err := s.DB.First(&msg, body.MessageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "message not found"})
		}
		log.Printf("[MESSAGE] Lookup failed for message %d: %v", body.MessageID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load message"})
	}

	if msg.Sender != sender {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "sender mismatch"})
	}

	language := utils.NormalizeLanguage(body.Language)

	// Merge in SQL so two concurrent completions cannot drop each other's
	// labels. The Original seed only applies where no map exists yet; the
	// stored one wins otherwise.
	var merged any
	if s.DB.Dialector.Name() == "postgres" {
		merged = gorm.Expr(
			"jsonb_build_object(?::text, ?::text) || COALESCE(translations, '{}'::jsonb) || jsonb_build_object(?::text, ?::text)",
			models.TranslationOriginalKey, msg.Text, language, body.TranslatedText)
	} else {
		merged = gorm.Expr(
			"json_set(json_insert(COALESCE(translations, '{}'), ?, ?), ?, ?)",
			jsonPath(models.TranslationOriginalKey), msg.Text,
			jsonPath(language), body.TranslatedText)
	}

	err = s.DB.Model(&models.Message{}).
		Where("id = ?", msg.ID).
		Update("translations", merged).Error
	if err != nil {
		log.Printf("[MESSAGE] Failed to update translations for message %d: %v", msg.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store translation"})
	}

	return c.JSON(fiber.Map{"success": true, "message_id": msg.ID})
}
