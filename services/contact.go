package services

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"wallet-chat-service/middleware"
	"wallet-chat-service/models"
	"wallet-chat-service/utils"
)

// ErrContactExists is reported when the owner already has an edge to the
// contact; the existing conversation is left untouched.
var ErrContactExists = errors.New("contact already exists")

type ContactService struct {
	DB *gorm.DB
}

func NewContactService(db *gorm.DB) *ContactService {
	return &ContactService{DB: db}
}

// link creates the conversation plus both reciprocal edges in one
// transaction, so a crash mid-sequence can never leave a conversation without
// edges or edges pointing at a missing conversation.
func (s *ContactService) link(owner, contact string) (uint, error) {
	var conversationID uint

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.Contact
		err := tx.Where("owner = ? AND contact = ?", owner, contact).First(&existing).Error
		if err == nil {
			return ErrContactExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		conversation := models.Conversation{User1: owner, User2: contact}
		if err := tx.Create(&conversation).Error; err != nil {
			return err
		}

		edges := []models.Contact{
			{Owner: owner, ContactAddress: contact, ConversationID: conversation.ID},
			{Owner: contact, ContactAddress: owner, ConversationID: conversation.ID},
		}
		if err := tx.Create(&edges).Error; err != nil {
			return err
		}

		conversationID = conversation.ID
		return nil
	})

	return conversationID, err
}

// Add links two users: exactly one conversation and two reciprocal contact
// edges per unordered pair, idempotent across repeated calls.
func (s *ContactService) Add(c *fiber.Ctx) error {
	var body struct {
		RawAddress        string `json:"raw_address"`
		RawContactAddress string `json:"raw_contactAddress"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	if body.RawAddress == "" || body.RawContactAddress == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "missing required parameters"})
	}

	owner, err := utils.NormalizeAddress(body.RawAddress)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid address"})
	}
	contact, err := utils.NormalizeAddress(body.RawContactAddress)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid contact address"})
	}
	if owner == contact {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "cannot add yourself as a contact"})
	}

	conversationID, err := s.link(owner, contact)
	if errors.Is(err, ErrContactExists) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "contact already exists"})
	}
	if err != nil {
		log.Printf("[CONTACT] Failed to link %s -> %s: %v", owner, contact, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to add contact"})
	}

	return c.JSON(fiber.Map{
		"message":        "contact added",
		"conversationId": conversationID,
	})
}

type contactListRow struct {
	Contact        string
	Username       string
	CreatedAt      time.Time
	ConversationID uint
}

// List returns the owner's contacts joined with usernames, each carrying the
// shared conversation id.
func (s *ContactService) List(c *fiber.Ctx) error {
	raw := c.Query("userAddress")
	if raw == "" {
		raw = middleware.WalletFromContext(c)
	}
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "missing required parameters"})
	}

	address, err := utils.NormalizeAddress(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid address"})
	}

	var rows []contactListRow
	err = s.DB.Table("contacts").
		Select("contacts.contact AS contact, users.username AS username, contacts.created_at AS created_at, contacts.conversation_id AS conversation_id").
		Joins("LEFT JOIN users ON users.address = contacts.contact").
		Where("contacts.owner = ?", address).
		Order("contacts.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		log.Printf("[CONTACT] Failed to list contacts for %s: %v", address, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to load contacts"})
	}

	contacts := make([]fiber.Map, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, fiber.Map{
			"address":         row.Contact,
			"username":        row.Username,
			"createdAt":       row.CreatedAt,
			"conversation_id": row.ConversationID,
		})
	}

	return c.JSON(fiber.Map{"contacts": contacts})
}
