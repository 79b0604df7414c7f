package services

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"gorm.io/gorm"

	"wallet-chat-service/models"
)

// HistoryLimit caps how many messages a history replay returns.
const HistoryLimit = 200

// ConversationService answers membership questions and owns the message
// persistence path shared by the relay and the REST history endpoint.
type ConversationService struct {
	DB *gorm.DB
}

func NewConversationService(db *gorm.DB) *ConversationService {
	return &ConversationService{DB: db}
}

// IsParticipant reports whether address is user1 or user2 of the
// conversation. Unknown conversation ids fail closed.
func (s *ConversationService) IsParticipant(conversationID uint, address string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.Conversation{}).
		Where("id = ? AND (user1 = ? OR user2 = ?)", conversationID, address, address).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("membership lookup for conversation %d: %w", conversationID, err)
	}
	return count > 0, nil
}

// History returns the most recent messages (capped at HistoryLimit) whose
// timestamp is at or after since, ordered oldest-to-newest. The query walks
// newest-first with a limit, then reverses.
func (s *ConversationService) History(conversationID uint, since *time.Time) ([]models.Message, error) {
	q := s.DB.Where("conversation_id = ?", conversationID)
	if since != nil {
		q = q.Where("timestamp >= ?", *since)
	}

	var messages []models.Message
	err := q.Order("timestamp DESC").Order("id DESC").
		Limit(HistoryLimit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("load history for conversation %d: %w", conversationID, err)
	}

	slices.Reverse(messages)
	return messages, nil
}

// saveMessageRetries bounds how often a send re-reads max(seq) after losing
// the insert race to a concurrent sender.
const saveMessageRetries = 3

// SaveMessage persists one inbound message, assigning the next
// per-conversation sequence number. Under READ COMMITTED two concurrent
// senders can read the same max(seq); the unique (conversation_id, seq)
// index rejects the loser, which retries with a fresh read.
func (s *ConversationService) SaveMessage(msg *models.Message) error {
	if msg.Status == "" {
		msg.Status = models.MessageStatusSent
	}

	var err error
	for attempt := 0; attempt < saveMessageRetries; attempt++ {
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			var maxSeq int64
			err := tx.Model(&models.Message{}).
				Where("conversation_id = ?", msg.ConversationID).
				Select("COALESCE(MAX(seq), 0)").
				Scan(&maxSeq).Error
			if err != nil {
				return err
			}

			msg.Seq = uint64(maxSeq) + 1
			return tx.Create(msg).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	return fmt.Errorf("persist message in conversation %d: %w", msg.ConversationID, err)
}

// Username resolves the display name for an address; an unknown or unnamed
// user yields "".
func (s *ConversationService) Username(address string) string {
	var user models.User
	if err := s.DB.Select("username").Where("address = ?", address).First(&user).Error; err != nil {
		return ""
	}
	return user.Username
}
