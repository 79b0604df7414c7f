package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MessageStatusSent = "sent"

	// TranslationOriginalKey labels the sender's own-language text inside
	// the translations map.
	TranslationOriginalKey = "Original"
)

// Message is immutable after creation except for the translations map, which
// the asynchronous completion path may extend (matched by primary key only).
//
// When the sender opted into machine translation, Text holds the translated
// representation (the receiving party's default view) and Translations holds
// at least the Original text plus the target-language text. Seq is a strictly
// increasing per-conversation sequence assigned at persist time.
type Message struct {
	ID             uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint              `gorm:"not null;index:idx_messages_conv_time,priority:1;uniqueIndex:idx_messages_conv_seq,priority:1" json:"conversation_id"`
	Sender         string            `gorm:"not null" json:"sender"`
	Text           string            `gorm:"not null" json:"text"`
	Status         string            `gorm:"default:sent" json:"status"`
	Seq            uint64            `gorm:"not null;uniqueIndex:idx_messages_conv_seq,priority:2" json:"seq"`
	Translations   datatypes.JSONMap `json:"translations,omitempty"`
	Timestamp      time.Time         `gorm:"autoCreateTime;index:idx_messages_conv_time,priority:2" json:"timestamp"`
}

// OriginalText returns the sender's own-language representation.
func (m *Message) OriginalText() string {
	if m.Translations != nil {
		if orig, ok := m.Translations[TranslationOriginalKey].(string); ok && orig != "" {
			return orig
		}
	}
	return m.Text
}

// Translated reports whether the message carries a target-language
// translation beyond the original text.
func (m *Message) Translated() bool {
	for key, value := range m.Translations {
		if key == TranslationOriginalKey {
			continue
		}
		if s, ok := value.(string); ok && s != "" {
			return true
		}
	}
	return false
}
