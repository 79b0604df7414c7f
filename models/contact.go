package models

import "time"

// Contact is a directional edge: the owner sees the contact in their list.
// Edges are always created in reciprocal pairs sharing one conversation id,
// so an established conversation has exactly two of them.
type Contact struct {
	Owner          string    `gorm:"primaryKey" json:"owner"`
	ContactAddress string    `gorm:"primaryKey;column:contact" json:"contact"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Contact) TableName() string {
	return "contacts"
}
