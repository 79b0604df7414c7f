package models

import "time"

// Conversation links exactly two users. The pair is logically unordered but
// stored as user1/user2 in creation order; uniqueness per pair is enforced at
// the application layer by the contact-add transaction, not the schema.
type Conversation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	User1     string    `gorm:"not null;index" json:"user1"`
	User2     string    `gorm:"not null;index" json:"user2"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
