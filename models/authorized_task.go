package models

import "time"

// AuthorizedTask records a user's consent for one conversation to feed
// automated report generation. One row per (user, conversation); re-granting
// bumps updated_at and re-activates instead of inserting a duplicate.
type AuthorizedTask struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserAddress    string    `gorm:"not null;uniqueIndex:idx_tasks_user_conversation,priority:1" json:"user_address"`
	ConversationID uint      `gorm:"not null;uniqueIndex:idx_tasks_user_conversation,priority:2" json:"conversation_id"`
	Active         bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
