package models

import "time"

// User is keyed by the canonical (lower-case hex) wallet address. A row is
// created on the first successful signature verification and never deleted;
// profile edits only mutate username, avatar and language.
type User struct {
	Address   string    `gorm:"primaryKey" json:"address"`
	Username  string    `gorm:"index" json:"username"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Language  string    `gorm:"default:English" json:"language"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
