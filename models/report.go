package models

import "time"

// Report is a generated summary of one authorized conversation over a time
// window. Content is the summary text; DocumentURL points at the uploaded
// copy in object storage when R2 is configured.
type Report struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserAddress    string    `gorm:"not null;index" json:"user_address"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	Content        string    `json:"content"`
	DocumentURL    string    `json:"document_url,omitempty"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}
