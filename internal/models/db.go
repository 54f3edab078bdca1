package models

import (
	"time"
)

// ReplyRecord is one audited auto-reply decision.
type ReplyRecord struct {
	ID           int64     `json:"id"`
	Conversation string    `json:"conversation"`
	MessageID    string    `json:"message_id"`
	CanAnswer    bool      `json:"can_answer"`
	Reply        string    `json:"reply"`
	Applied      bool      `json:"applied"`
	CreatedAt    time.Time `json:"created_at"`
}
