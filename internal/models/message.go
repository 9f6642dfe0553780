package models

import (
	"time"
)

// Sender role values for chat messages.
const (
	SenderUser  = "user"
	SenderBot   = "bot"
	SenderAdmin = "admin"
)

// ChatMessage is one utterance in a session's log. Messages are
// append-only; the persisted log is the source of truth for replay.
type ChatMessage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SessionID  string    `json:"session_id" gorm:"index;not null"`
	SenderType string    `json:"sender_type" gorm:"not null"`
	Message    string    `json:"message" gorm:"type:text;not null"`
	Timestamp  time.Time `json:"timestamp" gorm:"index"`
	CreatedAt  time.Time `json:"created_at"`
}
