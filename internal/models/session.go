package models

import (
	"time"
)

// Session represents a durable support conversation for one visitor.
// A session starts bot-handled; once transferred to a human it stays
// transferred until an operator hands it back outside this service.
type Session struct {
	SessionID          string    `json:"session_id" gorm:"primaryKey"`
	LinkedUserID       *uint     `json:"linked_user_id,omitempty" gorm:"index"`
	HandledByAgent     bool      `json:"is_handled_by_agent" gorm:"default:true"`
	TransferredToHuman bool      `json:"transferred_to_human" gorm:"default:false"`
	TransferReason     *string   `json:"transfer_reason,omitempty" gorm:"type:text"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
