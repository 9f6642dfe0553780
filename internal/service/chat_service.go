package service

import (
	"errors"
	"time"

	"lush-moments/backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// ChatService owns the durable side of a conversation: the session row
// and the append-only message log. Writes for one session always come
// from that session's single connection goroutine (or an operator
// request), so no additional locking is layered on top of the database.
type ChatService struct {
	db *gorm.DB
}

// NewChatService creates a new chat service
func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db}
}

// GetOrCreateSession loads a session by ID, creating it in the initial
// bot-handled state if it does not exist yet.
func (s *ChatService) GetOrCreateSession(sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.Where("session_id = ?", sessionID).First(&session).Error
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session = models.Session{
		SessionID:          sessionID,
		HandledByAgent:     true,
		TransferredToHuman: false,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession loads a session by ID.
func (s *ChatService) GetSession(sessionID string) (*models.Session, error) {
	var session models.Session
	err := s.db.Where("session_id = ?", sessionID).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// Append stores one utterance. Messages are never updated or deleted;
// the log is the source of truth for history replay.
func (s *ChatService) Append(sessionID, role, text string, ts time.Time) (*models.ChatMessage, error) {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	msg := models.ChatMessage{
		SessionID:  sessionID,
		SenderType: role,
		Message:    text,
		Timestamp:  ts,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// Recent returns up to limit messages for a session ordered oldest
// first (most recent last), which is the shape the agent expects for
// conversation context.
func (s *ChatService) Recent(sessionID string, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.db.Where("session_id = ?", sessionID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse into chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// History returns the full ordered message log for a session.
func (s *ChatService) History(sessionID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.db.Where("session_id = ?", sessionID).
		Order("timestamp ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// SetTransfer marks a session as handed off to a human. The flag is
// one-way from this subsystem's point of view: nothing here ever sets
// transferred_to_human back to false.
func (s *ChatService) SetTransfer(sessionID, reason string) error {
	return s.db.Model(&models.Session{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"transferred_to_human": true,
			"handled_by_agent":     false,
			"transfer_reason":      reason,
		}).Error
}

// LinkUser associates an anonymous session with an authenticated user.
func (s *ChatService) LinkUser(sessionID string, userID uint) error {
	result := s.db.Model(&models.Session{}).
		Where("session_id = ?", sessionID).
		Update("linked_user_id", userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// CreateLinkedSession creates a session already bound to a user. Used
// when a login references a session ID that was never opened.
func (s *ChatService) CreateLinkedSession(sessionID string, userID uint) (*models.Session, error) {
	session := models.Session{
		SessionID:      sessionID,
		LinkedUserID:   &userID,
		HandledByAgent: true,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// SessionsForUser lists the sessions linked to a user.
func (s *ChatService) SessionsForUser(userID uint) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.Where("linked_user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	return sessions, err
}

// MessageCount returns the number of messages in a session's log.
func (s *ChatService) MessageCount(sessionID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}

// LastMessage returns the most recent message for a session, or nil
// when the log is empty.
func (s *ChatService) LastMessage(sessionID string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := s.db.Where("session_id = ?", sessionID).
		Order("timestamp DESC, id DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}
