package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lush-moments/backend/internal/models"
	"lush-moments/backend/internal/service"
	"lush-moments/backend/pkg/config"
	"lush-moments/backend/pkg/logger"
)

// ChatHandler handles the REST side of the chat subsystem: history,
// session status and account linking. Live traffic goes over the
// websocket gateway.
type ChatHandler struct {
	chatService *service.ChatService
	cfg         *config.Config
	logger      *logger.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService, cfg *config.Config, logger *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		cfg:         cfg,
		logger:      logger,
	}
}

type chatMessageResponse struct {
	ID         uint      `json:"id"`
	SenderType string    `json:"sender_type"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

func toMessageResponses(messages []models.ChatMessage) []chatMessageResponse {
	out := make([]chatMessageResponse, len(messages))
	for i, m := range messages {
		out[i] = chatMessageResponse{
			ID:         m.ID,
			SenderType: m.SenderType,
			Message:    m.Message,
			Timestamp:  m.Timestamp,
		}
	}
	return out
}

// History returns the full ordered message log for a session
func (h *ChatHandler) History(c *gin.Context) {
	if !h.cfg.Features.EnableHistory {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat history is disabled"})
		return
	}

	sessionID := c.Param("sessionID")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID is required"})
		return
	}

	if _, err := h.chatService.GetSession(sessionID); err != nil {
		if err == service.ErrSessionNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		h.logger.LogError(err, "Failed to load session", "session_id", sessionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve session"})
		return
	}

	messages, err := h.chatService.History(sessionID)
	if err != nil {
		h.logger.LogError(err, "Failed to load chat history", "session_id", sessionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve chat history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"messages":   toMessageResponses(messages),
	})
}

// SessionStatus reports whether the session is still bot-handled
func (h *ChatHandler) SessionStatus(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID is required"})
		return
	}

	session, err := h.chatService.GetSession(sessionID)
	if err != nil {
		if err == service.ErrSessionNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		h.logger.LogError(err, "Failed to load session", "session_id", sessionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":           session.SessionID,
		"handled_by_agent":     session.HandledByAgent,
		"transferred_to_human": session.TransferredToHuman,
		"transfer_reason":      session.TransferReason,
	})
}

// MergeSession links an anonymous chat session to the authenticated
// user so it shows up in their session list.
func (h *ChatHandler) MergeSession(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req struct {
		AnonymousSessionID string `json:"anonymous_session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := h.chatService.LinkUser(req.AnonymousSessionID, userID.(uint)); err != nil {
		if err == service.ErrSessionNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		h.logger.LogError(err, "Failed to merge session", "session_id", req.AnonymousSessionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to merge session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Session merged successfully",
		"session_id": req.AnonymousSessionID,
	})
}

// MySessions lists the authenticated user's chat sessions with a
// preview of the last message in each.
func (h *ChatHandler) MySessions(c *gin.Context) {
	userID, exists := c.Get("userId")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	sessions, err := h.chatService.SessionsForUser(userID.(uint))
	if err != nil {
		h.logger.LogError(err, "Failed to list sessions", "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sessions"})
		return
	}

	out := make([]gin.H, 0, len(sessions))
	for _, session := range sessions {
		entry := gin.H{
			"session_id":           session.SessionID,
			"handled_by_agent":     session.HandledByAgent,
			"transferred_to_human": session.TransferredToHuman,
			"created_at":           session.CreatedAt,
		}

		last, err := h.chatService.LastMessage(session.SessionID)
		if err != nil {
			h.logger.LogError(err, "Failed to load last message", "session_id", session.SessionID)
		} else if last != nil {
			entry["last_message"] = chatMessageResponse{
				ID:         last.ID,
				SenderType: last.SenderType,
				Message:    last.Message,
				Timestamp:  last.Timestamp,
			}
		}

		out = append(out, entry)
	}

	c.JSON(http.StatusOK, gin.H{"sessions": out})
}
