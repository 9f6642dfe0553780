package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lush-moments/backend/internal/models"
	"lush-moments/backend/internal/service"
	"lush-moments/backend/internal/ws"
	"lush-moments/backend/pkg/logger"
	wsenv "lush-moments/backend/pkg/ws"
)

// AdminChatHandler lets human operators answer transferred sessions.
type AdminChatHandler struct {
	chatService *service.ChatService
	hub         *ws.Hub
	logger      *logger.Logger
}

// NewAdminChatHandler creates a new admin chat handler
func NewAdminChatHandler(chatService *service.ChatService, hub *ws.Hub, logger *logger.Logger) *AdminChatHandler {
	return &AdminChatHandler{
		chatService: chatService,
		hub:         hub,
		logger:      logger,
	}
}

// Reply records an operator message and pushes it to the visitor if
// their websocket is connected. The message is kept either way; a
// disconnected visitor sees it in the history on reconnect.
func (h *AdminChatHandler) Reply(c *gin.Context) {
	sessionID := c.Param("sessionID")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID is required"})
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
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

	msg, err := h.chatService.Append(sessionID, models.SenderAdmin, req.Message, time.Time{})
	if err != nil {
		h.logger.LogError(err, "Failed to persist operator reply", "session_id", sessionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save reply"})
		return
	}

	delivered := h.hub.Send(sessionID, wsenv.BotNotice(req.Message))

	c.JSON(http.StatusOK, gin.H{
		"message_id": msg.ID,
		"delivered":  delivered,
	})
}
