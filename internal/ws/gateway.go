package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"lush-moments/backend/internal/agent"
	"lush-moments/backend/internal/models"
	"lush-moments/backend/internal/security"
	"lush-moments/backend/pkg/config"
	"lush-moments/backend/pkg/jwt"
	"lush-moments/backend/pkg/logger"
	wsenv "lush-moments/backend/pkg/ws"
	"lush-moments/backend/shared/observability"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// ChatStore is the persistence surface the gateway needs.
type ChatStore interface {
	GetOrCreateSession(sessionID string) (*models.Session, error)
	Append(sessionID, role, text string, ts time.Time) (*models.ChatMessage, error)
	Recent(sessionID string, limit int) ([]models.ChatMessage, error)
	SetTransfer(sessionID, reason string) error
	LinkUser(sessionID string, userID uint) error
	MessageCount(sessionID string) (int64, error)
}

// Responder produces a reply for a sanitized user message given the
// recent conversation.
type Responder interface {
	Reply(ctx context.Context, userText string, history []agent.HistoryEntry) string
}

const escalationReason = "Automatic escalation after risk screening"

// Gateway owns the websocket chat loop: accept a connection, bind it
// to its session, and shuttle frames between the browser, the store
// and the agent.
type Gateway struct {
	hub        *Hub
	store      ChatStore
	agent      Responder
	jwtService *jwt.Service
	cfg        *config.Config
	log        *logger.Logger
}

func NewGateway(hub *Hub, store ChatStore, responder Responder, jwtService *jwt.Service, cfg *config.Config, log *logger.Logger) *Gateway {
	return &Gateway{
		hub:        hub,
		store:      store,
		agent:      responder,
		jwtService: jwtService,
		cfg:        cfg,
		log:        log,
	}
}

// Hub exposes the registry for other surfaces (the admin reply API
// pushes operator messages through it).
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// HandleConnection upgrades GET /ws/chat/:sessionID. A JWT may be
// supplied via the token query parameter to link the session to an
// account; anonymous visitors are served without one.
func (g *Gateway) HandleConnection(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("sessionID"))
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionID is required"})
		return
	}

	var userID uint
	if token := c.Query("token"); token != "" && g.jwtService != nil {
		claims, err := g.jwtService.ValidateToken(token)
		if err != nil {
			g.log.Warn("Ignoring invalid websocket token", "session_id", sessionID, "error", err.Error())
		} else {
			userID = claims.UserID
		}
	}

	session, err := g.store.GetOrCreateSession(sessionID)
	if err != nil {
		g.log.LogError(err, "Failed to load chat session", "session_id", sessionID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.log.LogError(err, "Websocket upgrade failed", "session_id", sessionID)
		return
	}

	if userID != 0 && session.LinkedUserID == nil {
		if err := g.store.LinkUser(sessionID, userID); err != nil {
			g.log.LogError(err, "Failed to link session to user", "session_id", sessionID, "user_id", userID)
		}
	}

	client := newClient(conn, sessionID, userID, g)
	g.hub.Bind(sessionID, client)

	go client.writePump()
	go func() {
		g.greet(client)
		client.readPump()
	}()

	g.log.Info("Chat connection established", "session_id", sessionID, "user_id", userID)
}

// greet pushes the welcome message. It is written to the log only the
// first time the session is seen, so reconnects do not pile up
// greetings in the history.
func (g *Gateway) greet(c *Client) {
	count, err := g.store.MessageCount(c.sessionID)
	if err != nil {
		c.log.LogError(err, "Failed to count session messages")
	} else if count == 0 {
		if _, err := g.store.Append(c.sessionID, models.SenderBot, wsenv.WelcomeMessage, time.Time{}); err != nil {
			c.log.LogError(err, "Failed to persist welcome message")
		}
	}
	c.enqueue(wsenv.AgentMessage(wsenv.WelcomeMessage))
}

// handleFrame processes one inbound frame. Frames are handled in
// arrival order on the connection's read goroutine.
func (g *Gateway) handleFrame(c *Client, data []byte) {
	var env wsenv.InboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.log.Warn("Discarding malformed frame", "error", err.Error())
		c.enqueue(wsenv.ErrorMessage("Invalid message format."))
		return
	}

	text := strings.TrimSpace(env.Message)

	switch env.Type {
	case wsenv.TypeRequestHuman:
		g.transfer(c, text)
	default:
		// Anything else, including a missing type, is a chat message.
		if text == "" {
			return
		}
		g.handleUserMessage(c, text)
	}
}

// transfer flips the session to human handling. The flag never flips
// back from here; repeated requests just re-acknowledge.
func (g *Gateway) transfer(c *Client, reason string) {
	if reason == "" {
		reason = wsenv.DefaultTransferReason
	}

	session, err := g.store.GetOrCreateSession(c.sessionID)
	if err != nil {
		c.log.LogError(err, "Failed to load session for transfer")
		c.enqueue(wsenv.ErrorMessage("Unable to transfer right now. Please try again."))
		return
	}

	if session.TransferredToHuman {
		c.enqueue(wsenv.TransferNotice(wsenv.TransferAck))
		return
	}

	if err := g.store.SetTransfer(c.sessionID, reason); err != nil {
		c.log.LogError(err, "Failed to record transfer")
		c.enqueue(wsenv.ErrorMessage("Unable to transfer right now. Please try again."))
		return
	}

	observability.ChatTransfers.Inc()
	c.log.Info("Session transferred to human", "reason", reason)

	if _, err := g.store.Append(c.sessionID, models.SenderBot, wsenv.TransferAck, time.Time{}); err != nil {
		c.log.LogError(err, "Failed to persist transfer acknowledgement")
	}
	c.enqueue(wsenv.TransferNotice(wsenv.TransferAck))
}

// handleUserMessage runs the full message pipeline: persist, echo,
// then either the waiting placeholder (after handoff) or an agent
// reply built from the recent history.
func (g *Gateway) handleUserMessage(c *Client, text string) {
	observability.ChatMessagesReceived.Inc()

	session, err := g.store.GetOrCreateSession(c.sessionID)
	if err != nil {
		c.log.LogError(err, "Failed to load session")
		c.enqueue(wsenv.ErrorMessage("Something went wrong. Please try again."))
		return
	}

	// History is read before the new message lands so the agent sees
	// the message exactly once.
	history := g.recentHistory(c)

	if _, err := g.store.Append(c.sessionID, models.SenderUser, text, time.Time{}); err != nil {
		c.log.LogError(err, "Failed to persist user message")
	}
	c.enqueue(wsenv.UserEcho(text))

	if session.TransferredToHuman {
		if _, err := g.store.Append(c.sessionID, models.SenderBot, wsenv.WaitingPlaceholder, time.Time{}); err != nil {
			c.log.LogError(err, "Failed to persist waiting placeholder")
		}
		c.enqueue(wsenv.BotNotice(wsenv.WaitingPlaceholder))
		return
	}

	if security.NeedsHumanReview(text) {
		c.log.Warn("Message flagged for human review", "score", security.ReviewScore(text))
		if g.cfg.Features.AutoEscalate {
			g.transfer(c, escalationReason)
			return
		}
	}

	start := time.Now()
	reply := g.agent.Reply(context.Background(), text, history)
	observability.AgentReplyDuration.Observe(time.Since(start).Seconds())

	if reply == agent.InputRefusal {
		observability.ChatInputsBlocked.Inc()
	}

	if _, err := g.store.Append(c.sessionID, models.SenderBot, reply, time.Time{}); err != nil {
		c.log.LogError(err, "Failed to persist agent reply")
	}
	c.enqueue(wsenv.AgentMessage(reply))
}

// recentHistory loads the last messages as orchestrator history.
func (g *Gateway) recentHistory(c *Client) []agent.HistoryEntry {
	limit := g.cfg.Features.HistoryLimit
	messages, err := g.store.Recent(c.sessionID, limit)
	if err != nil {
		c.log.LogError(err, "Failed to load chat history")
		return nil
	}

	history := make([]agent.HistoryEntry, 0, len(messages))
	for _, m := range messages {
		history = append(history, agent.HistoryEntry{
			Role:    m.SenderType,
			Content: m.Message,
		})
	}
	return history
}
