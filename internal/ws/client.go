package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lush-moments/backend/pkg/logger"
	wsenv "lush-moments/backend/pkg/ws"
	"lush-moments/backend/shared/observability"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024 // 64KB
)

// Client is one websocket connection for one chat session.
type Client struct {
	conn      *websocket.Conn
	send      chan wsenv.OutboundEnvelope
	sessionID string
	userID    uint // 0 when anonymous
	gateway   *Gateway
	log       *logger.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn, sessionID string, userID uint, g *Gateway) *Client {
	return &Client{
		conn:      conn,
		send:      make(chan wsenv.OutboundEnvelope, 32),
		sessionID: sessionID,
		userID:    userID,
		gateway:   g,
		log:       g.log.WithSessionID(sessionID),
		done:      make(chan struct{}),
	}
}

// enqueue hands env to the write pump. It reports false when the
// client is shutting down or its buffer is full; it never blocks.
func (c *Client) enqueue(env wsenv.OutboundEnvelope) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- env:
		observability.ChatMessagesSent.Inc()
		return true
	case <-c.done:
		return false
	default:
		c.log.Warn("Dropping frame for slow websocket client")
		return false
	}
}

// shutdown stops the write pump and closes the transport. Safe to
// call from any goroutine, any number of times.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// closeDisplaced is invoked by the hub when a newer connection takes
// over this session. A close frame tells the old browser tab why.
func (c *Client) closeDisplaced() {
	c.log.Info("Connection displaced by a newer one")
	deadline := time.Now().Add(writeWait)
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session connected elsewhere"),
		deadline,
	)
	c.shutdown()
}

// readPump reads inbound frames and handles them in order. One frame
// is fully processed before the next is read, so replies keep the
// order of the questions.
func (c *Client) readPump() {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Recovered from panic in chat session", "panic", r)
		}
		c.gateway.hub.Unbind(c.sessionID, c)
		c.shutdown()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn("Websocket read failed", "error", err.Error())
			}
			return
		}

		c.gateway.handleFrame(c, data)
	}
}

// writePump pushes queued frames to the peer and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case env := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
