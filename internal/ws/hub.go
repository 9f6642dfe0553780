package ws

import (
	"sync"

	"lush-moments/backend/pkg/logger"
	wsenv "lush-moments/backend/pkg/ws"
	"lush-moments/backend/shared/observability"
)

// transport is the per-connection send side the hub fans frames into.
type transport interface {
	enqueue(env wsenv.OutboundEnvelope) bool
	closeDisplaced()
}

// Hub maps session identities to their live websocket transport. A
// session has at most one binding; a new connection for the same
// session displaces and closes the old one.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]transport
	log      *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]transport),
		log:      log,
	}
}

// Bind registers t as the transport for sessionID. Last writer wins:
// any previously bound transport is closed so its client knows it was
// displaced rather than silently going deaf.
func (h *Hub) Bind(sessionID string, t transport) {
	h.mu.Lock()
	old := h.sessions[sessionID]
	h.sessions[sessionID] = t
	h.mu.Unlock()

	if old == nil {
		observability.ChatActiveConnections.Inc()
	}

	if old != nil && old != t {
		h.log.Info("Displacing previous connection", "session_id", sessionID)
		old.closeDisplaced()
	}
}

// Unbind removes the binding for sessionID, but only if t still owns
// it. A stale transport unbinding after displacement must not evict
// its replacement.
func (h *Hub) Unbind(sessionID string, t transport) {
	h.mu.Lock()
	if h.sessions[sessionID] == t {
		delete(h.sessions, sessionID)
		observability.ChatActiveConnections.Dec()
	}
	h.mu.Unlock()
}

// Send pushes env to the transport bound to sessionID. It reports
// whether a bound transport accepted the frame; an unbound session
// returns false without buffering.
func (h *Hub) Send(sessionID string, env wsenv.OutboundEnvelope) bool {
	h.mu.RLock()
	t := h.sessions[sessionID]
	h.mu.RUnlock()

	if t == nil {
		return false
	}
	return t.enqueue(env)
}

// Count returns the number of bound sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
