package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lush-moments/backend/pkg/logger"
	wsenv "lush-moments/backend/pkg/ws"
)

type fakeTransport struct {
	frames    []wsenv.OutboundEnvelope
	accept    bool
	displaced bool
}

func (f *fakeTransport) enqueue(env wsenv.OutboundEnvelope) bool {
	if !f.accept {
		return false
	}
	f.frames = append(f.frames, env)
	return true
}

func (f *fakeTransport) closeDisplaced() {
	f.displaced = true
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func TestHubSendUnbound(t *testing.T) {
	hub := NewHub(testLogger())

	ok := hub.Send("nobody", wsenv.SystemMessage("hello"))

	assert.False(t, ok)
	assert.Equal(t, 0, hub.Count())
}

func TestHubBindAndSend(t *testing.T) {
	hub := NewHub(testLogger())
	transport := &fakeTransport{accept: true}

	hub.Bind("session-1", transport)
	ok := hub.Send("session-1", wsenv.SystemMessage("hello"))

	assert.True(t, ok)
	assert.Len(t, transport.frames, 1)
	assert.Equal(t, "hello", transport.frames[0].Message)
	assert.Equal(t, 1, hub.Count())
}

func TestHubRebindDisplacesOldTransport(t *testing.T) {
	hub := NewHub(testLogger())
	first := &fakeTransport{accept: true}
	second := &fakeTransport{accept: true}

	hub.Bind("session-1", first)
	hub.Bind("session-1", second)

	assert.True(t, first.displaced)
	assert.False(t, second.displaced)

	hub.Send("session-1", wsenv.SystemMessage("hello"))
	assert.Empty(t, first.frames)
	assert.Len(t, second.frames, 1)
}

func TestHubStaleUnbindKeepsReplacement(t *testing.T) {
	hub := NewHub(testLogger())
	first := &fakeTransport{accept: true}
	second := &fakeTransport{accept: true}

	hub.Bind("session-1", first)
	hub.Bind("session-1", second)

	// The displaced connection cleans up late. Its unbind must not
	// evict the live binding.
	hub.Unbind("session-1", first)

	ok := hub.Send("session-1", wsenv.SystemMessage("still here"))
	assert.True(t, ok)
	assert.Len(t, second.frames, 1)
}

func TestHubUnbindByOwner(t *testing.T) {
	hub := NewHub(testLogger())
	transport := &fakeTransport{accept: true}

	hub.Bind("session-1", transport)
	hub.Unbind("session-1", transport)

	assert.False(t, hub.Send("session-1", wsenv.SystemMessage("gone")))
	assert.Equal(t, 0, hub.Count())
}

func TestHubSendReportsRejectedFrame(t *testing.T) {
	hub := NewHub(testLogger())
	transport := &fakeTransport{accept: false}

	hub.Bind("session-1", transport)

	assert.False(t, hub.Send("session-1", wsenv.SystemMessage("dropped")))
}
