package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, env OutboundEnvelope) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestOutboundFrameKinds(t *testing.T) {
	echo := decode(t, UserEcho("hi"))
	assert.Equal(t, "user", echo["type"])
	assert.NotContains(t, echo, "is_agent")
	assert.NotContains(t, echo, "transferred")

	reply := decode(t, AgentMessage("hello"))
	assert.Equal(t, "bot", reply["type"])
	assert.Equal(t, true, reply["is_agent"])

	notice := decode(t, BotNotice(WaitingPlaceholder))
	assert.Equal(t, "bot", notice["type"])
	assert.Equal(t, false, notice["is_agent"])
	assert.NotContains(t, notice, "transferred")

	ack := decode(t, TransferNotice(TransferAck))
	assert.Equal(t, "system", ack["type"])
	assert.Equal(t, true, ack["transferred"])
}

func TestOutboundFramesCarryTimestamp(t *testing.T) {
	out := decode(t, SystemMessage("status"))
	ts, ok := out["timestamp"].(string)
	require.True(t, ok)
	assert.NotEmpty(t, ts)
}
