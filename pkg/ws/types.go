package ws

import (
	"time"
)

// Inbound frame types
const (
	TypeMessage      = "message"
	TypeRequestHuman = "request_human"
)

// Outbound frame types. Bot and system frames carry is_agent; the
// transfer acknowledgement additionally carries transferred.
const (
	TypeBot    = "bot"
	TypeUser   = "user"
	TypeSystem = "system"
	TypeError  = "error"
)

// Fixed gateway copy
const (
	WelcomeMessage = "Hello! Welcome to Lush Moments. I'm here to help you with event decorations, packages, and bookings. How can I assist you today?"

	TransferAck = "I've transferred you to a human agent. One of our team members will be with you shortly!"

	WaitingPlaceholder = "A human agent will respond to your message shortly. Thank you for your patience!"

	DefaultTransferReason = "User requested human assistance"
)

// InboundEnvelope is a frame received from the browser. Type selects
// the handling; unrecognized types are treated as plain messages.
type InboundEnvelope struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// OutboundEnvelope is a frame pushed to the browser.
type OutboundEnvelope struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	Timestamp   string `json:"timestamp"`
	IsAgent     *bool  `json:"is_agent,omitempty"`
	Transferred *bool  `json:"transferred,omitempty"`
}

func newOutbound(frameType, message string) OutboundEnvelope {
	return OutboundEnvelope{
		Type:      frameType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// UserEcho confirms receipt of the visitor's own message.
func UserEcho(message string) OutboundEnvelope {
	return newOutbound(TypeUser, message)
}

// AgentMessage carries a model-generated reply.
func AgentMessage(message string) OutboundEnvelope {
	env := newOutbound(TypeBot, message)
	isAgent := true
	env.IsAgent = &isAgent
	return env
}

// BotNotice carries bot-role copy not produced by the model: the
// waiting placeholder and human operator replies.
func BotNotice(message string) OutboundEnvelope {
	env := newOutbound(TypeBot, message)
	isAgent := false
	env.IsAgent = &isAgent
	return env
}

// SystemMessage carries gateway status copy.
func SystemMessage(message string) OutboundEnvelope {
	env := newOutbound(TypeSystem, message)
	isAgent := true
	env.IsAgent = &isAgent
	return env
}

// TransferNotice acknowledges a handoff to a human.
func TransferNotice(message string) OutboundEnvelope {
	env := SystemMessage(message)
	transferred := true
	env.Transferred = &transferred
	return env
}

// ErrorMessage reports a malformed frame back to the sender.
func ErrorMessage(message string) OutboundEnvelope {
	return newOutbound(TypeError, message)
}
