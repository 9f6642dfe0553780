package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Chat gateway metrics, exposed on the shared /metrics endpoint.
var (
	ChatMessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_received_total",
		Help: "Inbound chat messages accepted from websocket clients",
	})

	ChatMessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_sent_total",
		Help: "Outbound chat frames pushed to websocket clients",
	})

	ChatInputsBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_inputs_blocked_total",
		Help: "Inbound messages refused by the security screen",
	})

	ChatTransfers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_transfers_total",
		Help: "Sessions handed off to a human agent",
	})

	ChatActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_active_connections",
		Help: "Currently bound websocket connections",
	})

	AgentReplyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chat_agent_reply_duration_seconds",
		Help:    "Latency of agent reply generation including tool calls",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)
