// Package metrics defines and registers all custom Prometheus metrics for the
// community API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "community"

// ── Messaging metrics ─────────────────────────────────────────────────────────

// MessagesSentTotal counts messages appended to a conversation.
// Label:
//   - outcome: "sent", "replayed" (idempotent retry) or "error"
var MessagesSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Total number of send attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ConversationsStartedTotal counts find-or-create calls.
// Label:
//   - result: "created" or "existing"
var ConversationsStartedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "conversations_started_total",
		Help:      "Total number of conversation starts, labelled by whether a conversation was created.",
	},
	[]string{"result"},
)

// SendDedupTotal counts idempotency-key decisions on send.
// Label:
//   - result: "hit" (replayed) or "miss" (new send)
var SendDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "send_dedup_total",
		Help:      "Total number of idempotency checks on send, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Board metrics ─────────────────────────────────────────────────────────────

// TasksCreatedTotal counts tasks added to boards.
// Label:
//   - reward_kind: "points" or "award"
var TasksCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created, by reward kind.",
	},
	[]string{"reward_kind"},
)

// SubmissionsTotal counts submission writes.
// Label:
//   - status: the status written ("pending" on create, the review status otherwise)
var SubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Total number of submission writes, by resulting status.",
	},
	[]string{"status"},
)

// ── Realtime metrics ──────────────────────────────────────────────────────────

// RealtimeQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var RealtimeQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// RealtimePublishDuration measures how long publishing a single event takes.
// Label:
//   - type: the event type, or "error" on failure
var RealtimePublishDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "realtime_publish_duration_seconds",
		Help:      "Duration of realtime event publishing from dequeue to broker ack.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"type"},
)

// RealtimeDeliveredTotal counts events pushed to sockets.
// Label:
//   - result: "delivered" or "dropped" (slow client)
var RealtimeDeliveredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "realtime_delivered_total",
		Help:      "Total number of events handed to connected sockets, by result.",
	},
	[]string{"result"},
)

// RealtimeConnections tracks currently open websocket sessions.
var RealtimeConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "realtime_connections",
		Help:      "Number of open websocket sessions on this instance.",
	},
)
