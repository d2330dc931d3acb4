package domain

import "time"

const (
	EventMessageCreated      = "message.created"
	EventNotificationCreated = "notification.created"
)

// RealtimeEvent is pushed to connected clients after a write commits.
// Recipients lists every external id that should receive it.
type RealtimeEvent struct {
	Type           string        `json:"type"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Recipients     []ExternalID  `json:"recipients"`
	Message        *Message      `json:"message,omitempty"`
	Notification   *Notification `json:"notification,omitempty"`
	OccurredAt     time.Time     `json:"occurred_at"`
}

// ShardKey groups events that must be delivered in order.
func (e RealtimeEvent) ShardKey() string {
	if e.ConversationID != "" {
		return e.ConversationID
	}
	if len(e.Recipients) > 0 {
		return string(e.Recipients[0])
	}
	return e.Type
}
