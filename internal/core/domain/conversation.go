package domain

import "time"

// ConversationType distinguishes two-party threads from group threads.
type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	// ConversationGroup is part of the stored model; no operation creates one yet.
	ConversationGroup ConversationType = "group"
)

// Conversation is a messaging thread. LastMessage and LastMessageAt are a
// denormalized summary of the newest message so list views need no join.
type Conversation struct {
	ID             string           `json:"id"`
	Type           ConversationType `json:"type"`
	ParticipantIDs []ExternalID     `json:"participant_ids"`
	CreatedAt      time.Time        `json:"created_at"`
	LastMessageAt  time.Time        `json:"last_message_at"`
	LastMessage    *string          `json:"last_message,omitempty"`
}

// HasParticipant reports whether id is a member of the conversation.
func (c *Conversation) HasParticipant(id ExternalID) bool {
	for _, p := range c.ParticipantIDs {
		if p == id {
			return true
		}
	}
	return false
}

// OtherParticipant returns the first participant that is not self. For a
// direct conversation that is the counterpart.
func (c *Conversation) OtherParticipant(self ExternalID) (ExternalID, bool) {
	for _, p := range c.ParticipantIDs {
		if p != self {
			return p, true
		}
	}
	return "", false
}

// PairKey is the order-independent key of a direct conversation between a
// and b. It is unique per pair at the storage layer.
func PairKey(a, b ExternalID) string {
	if b < a {
		a, b = b, a
	}
	return string(a) + "|" + string(b)
}

// ConversationWithOtherUser is a list row: the conversation plus the profile
// of the counterpart. OtherUser is nil when that user has not signed in yet.
type ConversationWithOtherUser struct {
	Conversation
	OtherUserID ExternalID `json:"other_user_id"`
	OtherUser   *User      `json:"other_user,omitempty"`
}
