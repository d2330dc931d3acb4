package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength bounds the content of a single message, in runes.
const MaxMessageLength = 4000

// Message is an entry in a conversation's append-only log. Only Read ever
// changes after insert.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       ExternalID `json:"sender_id"`
	ReceiverID     ExternalID `json:"receiver_id"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	Read           bool       `json:"read"`
}

// ValidateMessageContent rejects blank and oversized messages.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return Invalid("content", "must not be blank")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return Invalid("content", "is too long")
	}
	return nil
}
