package ports

import (
	"context"

	"github.com/commons-hub/community-api/internal/core/domain"
)

// IdentityResolver normalizes either id flavor to the external id.
type IdentityResolver interface {
	ResolveToExternalID(ctx context.Context, candidate string) (domain.ExternalID, error)
}

// ConversationService finds, creates and lists conversations.
type ConversationService interface {
	// FindConversation returns the direct conversation between a and b, or
	// nil when there is none.
	FindConversation(ctx context.Context, a, b string) (*domain.Conversation, error)
	StartConversation(ctx context.Context, actor domain.Actor, otherID string) (*StartConversationResult, error)
	GetConversation(ctx context.Context, actor domain.Actor, id string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, actor domain.Actor) ([]domain.ConversationWithOtherUser, error)
}

// StartConversationResult carries the conversation id and whether this call
// created it.
type StartConversationResult struct {
	ConversationID string
	Created        bool
}

// SendMessageInput is the DTO for MessageService.SendMessage. SenderID may
// be empty, in which case the actor is the sender.
type SendMessageInput struct {
	Content        string
	SenderID       string
	ReceiverID     string
	ConversationID string
	IdempotencyKey string
}

// SendMessageResult is returned by SendMessage. Message is nil when the
// call was an idempotent replay.
type SendMessageResult struct {
	ConversationID      string
	Message             *domain.Message
	ConversationCreated bool
	Replayed            bool
}

// MessageService appends to and reads from conversation logs.
type MessageService interface {
	SendMessage(ctx context.Context, actor domain.Actor, in SendMessageInput) (*SendMessageResult, error)
	GetMessages(ctx context.Context, actor domain.Actor, conversationID string) ([]*domain.Message, error)
	UnreadCount(ctx context.Context, actor domain.Actor) (int64, error)
	MarkConversationRead(ctx context.Context, actor domain.Actor, conversationID string) (int64, error)
}
