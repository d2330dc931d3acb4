package ports

import (
	"context"
	"time"

	"github.com/commons-hub/community-api/internal/core/domain"
)

// ConversationRepository persists conversation documents.
type ConversationRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Conversation, error)
	// FindDirect returns the direct conversation between a and b regardless of
	// the order the ids are stored in, or domain.ErrConversationNotFound.
	FindDirect(ctx context.Context, a, b domain.ExternalID) (*domain.Conversation, error)
	// FindOrCreateDirect is a single conditional insert keyed on the pair.
	// created reports whether this call inserted the document.
	FindOrCreateDirect(ctx context.Context, requester, other domain.ExternalID, now time.Time) (conv *domain.Conversation, created bool, err error)
	// ListForParticipant returns every conversation id belongs to, newest
	// activity first.
	ListForParticipant(ctx context.Context, id domain.ExternalID) ([]*domain.Conversation, error)
}

// MessageRepository persists the per-conversation message log.
type MessageRepository interface {
	// Append inserts msg and sets the owning conversation's last_message and
	// last_message_at in one transaction. msg.ID is filled in on success.
	Append(ctx context.Context, msg *domain.Message) error
	// ListByConversation returns the full log ascending by created_at.
	ListByConversation(ctx context.Context, conversationID string) ([]*domain.Message, error)
	CountUnread(ctx context.Context, receiver domain.ExternalID) (int64, error)
	// MarkRead flips read on every unread message addressed to receiver in
	// the conversation and returns how many changed.
	MarkRead(ctx context.Context, conversationID string, receiver domain.ExternalID) (int64, error)
}
