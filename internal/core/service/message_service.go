package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

const sendScope = "send"

// directConversations is the find-or-create step MessageService borrows
// from ConversationService.
type directConversations interface {
	FindOrCreate(ctx context.Context, requester, other domain.ExternalID) (*ports.StartConversationResult, error)
}

type MessageService struct {
	messages      ports.MessageRepository
	conversations ports.ConversationRepository
	direct        directConversations
	resolver      ports.IdentityResolver
	dedup         ports.IdempotencyStore
	events        ports.EventPublisher
	log           zerolog.Logger
	now           func() time.Time
}

// NewMessageService wires the message log. dedup and events may be nil, in
// which case idempotency keys are ignored and no realtime events are sent.
func NewMessageService(
	messages ports.MessageRepository,
	conversations ports.ConversationRepository,
	direct directConversations,
	resolver ports.IdentityResolver,
	dedup ports.IdempotencyStore,
	events ports.EventPublisher,
	log zerolog.Logger,
) *MessageService {
	return &MessageService{
		messages:      messages,
		conversations: conversations,
		direct:        direct,
		resolver:      resolver,
		dedup:         dedup,
		events:        events,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SendMessage appends a message from the sender to the receiver and returns
// the id of the conversation it landed in.
func (s *MessageService) SendMessage(ctx context.Context, actor domain.Actor, in ports.SendMessageInput) (*ports.SendMessageResult, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if err := domain.ValidateMessageContent(in.Content); err != nil {
		return nil, err
	}

	// 1. Normalize both participants.
	sender := actor.ExternalID
	if in.SenderID != "" {
		resolved, err := s.resolver.ResolveToExternalID(ctx, in.SenderID)
		if err != nil {
			return nil, err
		}
		if resolved != actor.ExternalID {
			return nil, domain.ErrForbidden
		}
	}
	receiver, err := s.resolver.ResolveToExternalID(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver == sender {
		return nil, domain.Invalid("receiver_id", "cannot message yourself")
	}

	// 2. Claim the idempotency key before writing. Replays of a completed
	// send return the first result; a key still held by a running send is a
	// conflict.
	claimed, sent := false, false
	if in.IdempotencyKey != "" && s.dedup != nil {
		convID, ok, err := s.dedup.Claim(ctx, dedupScope(sender), in.IdempotencyKey)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("sender", sender.String()).Msg("send dedup claim failed, sending anyway")
		case !ok && convID == "":
			return nil, domain.ErrRequestInProgress
		case !ok:
			s.log.Debug().Str("sender", sender.String()).Str("idempotency_key", in.IdempotencyKey).Msg("idempotent send replay")
			return &ports.SendMessageResult{ConversationID: convID, Replayed: true}, nil
		default:
			claimed = true
		}
	}
	if claimed {
		defer func() {
			if sent {
				return
			}
			if err := s.dedup.Release(ctx, dedupScope(sender), in.IdempotencyKey); err != nil {
				s.log.Warn().Err(err).Str("sender", sender.String()).Msg("failed to release send idempotency key")
			}
		}()
	}

	// 3. Locate the conversation.
	result := &ports.SendMessageResult{ConversationID: in.ConversationID}
	if in.ConversationID != "" {
		conv, err := s.conversations.FindByID(ctx, in.ConversationID)
		if err != nil {
			return nil, err
		}
		if !conv.HasParticipant(sender) || !conv.HasParticipant(receiver) {
			return nil, domain.ErrForbidden
		}
	} else {
		started, err := s.direct.FindOrCreate(ctx, sender, receiver)
		if err != nil {
			return nil, err
		}
		result.ConversationID = started.ConversationID
		result.ConversationCreated = started.Created
	}

	// 4. Insert the message and patch the summary atomically.
	msg := &domain.Message{
		ConversationID: result.ConversationID,
		SenderID:       sender,
		ReceiverID:     receiver,
		Content:        in.Content,
		CreatedAt:      s.now().Truncate(time.Millisecond),
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	result.Message = msg
	sent = true

	if claimed {
		if err := s.dedup.Complete(ctx, dedupScope(sender), in.IdempotencyKey, result.ConversationID); err != nil {
			s.log.Warn().Err(err).Str("sender", sender.String()).Msg("failed to store send idempotency key")
		}
	}

	if s.events != nil {
		s.events.Enqueue(domain.RealtimeEvent{
			Type:           domain.EventMessageCreated,
			ConversationID: msg.ConversationID,
			Recipients:     []domain.ExternalID{receiver, sender},
			Message:        msg,
			OccurredAt:     msg.CreatedAt,
		})
	}

	s.log.Info().
		Str("conversation_id", msg.ConversationID).
		Str("message_id", msg.ID).
		Str("sender", sender.String()).
		Msg("message sent")

	return result, nil
}

func dedupScope(sender domain.ExternalID) string {
	return sendScope + ":" + sender.String()
}

// GetMessages re-reads the full log of a conversation the actor belongs to.
func (s *MessageService) GetMessages(ctx context.Context, actor domain.Actor, conversationID string) ([]*domain.Message, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, actor.ExternalID, conversationID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	return msgs, nil
}

// UnreadCount counts unread messages addressed to the actor in any
// conversation.
func (s *MessageService) UnreadCount(ctx context.Context, actor domain.Actor) (int64, error) {
	if err := actor.Require(); err != nil {
		return 0, err
	}
	n, err := s.messages.CountUnread(ctx, actor.ExternalID)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}

// MarkConversationRead is the read-receipt path.
func (s *MessageService) MarkConversationRead(ctx context.Context, actor domain.Actor, conversationID string) (int64, error) {
	if err := actor.Require(); err != nil {
		return 0, err
	}
	if err := s.requireMember(ctx, actor.ExternalID, conversationID); err != nil {
		return 0, err
	}

	n, err := s.messages.MarkRead(ctx, conversationID, actor.ExternalID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return n, nil
}

func (s *MessageService) requireMember(ctx context.Context, member domain.ExternalID, conversationID string) error {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(member) {
		return domain.ErrForbidden
	}
	return nil
}
