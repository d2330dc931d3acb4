package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

type ConversationService struct {
	conversations ports.ConversationRepository
	users         ports.UserRepository
	resolver      ports.IdentityResolver
	log           zerolog.Logger
	now           func() time.Time
}

func NewConversationService(
	conversations ports.ConversationRepository,
	users ports.UserRepository,
	resolver ports.IdentityResolver,
	log zerolog.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		users:         users,
		resolver:      resolver,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// FindConversation looks up the direct conversation between a and b. Either
// id flavor is accepted; a missing conversation is (nil, nil).
func (s *ConversationService) FindConversation(ctx context.Context, a, b string) (*domain.Conversation, error) {
	ea, err := s.resolver.ResolveToExternalID(ctx, a)
	if err != nil {
		return nil, err
	}
	eb, err := s.resolver.ResolveToExternalID(ctx, b)
	if err != nil {
		return nil, err
	}

	conv, err := s.conversations.FindDirect(ctx, ea, eb)
	if errors.Is(err, domain.ErrConversationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return conv, nil
}

// StartConversation returns the direct conversation between the actor and
// otherID, creating it when it does not exist yet.
func (s *ConversationService) StartConversation(ctx context.Context, actor domain.Actor, otherID string) (*ports.StartConversationResult, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}

	other, err := s.resolver.ResolveToExternalID(ctx, otherID)
	if err != nil {
		return nil, err
	}
	if other == actor.ExternalID {
		return nil, domain.Invalid("other_user_id", "cannot start a conversation with yourself")
	}

	return s.FindOrCreate(ctx, actor.ExternalID, other)
}

// FindOrCreate is the find-or-create step shared with message sending. Both
// ids must already be resolved.
func (s *ConversationService) FindOrCreate(ctx context.Context, requester, other domain.ExternalID) (*ports.StartConversationResult, error) {
	conv, created, err := s.conversations.FindOrCreateDirect(ctx, requester, other, s.now())
	if err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}

	if created {
		s.log.Info().
			Str("conversation_id", conv.ID).
			Str("requester", requester.String()).
			Str("other", other.String()).
			Msg("conversation created")
	}

	return &ports.StartConversationResult{ConversationID: conv.ID, Created: created}, nil
}

// GetConversation returns a conversation the actor participates in.
func (s *ConversationService) GetConversation(ctx context.Context, actor domain.Actor, id string) (*domain.Conversation, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	return s.memberConversation(ctx, actor.ExternalID, id)
}

func (s *ConversationService) memberConversation(ctx context.Context, member domain.ExternalID, id string) (*domain.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(member) {
		return nil, domain.ErrForbidden
	}
	return conv, nil
}

// ListConversations returns the actor's conversations, newest activity
// first, each with the counterpart's profile attached.
func (s *ConversationService) ListConversations(ctx context.Context, actor domain.Actor) ([]domain.ConversationWithOtherUser, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}

	convs, err := s.conversations.ListForParticipant(ctx, actor.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	otherIDs := make([]domain.ExternalID, 0, len(convs))
	for _, c := range convs {
		if other, ok := c.OtherParticipant(actor.ExternalID); ok {
			otherIDs = append(otherIDs, other)
		}
	}

	profiles := make(map[domain.ExternalID]*domain.User, len(otherIDs))
	if len(otherIDs) > 0 {
		users, err := s.users.FindByExternalIDs(ctx, otherIDs)
		if err != nil {
			return nil, fmt.Errorf("list conversations: load participants: %w", err)
		}
		for _, u := range users {
			profiles[u.ExternalID] = u
		}
	}

	out := make([]domain.ConversationWithOtherUser, 0, len(convs))
	for _, c := range convs {
		row := domain.ConversationWithOtherUser{Conversation: *c}
		if other, ok := c.OtherParticipant(actor.ExternalID); ok {
			row.OtherUserID = other
			row.OtherUser = profiles[other]
		}
		out = append(out, row)
	}
	return out, nil
}
