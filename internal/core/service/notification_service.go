package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

type NotificationService struct {
	repo   ports.NotificationRepository
	events ports.EventPublisher
	log    zerolog.Logger
	now    func() time.Time
}

// NewNotificationService wires the inbox. events may be nil.
func NewNotificationService(repo ports.NotificationRepository, events ports.EventPublisher, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		events: events,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Notify stores n in the recipient's inbox and pushes it to connected
// sessions.
func (s *NotificationService) Notify(ctx context.Context, n *domain.Notification) error {
	if n.UserID == "" {
		return domain.Invalid("user_id", "notification recipient is required")
	}
	n.Read = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	if s.events != nil {
		s.events.Enqueue(domain.RealtimeEvent{
			Type:         domain.EventNotificationCreated,
			Recipients:   []domain.ExternalID{n.UserID},
			Notification: n,
			OccurredAt:   n.CreatedAt,
		})
	}

	s.log.Debug().Str("user", n.UserID.String()).Str("type", n.Type).Msg("notification created")
	return nil
}

func (s *NotificationService) List(ctx context.Context, actor domain.Actor, limit int) ([]*domain.Notification, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultNotificationLimit
	case limit > maxNotificationLimit:
		limit = maxNotificationLimit
	}
	return s.repo.ListByUser(ctx, actor.ExternalID, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, actor domain.Actor, id string) error {
	if err := actor.Require(); err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, id, actor.ExternalID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, actor domain.Actor) (int64, error) {
	if err := actor.Require(); err != nil {
		return 0, err
	}
	return s.repo.CountUnread(ctx, actor.ExternalID)
}
