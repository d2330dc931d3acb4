package ports

import (
	"context"
	"time"

	"github.com/commons-hub/community-api/internal/core/domain"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	FindByID(ctx context.Context, id string) (*domain.Organization, error)
	Update(ctx context.Context, id string, patch domain.OrganizationPatch, now time.Time) (*domain.Organization, error)
}

type ChecklistRepository interface {
	Create(ctx context.Context, c *domain.Checklist) error
	FindByID(ctx context.Context, id string) (*domain.Checklist, error)
}

// TaskRepository persists board items. Deleting a task does not touch its
// submissions.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) error
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*domain.Task, error)
	Delete(ctx context.Context, id string) error
}

type SubmissionRepository interface {
	Create(ctx context.Context, s *domain.Submission) error
	FindByID(ctx context.Context, id string) (*domain.Submission, error)
	ListByTask(ctx context.Context, taskID string) ([]*domain.Submission, error)
	ListByUser(ctx context.Context, userID domain.ExternalID) ([]*domain.Submission, error)
	UpdateStatus(ctx context.Context, id string, status domain.SubmissionStatus, reviewer domain.ExternalID, now time.Time) (*domain.Submission, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// ListByUser returns the newest notifications first, at most limit.
	ListByUser(ctx context.Context, userID domain.ExternalID, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id string, userID domain.ExternalID) error
	CountUnread(ctx context.Context, userID domain.ExternalID) (int64, error)
}
