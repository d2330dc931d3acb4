package ports

import (
	"context"

	"github.com/commons-hub/community-api/internal/core/domain"
)

// CreateOrganizationInput carries the fields of a new organization.
type CreateOrganizationInput struct {
	Name        string
	Description string
	LogoRef     string
}

// CreateChecklistInput carries the fields of a new checklist.
type CreateChecklistInput struct {
	OrganizationID string
	Title          string
	Items          []string
}

type BoardService interface {
	CreateOrganization(ctx context.Context, actor domain.Actor, in CreateOrganizationInput) (*domain.Organization, error)
	GetOrganization(ctx context.Context, id string) (*domain.Organization, error)
	UpdateOrganization(ctx context.Context, actor domain.Actor, id string, patch domain.OrganizationPatch) (*domain.Organization, error)

	CreateChecklist(ctx context.Context, actor domain.Actor, in CreateChecklistInput) (*domain.Checklist, error)
	GetChecklist(ctx context.Context, id string) (*domain.Checklist, error)

	CreateTask(ctx context.Context, actor domain.Actor, in domain.NewTask) (string, error)
	// ListTasks returns the organization's tasks, optionally only those in
	// category.
	ListTasks(ctx context.Context, orgID, category string) ([]*domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.TaskDetail, error)
	DeleteTask(ctx context.Context, actor domain.Actor, id string) error
}

// SubmissionInput is a member's response to a task.
type SubmissionInput struct {
	TaskID  string
	FileRef string
	Note    string
}

type SubmissionService interface {
	CreateSubmission(ctx context.Context, actor domain.Actor, in SubmissionInput) (*domain.Submission, error)
	ReviewSubmission(ctx context.Context, actor domain.Actor, id, status string) (*domain.Submission, error)
	ListSubmissions(ctx context.Context, actor domain.Actor, taskID string) ([]*domain.Submission, error)
	ListMySubmissions(ctx context.Context, actor domain.Actor) ([]*domain.Submission, error)
}

type NotificationService interface {
	Notify(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, actor domain.Actor, limit int) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, actor domain.Actor, id string) error
	UnreadCount(ctx context.Context, actor domain.Actor) (int64, error)
}
