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

// SubmissionService records members' responses to tasks and notifies the
// other side on every change.
type SubmissionService struct {
	submissions ports.SubmissionRepository
	tasks       ports.TaskRepository
	orgs        ports.OrganizationRepository
	notifier    ports.NotificationService
	log         zerolog.Logger
	now         func() time.Time
}

func NewSubmissionService(
	submissions ports.SubmissionRepository,
	tasks ports.TaskRepository,
	orgs ports.OrganizationRepository,
	notifier ports.NotificationService,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		submissions: submissions,
		tasks:       tasks,
		orgs:        orgs,
		notifier:    notifier,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateSubmission stores a pending submission and notifies the admin of the
// task's organization.
func (s *SubmissionService) CreateSubmission(ctx context.Context, actor domain.Actor, in ports.SubmissionInput) (*domain.Submission, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	if in.TaskID == "" {
		return nil, domain.Invalid("task_id", "is required")
	}

	task, err := s.tasks.FindByID(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	org, err := s.orgs.FindByID(ctx, task.OrganizationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub := &domain.Submission{
		TaskID:         task.ID,
		OrganizationID: org.ID,
		UserID:         actor.ExternalID,
		FileRef:        in.FileRef,
		Note:           in.Note,
		Status:         domain.SubmissionPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	s.notify(ctx, &domain.Notification{
		UserID:    org.AdminID,
		Type:      domain.NotificationTaskSubmission,
		Title:     "New submission",
		Message:   fmt.Sprintf("A new submission was received for %q", task.Name),
		RelatedID: sub.ID,
		CreatedAt: now,
	})

	s.log.Info().
		Str("submission_id", sub.ID).
		Str("task_id", task.ID).
		Str("user", actor.ExternalID.String()).
		Msg("submission created")
	return sub, nil
}

// ReviewSubmission sets the status of a submission and notifies the
// submitter. Any status may follow any other.
func (s *SubmissionService) ReviewSubmission(ctx context.Context, actor domain.Actor, id, status string) (*domain.Submission, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	next, err := domain.ParseSubmissionStatus(status)
	if err != nil {
		return nil, err
	}

	sub, err := s.submissions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, actor, sub.OrganizationID); err != nil {
		return nil, err
	}

	updated, err := s.submissions.UpdateStatus(ctx, id, next, actor.ExternalID, s.now())
	if err != nil {
		return nil, fmt.Errorf("review submission: %w", err)
	}

	taskName := "a task"
	if task, err := s.tasks.FindByID(ctx, sub.TaskID); err == nil {
		taskName = fmt.Sprintf("%q", task.Name)
	} else if !errors.Is(err, domain.ErrTaskNotFound) {
		s.log.Warn().Err(err).Str("task_id", sub.TaskID).Msg("task lookup for review notification failed")
	}

	s.notify(ctx, &domain.Notification{
		UserID:    updated.UserID,
		Type:      domain.NotificationSubmissionStatus,
		Title:     "Submission " + string(next),
		Message:   fmt.Sprintf("Your submission for %s is now %s", taskName, next),
		RelatedID: updated.ID,
		CreatedAt: updated.UpdatedAt,
	})

	s.log.Info().Str("submission_id", id).Str("status", string(next)).Msg("submission reviewed")
	return updated, nil
}

// ListSubmissions returns the submissions of a task to its organization admin.
func (s *SubmissionService) ListSubmissions(ctx context.Context, actor domain.Actor, taskID string) ([]*domain.Submission, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(ctx, actor, task.OrganizationID); err != nil {
		return nil, err
	}
	return s.submissions.ListByTask(ctx, taskID)
}

func (s *SubmissionService) ListMySubmissions(ctx context.Context, actor domain.Actor) ([]*domain.Submission, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	return s.submissions.ListByUser(ctx, actor.ExternalID)
}

func (s *SubmissionService) requireAdmin(ctx context.Context, actor domain.Actor, orgID string) error {
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return err
	}
	if !org.IsAdmin(actor.ExternalID) {
		return domain.ErrForbidden
	}
	return nil
}

// notify delivers a side-effect notification. The write it follows has
// already landed, so a failure here is logged and never fails the request.
func (s *SubmissionService) notify(ctx context.Context, n *domain.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn().
			Err(err).
			Str("user", n.UserID.String()).
			Str("type", n.Type).
			Str("related_id", n.RelatedID).
			Msg("notification failed")
	}
}
