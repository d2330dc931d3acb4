package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

// BoardService manages organizations, their checklists and their tasks.
type BoardService struct {
	orgs       ports.OrganizationRepository
	checklists ports.ChecklistRepository
	tasks      ports.TaskRepository
	log        zerolog.Logger
	now        func() time.Time
}

func NewBoardService(
	orgs ports.OrganizationRepository,
	checklists ports.ChecklistRepository,
	tasks ports.TaskRepository,
	log zerolog.Logger,
) *BoardService {
	return &BoardService{
		orgs:       orgs,
		checklists: checklists,
		tasks:      tasks,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrganization creates an organization administered by the actor.
func (s *BoardService) CreateOrganization(ctx context.Context, actor domain.Actor, in ports.CreateOrganizationInput) (*domain.Organization, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name", "is required")
	}

	now := s.now()
	org := &domain.Organization{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		LogoRef:     in.LogoRef,
		AdminID:     actor.ExternalID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	s.log.Info().Str("organization_id", org.ID).Str("admin", actor.ExternalID.String()).Msg("organization created")
	return org, nil
}

func (s *BoardService) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	return s.orgs.FindByID(ctx, id)
}

// UpdateOrganization patches an organization the actor administers.
func (s *BoardService) UpdateOrganization(ctx context.Context, actor domain.Actor, id string, patch domain.OrganizationPatch) (*domain.Organization, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	org, err := s.adminOrganization(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return org, nil
	}
	return s.orgs.Update(ctx, id, patch, s.now())
}

// adminOrganization loads the organization and checks the actor manages it.
func (s *BoardService) adminOrganization(ctx context.Context, actor domain.Actor, orgID string) (*domain.Organization, error) {
	if err := actor.Require(); err != nil {
		return nil, err
	}
	org, err := s.orgs.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsAdmin(actor.ExternalID) {
		return nil, domain.ErrForbidden
	}
	return org, nil
}

func (s *BoardService) CreateChecklist(ctx context.Context, actor domain.Actor, in ports.CreateChecklistInput) (*domain.Checklist, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Invalid("title", "is required")
	}
	if _, err := s.adminOrganization(ctx, actor, in.OrganizationID); err != nil {
		return nil, err
	}

	items := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}

	c := &domain.Checklist{
		OrganizationID: in.OrganizationID,
		Title:          title,
		Items:          items,
		CreatedAt:      s.now(),
	}
	if err := s.checklists.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create checklist: %w", err)
	}
	return c, nil
}

func (s *BoardService) GetChecklist(ctx context.Context, id string) (*domain.Checklist, error) {
	return s.checklists.FindByID(ctx, id)
}

// CreateTask adds a pending task to the organization's board.
func (s *BoardService) CreateTask(ctx context.Context, actor domain.Actor, in domain.NewTask) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	org, err := s.adminOrganization(ctx, actor, in.OrganizationID)
	if err != nil {
		return "", err
	}

	if in.ChecklistID != "" {
		checklist, err := s.checklists.FindByID(ctx, in.ChecklistID)
		if err != nil {
			return "", err
		}
		if checklist.OrganizationID != org.ID {
			return "", domain.Invalid("checklist_id", "belongs to another organization")
		}
	}

	now := s.now()
	task := &domain.Task{
		OrganizationID: org.ID,
		Category:       strings.TrimSpace(in.Category),
		Name:           strings.TrimSpace(in.Name),
		Text:           in.Text,
		ForRole:        in.ForRole,
		Reward:         in.Reward,
		Description:    in.Description,
		Explanation:    in.Explanation,
		Status:         domain.TaskStatusPending,
		ChecklistID:    in.ChecklistID,
		CreatedBy:      actor.ExternalID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}

	s.log.Info().
		Str("task_id", task.ID).
		Str("organization_id", org.ID).
		Str("category", task.Category).
		Str("reward_kind", string(task.Reward.Kind())).
		Msg("task created")
	return task.ID, nil
}

// ListTasks returns the organization's tasks, narrowed to category when it
// is non-empty.
func (s *BoardService) ListTasks(ctx context.Context, orgID, category string) ([]*domain.Task, error) {
	tasks, err := s.tasks.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	category = strings.TrimSpace(category)
	if category == "" {
		return tasks, nil
	}
	filtered := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Category == category {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// GetTask joins a task with its organization and checklist. A dangling
// reference leaves the joined field nil.
func (s *BoardService) GetTask(ctx context.Context, id string) (*domain.TaskDetail, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &domain.TaskDetail{Task: *task}

	org, err := s.orgs.FindByID(ctx, task.OrganizationID)
	switch {
	case err == nil:
		detail.Company = org
	case !errors.Is(err, domain.ErrOrganizationNotFound):
		return nil, fmt.Errorf("get task: load organization: %w", err)
	}

	if task.ChecklistID != "" {
		checklist, err := s.checklists.FindByID(ctx, task.ChecklistID)
		switch {
		case err == nil:
			detail.Checklist = checklist
		case !errors.Is(err, domain.ErrChecklistNotFound):
			return nil, fmt.Errorf("get task: load checklist: %w", err)
		}
	}
	return detail, nil
}

// DeleteTask removes a task. Submissions that reference it are kept.
func (s *BoardService) DeleteTask(ctx context.Context, actor domain.Actor, id string) error {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.adminOrganization(ctx, actor, task.OrganizationID); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.log.Info().Str("task_id", id).Msg("task deleted")
	return nil
}
