package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

type submissionFixture struct {
	board  *BoardService
	subs   *SubmissionService
	notifs *NotificationService
	inbox  *stubNotificationRepo
	pub    *recordingPublisher
	org    *domain.Organization
	taskID string
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	repo := newStubBoardRepo()
	f := &submissionFixture{
		board: NewBoardService(stubOrgRepo{repo}, stubChecklistRepo{repo}, stubTaskRepo{repo}, zerolog.Nop()),
		inbox: &stubNotificationRepo{},
		pub:   &recordingPublisher{},
	}
	f.notifs = NewNotificationService(f.inbox, f.pub, zerolog.Nop())
	f.subs = NewSubmissionService(newStubSubmissionRepo(), stubTaskRepo{repo}, stubOrgRepo{repo}, f.notifs, zerolog.Nop())

	f.org = createOrg(t, f.board, "user_admin")
	id, err := f.board.CreateTask(context.Background(), actor("user_admin"), domain.NewTask{
		OrganizationID: f.org.ID, Category: "design", Name: "Logo", Reward: domain.PointsReward(500),
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	f.taskID = id
	return f
}

func TestSubmissionService_CreateNotifiesAdmin(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	sub, err := f.subs.CreateSubmission(ctx, actor("user_member"), ports.SubmissionInput{TaskID: f.taskID, FileRef: "file_1"})
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	if sub.Status != domain.SubmissionPending || sub.OrganizationID != f.org.ID {
		t.Fatalf("unexpected submission %+v", sub)
	}

	inbox := f.inbox.forUser("user_admin")
	if len(inbox) != 1 {
		t.Fatalf("expected exactly one admin notification, got %d", len(inbox))
	}
	if inbox[0].Type != domain.NotificationTaskSubmission || inbox[0].RelatedID != sub.ID {
		t.Fatalf("unexpected notification %+v", inbox[0])
	}
	if len(f.inbox.forUser("user_member")) != 0 {
		t.Fatalf("submitter must not be notified on create")
	}
	if len(f.pub.events) != 1 || f.pub.events[0].Type != domain.EventNotificationCreated {
		t.Fatalf("expected a realtime notification event, got %+v", f.pub.events)
	}
}

func TestSubmissionService_CreateMissingTask(t *testing.T) {
	f := newSubmissionFixture(t)

	_, err := f.subs.CreateSubmission(context.Background(), actor("user_member"), ports.SubmissionInput{TaskID: "task_missing"})
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if len(f.inbox.items) != 0 {
		t.Fatalf("no notification expected")
	}
}

func TestSubmissionService_ReviewNotifiesSubmitter(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	sub, _ := f.subs.CreateSubmission(ctx, actor("user_member"), ports.SubmissionInput{TaskID: f.taskID})

	updated, err := f.subs.ReviewSubmission(ctx, actor("user_admin"), sub.ID, "approved")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if updated.Status != domain.SubmissionApproved || updated.ReviewedBy != "user_admin" {
		t.Fatalf("unexpected submission %+v", updated)
	}

	inbox := f.inbox.forUser("user_member")
	if len(inbox) != 1 || inbox[0].Type != domain.NotificationSubmissionStatus {
		t.Fatalf("expected one status notification, got %+v", inbox)
	}

	// Any status may follow any other.
	if _, err := f.subs.ReviewSubmission(ctx, actor("user_admin"), sub.ID, "pending"); err != nil {
		t.Fatalf("re-review: %v", err)
	}
}

func TestSubmissionService_ReviewRules(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	sub, _ := f.subs.CreateSubmission(ctx, actor("user_member"), ports.SubmissionInput{TaskID: f.taskID})

	if _, err := f.subs.ReviewSubmission(ctx, actor("user_admin"), sub.ID, "done"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.subs.ReviewSubmission(ctx, actor("user_member"), sub.ID, "approved"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := f.subs.ReviewSubmission(ctx, actor("user_admin"), "sub_missing", "approved"); !errors.Is(err, domain.ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestSubmissionService_Listing(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	_, _ = f.subs.CreateSubmission(ctx, actor("user_member"), ports.SubmissionInput{TaskID: f.taskID})
	_, _ = f.subs.CreateSubmission(ctx, actor("user_other"), ports.SubmissionInput{TaskID: f.taskID})

	all, err := f.subs.ListSubmissions(ctx, actor("user_admin"), f.taskID)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 submissions, got %d (%v)", len(all), err)
	}
	if _, err := f.subs.ListSubmissions(ctx, actor("user_member"), f.taskID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	mine, _ := f.subs.ListMySubmissions(ctx, actor("user_member"))
	if len(mine) != 1 {
		t.Fatalf("expected 1 own submission, got %d", len(mine))
	}
}

func TestNotificationService_InboxLifecycle(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	_, _ = f.subs.CreateSubmission(ctx, actor("user_member"), ports.SubmissionInput{TaskID: f.taskID})

	n, _ := f.notifs.UnreadCount(ctx, actor("user_admin"))
	if n != 1 {
		t.Fatalf("expected 1 unread, got %d", n)
	}
	list, err := f.notifs.List(ctx, actor("user_admin"), 0)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected 1 notification, got %d (%v)", len(list), err)
	}

	if err := f.notifs.MarkRead(ctx, actor("user_member"), list[0].ID); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("expected another user's notification to be hidden, got %v", err)
	}
	if err := f.notifs.MarkRead(ctx, actor("user_admin"), list[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	n, _ = f.notifs.UnreadCount(ctx, actor("user_admin"))
	if n != 0 {
		t.Fatalf("expected 0 unread, got %d", n)
	}
}

func TestNotificationService_NotifyRequiresRecipient(t *testing.T) {
	svc := NewNotificationService(&stubNotificationRepo{}, nil, zerolog.Nop())

	if err := svc.Notify(context.Background(), &domain.Notification{Type: "x"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNotificationService_ListClampsLimit(t *testing.T) {
	inbox := &stubNotificationRepo{}
	svc := NewNotificationService(inbox, nil, zerolog.Nop())
	ctx := context.Background()
	for i := 0; i < maxNotificationLimit+5; i++ {
		if err := svc.Notify(ctx, &domain.Notification{UserID: "user_admin", Type: "x"}); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, defaultNotificationLimit},
		{-3, defaultNotificationLimit},
		{10, 10},
		{maxNotificationLimit + 100, maxNotificationLimit},
	}
	for _, tt := range tests {
		list, err := svc.List(ctx, actor("user_admin"), tt.limit)
		if err != nil {
			t.Fatalf("limit %d: %v", tt.limit, err)
		}
		if len(list) != tt.want {
			t.Errorf("limit %d: got %d notifications, want %d", tt.limit, len(list), tt.want)
		}
	}
}

func TestSubmissionService_NotificationFailureDoesNotFailWrites(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	f.inbox.createErr = errors.New("mongo down")

	sub, err := f.subs.CreateSubmission(ctx, actor("user_member"), ports.SubmissionInput{TaskID: f.taskID})
	if err != nil {
		t.Fatalf("expected the submission to succeed, got %v", err)
	}
	mine, _ := f.subs.ListMySubmissions(ctx, actor("user_member"))
	if len(mine) != 1 {
		t.Fatalf("expected one stored submission, got %d", len(mine))
	}

	updated, err := f.subs.ReviewSubmission(ctx, actor("user_admin"), sub.ID, "rejected")
	if err != nil {
		t.Fatalf("expected the review to succeed, got %v", err)
	}
	if updated.Status != domain.SubmissionRejected {
		t.Fatalf("unexpected status %s", updated.Status)
	}
	if len(f.inbox.items) != 0 || len(f.pub.events) != 0 {
		t.Fatalf("expected no notifications, got %d stored and %d events", len(f.inbox.items), len(f.pub.events))
	}
}
