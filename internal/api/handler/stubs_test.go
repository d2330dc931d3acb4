package handler

import (
	"context"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/commons-hub/community-api/internal/api/middleware"
	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
)

// Each stub embeds its port so only the methods a test sets are callable.

type stubAccountService struct {
	ports.AccountService
	registerFn func(ctx context.Context, email, password, displayName string) (*domain.Account, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.Account, error)
}

func (s *stubAccountService) Register(ctx context.Context, email, password, displayName string) (*domain.Account, error) {
	return s.registerFn(ctx, email, password, displayName)
}

func (s *stubAccountService) Login(ctx context.Context, email, password string) (string, *domain.Account, error) {
	return s.loginFn(ctx, email, password)
}

type stubUserService struct {
	ports.UserService
	updateFn    func(ctx context.Context, actor domain.Actor, patch domain.ProfilePatch) (*domain.User, error)
	onboardFn   func(ctx context.Context, actor domain.Actor, patch domain.ProfilePatch) (*domain.User, error)
	availableFn func(ctx context.Context, username string) (bool, error)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, actor domain.Actor, patch domain.ProfilePatch) (*domain.User, error) {
	return s.updateFn(ctx, actor, patch)
}

func (s *stubUserService) CompleteOnboarding(ctx context.Context, actor domain.Actor, patch domain.ProfilePatch) (*domain.User, error) {
	return s.onboardFn(ctx, actor, patch)
}

func (s *stubUserService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	return s.availableFn(ctx, username)
}

type stubConversationService struct {
	ports.ConversationService
	startFn func(ctx context.Context, actor domain.Actor, otherID string) (*ports.StartConversationResult, error)
	findFn  func(ctx context.Context, a, b string) (*domain.Conversation, error)
	listFn  func(ctx context.Context, actor domain.Actor) ([]domain.ConversationWithOtherUser, error)
}

func (s *stubConversationService) StartConversation(ctx context.Context, actor domain.Actor, otherID string) (*ports.StartConversationResult, error) {
	return s.startFn(ctx, actor, otherID)
}

func (s *stubConversationService) FindConversation(ctx context.Context, a, b string) (*domain.Conversation, error) {
	return s.findFn(ctx, a, b)
}

func (s *stubConversationService) ListConversations(ctx context.Context, actor domain.Actor) ([]domain.ConversationWithOtherUser, error) {
	return s.listFn(ctx, actor)
}

type stubMessageService struct {
	ports.MessageService
	sendFn     func(ctx context.Context, actor domain.Actor, in ports.SendMessageInput) (*ports.SendMessageResult, error)
	listFn     func(ctx context.Context, actor domain.Actor, conversationID string) ([]*domain.Message, error)
	markReadFn func(ctx context.Context, actor domain.Actor, conversationID string) (int64, error)
}

func (s *stubMessageService) SendMessage(ctx context.Context, actor domain.Actor, in ports.SendMessageInput) (*ports.SendMessageResult, error) {
	return s.sendFn(ctx, actor, in)
}

func (s *stubMessageService) GetMessages(ctx context.Context, actor domain.Actor, conversationID string) ([]*domain.Message, error) {
	return s.listFn(ctx, actor, conversationID)
}

func (s *stubMessageService) MarkConversationRead(ctx context.Context, actor domain.Actor, conversationID string) (int64, error) {
	return s.markReadFn(ctx, actor, conversationID)
}

type stubBoardService struct {
	ports.BoardService
	createTaskFn func(ctx context.Context, actor domain.Actor, in domain.NewTask) (string, error)
	listTasksFn  func(ctx context.Context, orgID, category string) ([]*domain.Task, error)
	deleteTaskFn func(ctx context.Context, actor domain.Actor, id string) error
}

func (s *stubBoardService) CreateTask(ctx context.Context, actor domain.Actor, in domain.NewTask) (string, error) {
	return s.createTaskFn(ctx, actor, in)
}

func (s *stubBoardService) ListTasks(ctx context.Context, orgID, category string) ([]*domain.Task, error) {
	return s.listTasksFn(ctx, orgID, category)
}

func (s *stubBoardService) DeleteTask(ctx context.Context, actor domain.Actor, id string) error {
	return s.deleteTaskFn(ctx, actor, id)
}

type stubSubmissionService struct {
	ports.SubmissionService
	createFn func(ctx context.Context, actor domain.Actor, in ports.SubmissionInput) (*domain.Submission, error)
	reviewFn func(ctx context.Context, actor domain.Actor, id, status string) (*domain.Submission, error)
}

func (s *stubSubmissionService) CreateSubmission(ctx context.Context, actor domain.Actor, in ports.SubmissionInput) (*domain.Submission, error) {
	return s.createFn(ctx, actor, in)
}

func (s *stubSubmissionService) ReviewSubmission(ctx context.Context, actor domain.Actor, id, status string) (*domain.Submission, error) {
	return s.reviewFn(ctx, actor, id, status)
}

type stubNotificationService struct {
	ports.NotificationService
	listFn func(ctx context.Context, actor domain.Actor, limit int) ([]*domain.Notification, error)
}

func (s *stubNotificationService) List(ctx context.Context, actor domain.Actor, limit int) ([]*domain.Notification, error) {
	return s.listFn(ctx, actor, limit)
}

type stubUploadService struct {
	ports.UploadService
	acceptFn func(ctx context.Context, token, contentType string, body io.Reader) (*domain.StoredFile, error)
	openFn   func(ctx context.Context, storageID string) (io.ReadCloser, *domain.StoredFile, error)
}

func (s *stubUploadService) Accept(ctx context.Context, token, contentType string, body io.Reader) (*domain.StoredFile, error) {
	return s.acceptFn(ctx, token, contentType, body)
}

func (s *stubUploadService) Open(ctx context.Context, storageID string) (io.ReadCloser, *domain.StoredFile, error) {
	return s.openFn(ctx, storageID)
}

// newEcho returns an Echo instance configured like the API router.
func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func as(c echo.Context, id domain.ExternalID) echo.Context {
	middleware.WithActor(c, domain.Actor{ExternalID: id})
	return c
}
