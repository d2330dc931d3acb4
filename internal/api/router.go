package api

import (
	"context"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/commons-hub/community-api/internal/api/handler"
	"github.com/commons-hub/community-api/internal/api/middleware"
	"github.com/commons-hub/community-api/internal/core/domain"
	"github.com/commons-hub/community-api/internal/core/ports"
	"github.com/commons-hub/community-api/pkg/logger"
)

// Services are the use cases the HTTP API exposes.
type Services struct {
	Accounts      ports.AccountService
	Users         ports.UserService
	Conversations ports.ConversationService
	Messages      ports.MessageService
	Board         ports.BoardService
	Submissions   ports.SubmissionService
	Notifications ports.NotificationService
	Uploads       ports.UploadService
	Realtime      interface {
		Serve(ctx context.Context, conn *websocket.Conn, user domain.ExternalID) error
	}
}

// Options configure authentication and realtime sessions.
type Options struct {
	JWTSecret      string
	JWTIssuer      string
	OriginPatterns []string
	// Shutdown is cancelled when the server stops; it closes websocket
	// sessions.
	Shutdown context.Context
}

// NewRouter builds and returns the Echo instance with all API routes
// registered under /v1.
func NewRouter(log zerolog.Logger, svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(logger.RequestLogger(log))

	if opts.Shutdown == nil {
		opts.Shutdown = context.Background()
	}

	// --- Handlers ---
	accounts := handler.NewAccountHandler(svc.Accounts)
	users := handler.NewUserHandler(svc.Users)
	conversations := handler.NewConversationHandler(svc.Conversations)
	messages := handler.NewMessageHandler(svc.Messages)
	board := handler.NewBoardHandler(svc.Board)
	submissions := handler.NewSubmissionHandler(svc.Submissions, svc.Notifications)
	storage := handler.NewStorageHandler(svc.Uploads)
	realtime := handler.NewRealtimeHandler(opts.Shutdown, svc.Realtime, opts.OriginPatterns)

	syncUser := middleware.SyncUser(svc.Users)
	secured := []echo.MiddlewareFunc{middleware.Auth(opts.JWTSecret, opts.JWTIssuer), syncUser}

	v1 := e.Group("/v1")

	// --- Public routes ---
	v1.POST("/auth/register", accounts.Register)
	v1.POST("/auth/login", accounts.Login)
	// The upload token in the path is the credential.
	v1.PUT("/storage/upload/:token", storage.Upload)
	v1.GET("/storage/files/:storage_id", storage.Download)

	// --- Realtime ---
	v1.GET("/ws", realtime.Connect, middleware.WebSocketAuth(opts.JWTSecret, opts.JWTIssuer), syncUser)

	// --- Users ---
	v1.GET("/users/me", users.Me, secured...)
	v1.PATCH("/users/me", users.UpdateMe, secured...)
	v1.POST("/users/me/onboarding", users.CompleteOnboarding, secured...)
	v1.GET("/users/username-available", users.CheckUsername, secured...)
	v1.GET("/users/by-username/:username", users.GetByUsername, secured...)
	v1.GET("/users/:id", users.Get, secured...)

	// --- Conversations & messages ---
	v1.POST("/conversations", conversations.Start, secured...)
	v1.GET("/conversations", conversations.List, secured...)
	v1.GET("/conversations/with/:user_id", conversations.With, secured...)
	v1.GET("/conversations/:id", conversations.Get, secured...)
	v1.GET("/conversations/:id/messages", messages.List, secured...)
	v1.POST("/conversations/:id/read", messages.MarkRead, secured...)
	v1.POST("/messages", messages.Send, secured...)
	v1.GET("/messages/unread-count", messages.UnreadCount, secured...)

	// --- Organizations, checklists & tasks ---
	v1.POST("/organizations", board.CreateOrganization, secured...)
	v1.GET("/organizations/:id", board.GetOrganization, secured...)
	v1.PATCH("/organizations/:id", board.UpdateOrganization, secured...)
	v1.POST("/organizations/:id/checklists", board.CreateChecklist, secured...)
	v1.POST("/organizations/:id/tasks", board.CreateTask, secured...)
	v1.GET("/organizations/:id/tasks", board.ListTasks, secured...)
	v1.GET("/checklists/:id", board.GetChecklist, secured...)
	v1.GET("/tasks/:id", board.GetTask, secured...)
	v1.DELETE("/tasks/:id", board.DeleteTask, secured...)

	// --- Submissions & notifications ---
	v1.POST("/tasks/:id/submissions", submissions.Submit, secured...)
	v1.GET("/tasks/:id/submissions", submissions.ListForTask, secured...)
	v1.GET("/submissions/mine", submissions.ListMine, secured...)
	v1.PATCH("/submissions/:id", submissions.Review, secured...)
	v1.GET("/notifications", submissions.Notifications, secured...)
	v1.GET("/notifications/unread-count", submissions.UnreadNotifications, secured...)
	v1.POST("/notifications/:id/read", submissions.MarkNotificationRead, secured...)

	// --- Storage ---
	v1.POST("/storage/upload-url", storage.UploadURL, secured...)
	v1.GET("/storage/files/:storage_id/url", storage.Resolve, secured...)

	return e
}
