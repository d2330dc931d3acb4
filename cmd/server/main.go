// @title                       Community API
// @version                     1.0
// @description                 Messaging, community boards and task submissions.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/commons-hub/community-api/docs"
	"github.com/commons-hub/community-api/internal/api"
	"github.com/commons-hub/community-api/internal/core/service"
	"github.com/commons-hub/community-api/internal/infrastructure/config"
	mongodb "github.com/commons-hub/community-api/internal/infrastructure/db/mongo"
	redisdb "github.com/commons-hub/community-api/internal/infrastructure/db/redis"
	infrahttp "github.com/commons-hub/community-api/internal/infrastructure/http"
	"github.com/commons-hub/community-api/internal/infrastructure/http/handlers"
	"github.com/commons-hub/community-api/internal/infrastructure/queue"
	"github.com/commons-hub/community-api/internal/infrastructure/realtime"
	"github.com/commons-hub/community-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet.
		logger.Init(logger.Options{Output: os.Stderr})
		l := logger.Get()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment(), Service: "community-api"})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server exited")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	files, err := mongodb.NewGridFSStore(db)
	if err != nil {
		return err
	}

	users := mongodb.NewUserRepository(db)
	accounts := mongodb.NewAccountRepository(db)
	conversations := mongodb.NewConversationRepository(db)
	messages := mongodb.NewMessageRepository(client, db)
	orgs := mongodb.NewOrganizationRepository(db)
	checklists := mongodb.NewChecklistRepository(db)
	tasks := mongodb.NewTaskRepository(db)
	submissions := mongodb.NewSubmissionRepository(db)
	notifications := mongodb.NewNotificationRepository(db)
	idempotency := redisdb.NewIdempotencyStore(rdb, cfg.Redis.SendDedupTTL)

	// --- Realtime ---
	hub := realtime.NewHub(log)
	var publisher queue.Publisher = hub
	if cfg.Realtime.Fanout == "redis" {
		bus := redisdb.NewEventBus(rdb, log)
		publisher = bus
		go func() {
			if err := bus.Subscribe(ctx, hub.Deliver); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("realtime subscription ended")
			}
		}()
	}
	dispatcher := queue.NewDispatcher(cfg.Realtime.Workers, publisher, log)
	dispatcher.Start(ctx)

	// --- Services ---
	identity := service.NewIdentityService(users, cfg.Auth.ExternalIDPrefix)
	userService := service.NewUserService(users, identity, log)
	conversationService := service.NewConversationService(conversations, users, identity, log)
	messageService := service.NewMessageService(messages, conversations, conversationService, identity, idempotency, dispatcher, log)
	notificationService := service.NewNotificationService(notifications, dispatcher, log)

	e := api.NewRouter(log, api.Services{
		Accounts:      service.NewAccountService(accounts, cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.ExternalIDPrefix, cfg.Auth.TokenTTL),
		Users:         userService,
		Conversations: conversationService,
		Messages:      messageService,
		Board:         service.NewBoardService(orgs, checklists, tasks, log),
		Submissions:   service.NewSubmissionService(submissions, tasks, orgs, notificationService, log),
		Notifications: notificationService,
		Uploads:       service.NewUploadService(files, idempotency, cfg.Auth.JWTSecret, cfg.Storage.PublicBaseURL, cfg.Storage.UploadURLTTL, log),
		Realtime:      hub,
	}, api.Options{
		JWTSecret:      cfg.Auth.JWTSecret,
		JWTIssuer:      cfg.Auth.JWTIssuer,
		OriginPatterns: cfg.Realtime.OriginPatterns,
		Shutdown:       ctx,
	})
	infrahttp.RegisterOperational(e, handlers.MongoCheck(db), handlers.RedisCheck(rdb))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Str("env", cfg.Env).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Workers exit once ctx is cancelled; queued events are dropped.
	dispatcher.Wait()
	return nil
}
