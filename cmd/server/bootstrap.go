package main

import (
	"github.com/teamflow/teamflow/internal/config"
	"github.com/teamflow/teamflow/internal/handlers"
	"github.com/teamflow/teamflow/internal/models"
	"github.com/teamflow/teamflow/internal/realtime"
	"github.com/teamflow/teamflow/internal/services"
	"github.com/teamflow/teamflow/internal/utils"
	"github.com/teamflow/teamflow/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	hub           *realtime.Hub
	dispatcher    *realtime.Dispatcher
	mailQueue     services.MailQueue
	mailWorker    *services.MailWorker
	digestService *services.DigestService

	authHandler         *handlers.AuthHandler
	userHandler         *handlers.UserHandler
	teamHandler         *handlers.TeamHandler
	projectHandler      *handlers.ProjectHandler
	taskHandler         *handlers.TaskHandler
	commentHandler      *handlers.CommentHandler
	notificationHandler *handlers.NotificationHandler
	wsHandler           *handlers.WSHandler
}

// bootstrap initializes all application dependencies: database, realtime hub,
// mail pipeline, schedulers and handlers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	// Realtime hub with presence persisted on first/last connection.
	hub := realtime.NewHub(services.NewUserPresence(db))
	dispatcher := realtime.NewDispatcher()
	projectService := services.NewProjectService(db)
	realtime.RegisterDefaultHandlers(dispatcher, hub, projectService.IsMember)

	// Digest mail pipeline. Falls back to synchronous delivery when
	// Redis is disabled or unreachable.
	mailer := services.NewSMTPMailer(&cfg.SMTP)
	mailQueue := services.NewMailQueue(cfg, mailer)

	var mailWorker *services.MailWorker
	if mailQueue.IsAsync() {
		mailWorker = services.NewMailWorker(&cfg.Redis, mailer)
		if err := mailWorker.Start(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start mail worker")
			mailWorker = nil
		}
	}

	digestService := services.NewDigestService(db, mailQueue, &cfg.Digest)
	if cfg.Digest.Enabled {
		if err := digestService.StartScheduler(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start digest scheduler")
		}
	}

	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		hub:                 hub,
		dispatcher:          dispatcher,
		mailQueue:           mailQueue,
		mailWorker:          mailWorker,
		digestService:       digestService,
		authHandler:         authHandler,
		userHandler:         handlers.NewUserHandler(db, hub),
		teamHandler:         handlers.NewTeamHandler(db),
		projectHandler:      handlers.NewProjectHandler(db),
		taskHandler:         handlers.NewTaskHandler(db, hub),
		commentHandler:      handlers.NewCommentHandler(db, hub),
		notificationHandler: handlers.NewNotificationHandler(db, digestService),
		wsHandler:           handlers.NewWSHandler(db, hub, dispatcher),
	}
}

// shutdown gracefully stops schedulers, the mail pipeline and the hub.
func (s *appServices) shutdown() {
	s.digestService.StopScheduler()
	if s.mailWorker != nil {
		s.mailWorker.Stop()
	}
	if s.mailQueue != nil {
		if err := s.mailQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close mail queue")
		}
	}
	logger.Info().Msg("All schedulers stopped")
}
