package main

import (
	"github.com/gin-gonic/gin"
	"github.com/teamflow/teamflow/internal/middleware"
	"github.com/teamflow/teamflow/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for credential-bearing routes
	authLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "teamflow"})
	})

	// Websocket endpoint, token checked during the handshake
	r.GET("/ws", svc.wsHandler.Connect)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
			auth.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/change-password", svc.authHandler.ChangePassword)

			// Users
			protected.GET("/users", svc.userHandler.List)
			protected.GET("/users/online", svc.userHandler.Online)
			protected.GET("/users/:id", svc.userHandler.Get)
			protected.PUT("/users/me", svc.userHandler.UpdateProfile)

			// Teams
			protected.POST("/teams", svc.teamHandler.Create)
			protected.GET("/teams", svc.teamHandler.List)
			protected.GET("/teams/:id", svc.teamHandler.Get)
			protected.PUT("/teams/:id", svc.teamHandler.Update)
			protected.DELETE("/teams/:id", svc.teamHandler.Delete)
			protected.POST("/teams/:id/members", svc.teamHandler.AddMember)
			protected.PUT("/teams/:id/members/:userID", svc.teamHandler.UpdateMemberRole)
			protected.DELETE("/teams/:id/members/:userID", svc.teamHandler.RemoveMember)

			// Projects
			protected.POST("/projects", svc.projectHandler.Create)
			protected.GET("/projects", svc.projectHandler.List)
			protected.GET("/projects/:id", svc.projectHandler.Get)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)
			protected.POST("/projects/:id/members", svc.projectHandler.AddMember)
			protected.PUT("/projects/:id/members/:userID", svc.projectHandler.UpdateMemberRole)
			protected.DELETE("/projects/:id/members/:userID", svc.projectHandler.RemoveMember)

			// Tasks
			protected.POST("/tasks", svc.taskHandler.Create)
			protected.GET("/tasks", svc.taskHandler.List)
			protected.GET("/tasks/:id", svc.taskHandler.Get)
			protected.PUT("/tasks/:id", svc.taskHandler.Update)
			protected.DELETE("/tasks/:id", svc.taskHandler.Delete)
			protected.POST("/tasks/:id/assignees", svc.taskHandler.Assign)
			protected.DELETE("/tasks/:id/assignees/:userID", svc.taskHandler.Unassign)
			protected.POST("/tasks/:id/subtasks", svc.taskHandler.AddSubtask)
			protected.PUT("/tasks/:id/subtasks/:subtaskID", svc.taskHandler.ToggleSubtask)

			// Comments
			protected.POST("/tasks/:id/comments", svc.commentHandler.Create)
			protected.GET("/tasks/:id/comments", svc.commentHandler.List)
			protected.PUT("/comments/:id", svc.commentHandler.Update)
			protected.DELETE("/comments/:id", svc.commentHandler.Delete)

			// Notifications
			protected.GET("/notifications", svc.notificationHandler.List)
			protected.GET("/notifications/unread-count", svc.notificationHandler.UnreadCount)
			protected.PUT("/notifications/read-all", svc.notificationHandler.MarkAllRead)
			protected.PUT("/notifications/:id/read", svc.notificationHandler.MarkRead)
			protected.PUT("/notifications/:id/unread", svc.notificationHandler.MarkUnread)
		}

		// Admin only routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.PUT("/users/:id/role", svc.userHandler.SetRole)
			admin.POST("/users/:id/deactivate", svc.userHandler.Deactivate)
			admin.POST("/users/:id/activate", svc.userHandler.Activate)
			admin.POST("/digest/run", svc.notificationHandler.RunDigest)
		}
	}
}
