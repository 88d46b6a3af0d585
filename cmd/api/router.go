package api

import (
	"net/http"

	"betterish-backend/internal/auth/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	requireAuth := delivery.AuthMiddleware(h.authUsecase)
	requireAdmin := delivery.RequireAdmin(h.config.AdminEmails)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// SSE endpoint
		api.GET("/events", requireAuth, func(c *gin.Context) {
			h.sseManager.ServeHTTP(c, c.GetString("userID"))
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.authHandler.Register)
			auth.POST("/login", h.authHandler.Login)
			auth.POST("/refresh", h.authHandler.RefreshToken)
			auth.POST("/logout", h.authHandler.Logout)
			auth.GET("/me", requireAuth, h.authHandler.Me)
		}

		// FCM routes (protected)
		fcm := api.Group("/fcm")
		fcm.Use(requireAuth)
		{
			fcm.POST("/register", h.authHandler.RegisterFCMToken)
			fcm.DELETE("/:token", h.authHandler.UnregisterFCMToken)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", h.taskHandler.GetTasks)
			tasks.POST("", h.taskHandler.CreateTask)
			tasks.POST("/projects", h.taskHandler.CreateProject)
			tasks.GET("/:id", h.taskHandler.GetTaskByID)
			tasks.DELETE("/:id", h.taskHandler.DeleteTask)
			tasks.POST("/:id/toggle", h.taskHandler.ToggleTask)
			tasks.POST("/:id/expand", h.taskHandler.ToggleExpansion)
			tasks.POST("/:id/subtasks", h.taskHandler.AttachSubtasks)
			tasks.POST("/:id/breakdown", h.assistantHandler.BreakdownTask)
		}

		api.GET("/stats", requireAuth, h.statsHandler.GetStats)

		// Chat routes (protected)
		chat := api.Group("/chat")
		chat.Use(requireAuth)
		{
			chat.GET("/messages", h.chatHandler.GetMessages)
			chat.POST("/messages", h.chatHandler.SendMessage)
			chat.POST("/messages/:id/convert", h.chatHandler.ConvertMessage)
			chat.PUT("/context", h.chatHandler.SetContext)
			chat.DELETE("/context", h.chatHandler.ClearContext)
		}

		// Assistant routes (protected)
		assistant := api.Group("/assistant")
		assistant.Use(requireAuth)
		{
			assistant.POST("/priorities/analyze", h.assistantHandler.AnalyzePriorities)
			assistant.POST("/priorities/apply", h.assistantHandler.ApplyPriorities)
			assistant.GET("/suggestions", h.assistantHandler.GetSuggestions)
			assistant.GET("/daily-tip", h.assistantHandler.GetDailyTip)
			assistant.GET("/library", h.assistantHandler.GetLibrary)
			assistant.GET("/requests", h.assistantHandler.GetRequests)
		}

		// Profile routes (protected)
		api.GET("/profile", requireAuth, h.profileHandler.GetProfile)
		api.PUT("/profile", requireAuth, h.profileHandler.UpdateProfile)

		// Settings routes (protected) - runtime AI configuration, changes are admin only
		settings := api.Group("/settings")
		settings.Use(requireAuth)
		{
			settings.GET("/ai", h.settingsHandler.GetSettings)
			settings.PUT("/ai", requireAdmin, h.settingsHandler.UpdateSettings)
			settings.POST("/ai/test", requireAdmin, h.settingsHandler.TestConnection)
		}
	}
}
