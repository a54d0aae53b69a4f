package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/soulpin/soulpin-backend/internal/delivery/http/handler"
	"github.com/soulpin/soulpin-backend/internal/delivery/http/middleware"
)

type Router struct {
	profileHandler *handler.ProfileHandler
	matchHandler   *handler.MatchHandler
	messageHandler *handler.MessageHandler
	authMiddleware *middleware.AuthMiddleware
}

func NewRouter(
	profileHandler *handler.ProfileHandler,
	matchHandler *handler.MatchHandler,
	messageHandler *handler.MessageHandler,
	authMiddleware *middleware.AuthMiddleware,
) *Router {
	return &Router{
		profileHandler: profileHandler,
		matchHandler:   matchHandler,
		messageHandler: messageHandler,
		authMiddleware: authMiddleware,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	// Health check (supports both GET and HEAD)
	healthHandler := func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Registration (public)
		v1.POST("/users", r.profileHandler.Register)

		// Protected routes
		protected := v1.Group("")
		protected.Use(r.authMiddleware.RequireAuth())
		{
			// Profile routes
			profile := protected.Group("/profile")
			{
				profile.GET("/me", r.profileHandler.GetMyProfile)
				profile.POST("/complete-onboarding", r.profileHandler.CompleteOnboarding)
				profile.GET("/:user_id", r.profileHandler.GetProfileByUserID)
			}

			// Match routes
			match := protected.Group("/match")
			{
				match.GET("/current", r.matchHandler.GetCurrentMatch)
				match.POST("/find", r.matchHandler.FindMatch)
				match.POST("/unpin", r.matchHandler.Unpin)
				match.GET("/progress", r.matchHandler.GetProgress)
				match.GET("/conversation-starter", r.matchHandler.GetConversationStarter)
			}

			// Message routes
			protected.POST("/messages", r.messageHandler.SendMessage)
			protected.GET("/messages", r.messageHandler.ListMessages)
			protected.GET("/ws", r.messageHandler.Subscribe)
		}
	}

	return router
}
